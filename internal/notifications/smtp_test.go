package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"

	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
)

type stubDialer struct {
	failures int
	sent     []*gomail.Message
}

func (s *stubDialer) DialAndSend(messages ...*gomail.Message) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	s.sent = append(s.sent, messages...)
	return nil
}

func newTestSender(d dialer) *SMTPSender {
	return &SMTPSender{
		dialer: d,
		from:   "signals@tradepulse.io",
		logg:   logger.New(logger.Options{ServiceName: "test"}),
	}
}

func TestSMTPSendDeliversRenderedMessage(t *testing.T) {
	d := &stubDialer{}
	sender := newTestSender(d)

	err := sender.Send(context.Background(), Email{
		Template: enums.EmailTemplateInviteSent,
		To:       "trader@example.com",
		Params:   map[string]string{"symbol": "BTCUSDT"},
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{"trader@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"signals@tradepulse.io"}, msg.GetHeader("From"))
}

func TestSMTPSendRetriesTransientFailures(t *testing.T) {
	d := &stubDialer{failures: 2}
	sender := newTestSender(d)

	err := sender.Send(context.Background(), Email{
		Template: enums.EmailTemplateInvitePending,
		To:       "trader@example.com",
	})
	require.NoError(t, err)
	assert.Len(t, d.sent, 1)
}

func TestSMTPSendRequiresRecipient(t *testing.T) {
	sender := newTestSender(&stubDialer{})

	err := sender.Send(context.Background(), Email{Template: enums.EmailTemplateInvitePending})
	require.Error(t, err)
}
