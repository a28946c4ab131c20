package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	gomail "gopkg.in/gomail.v2"

	"github.com/tradepulse/tradepulse-backend/pkg/config"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
)

const (
	smtpRetryBase    = 500 * time.Millisecond
	smtpRetryRetries = 3
)

type dialer interface {
	DialAndSend(messages ...*gomail.Message) error
}

// SMTPSender renders templates and delivers mail over SMTP. Transient
// delivery failures retry with exponential backoff.
type SMTPSender struct {
	dialer dialer
	from   string
	logg   *logger.Logger
}

// NewSMTPSender builds an SMTP sender from configuration.
func NewSMTPSender(cfg config.SMTPConfig, logg *logger.Logger) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, errors.New("smtp from address is required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.DefaultFrom,
		logg:   logg,
	}, nil
}

// Send renders the template and delivers one message.
func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	to := strings.TrimSpace(email.To)
	if to == "" {
		return errors.New("recipient address is required")
	}

	subject, body, err := Render(email)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	backoff := retry.WithMaxRetries(smtpRetryRetries, retry.NewExponential(smtpRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if sendErr := s.dialer.DialAndSend(msg); sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("smtp delivery: %w", err)
	}

	s.logg.Info(s.logg.WithField(ctx, "template", email.Template.String()), "email delivered")
	return nil
}
