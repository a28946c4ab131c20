package notifications

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/tradepulse/tradepulse-backend/pkg/logger"
)

// Consumer drains the email topic and hands each message to the sender.
// Malformed messages ack so they never wedge the subscription; delivery
// failures nack for redelivery.
type Consumer struct {
	sub    *pubsub.Subscriber
	sender Sender
	logg   *logger.Logger
}

// NewConsumer builds an email event consumer.
func NewConsumer(sub *pubsub.Subscriber, sender Sender, logg *logger.Logger) (*Consumer, error) {
	if sub == nil {
		return nil, errors.New("pubsub subscriber required")
	}
	if sender == nil {
		return nil, errors.New("sender required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Consumer{sub: sub, sender: sender, logg: logg}, nil
}

// Run blocks receiving messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logg.Info(ctx, "email consumer starting")
	return c.sub.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
		var email Email
		if err := json.Unmarshal(msg.Data, &email); err != nil {
			c.logg.Error(msgCtx, "dropping malformed email event", err)
			msg.Ack()
			return
		}

		msgCtx = c.logg.WithField(msgCtx, "template", email.Template.String())
		if err := c.sender.Send(msgCtx, email); err != nil {
			c.logg.Error(msgCtx, "email delivery failed; message will retry", err)
			msg.Nack()
			return
		}
		msg.Ack()
	})
}
