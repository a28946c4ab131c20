package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/tradepulse/tradepulse-backend/pkg/logger"
)

// Publisher enqueues emails on the Pub/Sub email topic. The API process
// uses it as its Sender so delivery never blocks a request beyond the
// publish acknowledgment.
type Publisher struct {
	topic *pubsub.Publisher
	logg  *logger.Logger
}

// NewPublisher builds a Pub/Sub backed sender.
func NewPublisher(topic *pubsub.Publisher, logg *logger.Logger) (*Publisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub publisher required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Publisher{topic: topic, logg: logg}, nil
}

// Send publishes the email as a JSON message keyed by its template.
func (p *Publisher) Send(ctx context.Context, email Email) error {
	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"template": email.Template.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish email event: %w", err)
	}

	p.logg.Info(p.logg.WithField(ctx, "template", email.Template.String()), "email event published")
	return nil
}
