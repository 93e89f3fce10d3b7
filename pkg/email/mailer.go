package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/validator"
)

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendEmail(ctx context.Context, msg Message) error
}

// Message is a rendered transactional email.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	BodyText string `json:"body_text,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

func (m Message) Validate() error {
	err := validator.Apply(
		validator.Required("to", m.To),
		validator.ValidEmail("to", m.To),
		validator.Required("subject", m.Subject),
		validator.Required("body_html", m.BodyHTML),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) SendEmail(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// NewSender builds the sender selected by cfg.Driver ("postmark" or "dev").
func NewSender(cfg Config) (Sender, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postmark":
		return NewPostmarkSender(cfg)
	case "dev", "":
		return NewDevSender(cfg.DevDir), nil
	default:
		return nil, fmt.Errorf("%w: unknown mail driver %q", ErrInvalidConfig, cfg.Driver)
	}
}
