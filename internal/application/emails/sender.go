package emails

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Message is one outgoing invitation email.
type Message struct {
	From       string
	To         string
	Subject    string
	HTML       string
	Attachment string
}

// Sender delivers invitation emails.
type Sender interface {
	SendInvitation(ctx context.Context, msg Message) error
}

// LogSender records the message instead of delivering it.
type LogSender struct {
	From string
}

func (s LogSender) SendInvitation(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("recipient email is required")
	}
	if msg.From == "" {
		msg.From = s.From
	}
	log.Info().
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("attachment", msg.Attachment).
		Int("html_bytes", len(msg.HTML)).
		Msg("invitation email queued (delivery disabled)")
	return nil
}
