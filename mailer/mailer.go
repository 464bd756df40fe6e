package mailer

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is one outbound plain-text email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender delivers notification emails. Delivery failures surface as
// operation errors; no retry is performed here.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendGrid sends mail through the SendGrid v3 API.
type SendGrid struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

var _ Sender = (*SendGrid)(nil)

// NewSendGrid builds a SendGrid sender.
func NewSendGrid(apiKey, fromName, fromAddr string) *SendGrid {
	return &SendGrid{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.fromName, s.fromAddr)
	to := mail.NewEmail(msg.ToName, msg.To)
	content := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")

	resp, err := s.client.SendWithContext(ctx, content)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "mail delivery failed")
	}

	if resp.StatusCode >= 400 {
		return errors.New("mail delivery rejected", errors.CategoryOperation).
			WithMetadata(map[string]any{
				"status_code": resp.StatusCode,
				"to":          msg.To,
			})
	}

	return nil
}

// Recorder is a Sender for tests. It keeps every message in memory and
// can be primed to fail.
type Recorder struct {
	Messages []Message
	Err      error
}

var _ Sender = (*Recorder)(nil)

func (r *Recorder) Send(_ context.Context, msg Message) error {
	if r.Err != nil {
		return r.Err
	}
	r.Messages = append(r.Messages, msg)
	return nil
}
