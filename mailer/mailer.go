// Package mailer delivers booking confirmation emails.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"puja-booking-server/config"
)

// BookingConfirmation is everything the confirmation email needs
type BookingConfirmation struct {
	To        string
	Name      string
	BookingID uint
	AgentName string
}

// Sender delivers confirmation emails
type Sender interface {
	SendBookingConfirmation(ctx context.Context, c BookingConfirmation) error
}

var confirmationBody = template.Must(template.New("confirmation").Parse(`Namaste {{.Name}},

Your booking #{{.BookingID}} is confirmed.
Your assigned agent is {{.AgentName}}, who will contact you with the ritual details.

Thank you for booking with us.
`))

// RenderConfirmation returns the subject and plain-text body
func RenderConfirmation(c BookingConfirmation) (string, string, error) {
	var buf bytes.Buffer
	if err := confirmationBody.Execute(&buf, c); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Booking #%d confirmed", c.BookingID), buf.String(), nil
}

// New returns an SMTP sender when a host is configured, otherwise a sender
// that only logs
func New(cfg config.MailConfig) (Sender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		log.Warn().Msg("SMTP_HOST not set, confirmation emails will only be logged")
		return LogSender{}, nil
	}
	return NewSMTPSender(cfg)
}

// SMTPSender sends through an SMTP relay
type SMTPSender struct {
	client *mail.Client
	from   string
}

func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create smtp client")
	}
	return &SMTPSender{client: client, from: cfg.From}, nil
}

func (s *SMTPSender) SendBookingConfirmation(ctx context.Context, c BookingConfirmation) error {
	if strings.TrimSpace(c.To) == "" {
		return errors.New("confirmation has no recipient")
	}
	subject, body, err := RenderConfirmation(c)
	if err != nil {
		return err
	}

	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return errors.Wrap(err, "invalid sender address")
	}
	if err := m.To(c.To); err != nil {
		return errors.Wrapf(err, "invalid recipient %q", c.To)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return errors.Wrapf(err, "send confirmation for booking %d", c.BookingID)
	}
	return nil
}

// LogSender writes confirmations to the log instead of sending them
type LogSender struct{}

func (LogSender) SendBookingConfirmation(_ context.Context, c BookingConfirmation) error {
	log.Info().
		Uint("booking_id", c.BookingID).
		Str("to", c.To).
		Str("agent", c.AgentName).
		Msg("booking confirmation (not sent, SMTP disabled)")
	return nil
}
