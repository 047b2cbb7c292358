package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// EmailOptions configure SMTP delivery.
type EmailOptions struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	Recipient string
	Timeout   time.Duration
}

// EmailNotifier delivers messages over SMTP with STARTTLS.
type EmailNotifier struct {
	opts   EmailOptions
	logger zerolog.Logger
}

// NewEmailNotifier constructs an SMTP notifier.
func NewEmailNotifier(opts EmailOptions, logger zerolog.Logger) *EmailNotifier {
	if opts.Port == 0 {
		opts.Port = 587
	}
	if opts.From == "" {
		opts.From = opts.Username
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &EmailNotifier{
		opts:   opts,
		logger: logger.With().Str("component", "alert_email").Logger(),
	}
}

// Send delivers msg to msg.Recipient, or to the configured recipient when empty.
func (n *EmailNotifier) Send(ctx context.Context, msg Message) error {
	m, err := n.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.opts.Host,
		mail.WithPort(n.opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.opts.Username),
		mail.WithPassword(n.opts.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(n.opts.Timeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info().Str("subject", msg.Subject).Str("recipient", n.recipient(msg)).Msg("alert sent (email)")
	return nil
}

func (n *EmailNotifier) recipient(msg Message) string {
	if msg.Recipient != "" {
		return msg.Recipient
	}
	return n.opts.Recipient
}

func (n *EmailNotifier) buildMessage(msg Message) (*mail.Msg, error) {
	to := n.recipient(msg)
	if to == "" {
		return nil, errors.New("email recipient not configured")
	}

	m := mail.NewMsg()
	if err := m.From(n.opts.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", n.opts.From, err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

var _ Notifier = (*EmailNotifier)(nil)
