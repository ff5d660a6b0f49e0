package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mail "github.com/wneessen/go-mail"

	"BioDigest/internal/config"
	"BioDigest/internal/ports"
)

const senderDisplayName = "BioDigest"

// Sender delivers digests over SMTP. Each recipient gets its own message on
// its own connection so one rejection cannot poison the rest of the batch.
type Sender struct {
	cfg    config.MailConfig
	logger *slog.Logger

	// transport seam, replaced in tests
	send func(ctx context.Context, recipient, subject, markdown, html string) error
}

var _ ports.Mailer = (*Sender)(nil)

// NewSender wires SMTP settings from the environment-backed mail config.
func NewSender(cfg config.MailConfig, logger *slog.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger}
	s.send = s.sendSMTP
	return s
}

// SendDigest renders and transmits the report to every configured recipient.
// It returns nil when at least one recipient accepted the message.
func (s *Sender) SendDigest(ctx context.Context, subject, markdown string) error {
	if s.cfg.Server == "" || s.cfg.Sender == "" || s.cfg.Password == "" {
		return fmt.Errorf("mail transport misconfigured")
	}
	if len(s.cfg.Recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	html := RenderHTML(markdown)

	var failed []string
	for i, recipient := range s.cfg.Recipients {
		s.info("sending", "recipient", recipient, "progress", fmt.Sprintf("%d/%d", i+1, len(s.cfg.Recipients)))
		if err := s.send(ctx, recipient, subject, markdown, html); err != nil {
			s.warn("delivery failed", "recipient", recipient, "error", err)
			failed = append(failed, recipient)
		}
	}

	if len(failed) == len(s.cfg.Recipients) {
		return fmt.Errorf("all %d recipients rejected the message", len(failed))
	}
	if len(failed) > 0 {
		s.warn("partial delivery", "failed", strings.Join(failed, ", "))
	}
	return nil
}

// SendAlert delivers an error notification through the same transport.
func (s *Sender) SendAlert(ctx context.Context, subject, markdown string) error {
	return s.SendDigest(ctx, subject, markdown)
}

// sendSMTP establishes one connection per call: implicit TLS on port 465,
// mandatory STARTTLS everywhere else.
func (s *Sender) sendSMTP(ctx context.Context, recipient, subject, markdown, html string) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Sender),
		mail.WithPassword(s.cfg.Password),
		mail.WithTimeout(30 * time.Second),
	}
	if s.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(s.cfg.Server, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(senderDisplayName, s.cfg.Sender); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, markdown)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (s *Sender) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Sender) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
