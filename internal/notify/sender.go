package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"communitycart/market/internal/config"
)

// Kind identifies what a notification is about.
type Kind string

const (
	KindClosingSoon      Kind = "closing_soon"
	KindJoinConfirmation Kind = "join_confirmation"
	KindTest             Kind = "test"
)

// IsKnownKind reports whether k is one of the kinds the system sends.
func IsKnownKind(k Kind) bool {
	switch k {
	case KindClosingSoon, KindJoinConfirmation, KindTest:
		return true
	}
	return false
}

// Message is a rendered notification ready for delivery.
type Message struct {
	To      []string `json:"to"`
	Kind    Kind     `json:"kind"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPSender implements Sender using net/smtp.
type SMTPSender struct {
	cfg  *config.Config
	auth smtp.Auth
	addr string
}

// NewSMTPSender returns an SMTP sender, or a LoggingSender when no SMTP host
// is configured.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		log.Info().Msg("SMTP host not configured, using logging notification sender")
		return &LoggingSender{cfg: cfg}
	}

	auth := smtp.PlainAuth("", cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpHost)
	return &SMTPSender{
		cfg:  cfg,
		auth: auth,
		addr: fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort),
	}
}

// Send delivers msg over SMTP.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	raw := BuildRawMessage(s.cfg.SmtpFromAddress, msg, time.Now())
	if err := smtp.SendMail(s.addr, s.auth, s.cfg.SmtpFromAddress, msg.To, raw); err != nil {
		log.Error().Err(err).Strs("to", msg.To).Msg("failed to send notification via SMTP")
		return fmt.Errorf("smtp error: %w", err)
	}
	log.Info().Strs("to", msg.To).Str("kind", string(msg.Kind)).Msg("notification sent via SMTP")
	return nil
}

// BuildRawMessage formats msg as a plain-text RFC 5322 message.
func BuildRawMessage(from string, msg *Message, date time.Time) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	sb.WriteString("Subject: " + msg.Subject + "\r\n")
	sb.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.Body)
	return []byte(sb.String())
}

// LoggingSender only logs messages. Used when SMTP is not configured.
type LoggingSender struct {
	cfg *config.Config
}

func (s *LoggingSender) Send(ctx context.Context, msg *Message) error {
	log.Info().
		Strs("to", msg.To).
		Str("from", s.cfg.SmtpFromAddress).
		Str("kind", string(msg.Kind)).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("notification (logged, not sent)")
	return nil
}
