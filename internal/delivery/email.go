// Package delivery sends finished report files by e-mail.
package delivery

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/seenimoa/marketreport/internal/observability"
)

// DefaultPort is the SMTP submission port used when none is configured.
const DefaultPort = 587

// DefaultTimeout bounds the SMTP dial and conversation.
const DefaultTimeout = 30 * time.Second

// PlainBody is the text part of every report message.
const PlainBody = "Attached"

// ErrNoRecipient is returned when a configured mailer has nobody to send to.
var ErrNoRecipient = eris.New("delivery: no recipient")

// SMTPConfig holds the SMTP relay settings. Host, User and Pass must all be
// set for delivery to happen; User doubles as the From address.
type SMTPConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	Timeout time.Duration
}

// Configured reports whether host and credentials are all present.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Pass != ""
}

// Sender hands a composed message to a mail transport.
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// SMTPSender delivers over SMTP with mandatory STARTTLS and AUTH PLAIN.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send dials the relay, authenticates and sends msg.
func (s *SMTPSender) Send(ctx context.Context, msg *mail.Msg) error {
	port := s.cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(port),
		mail.WithTimeout(timeout),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Pass),
	)
	if err != nil {
		return eris.Wrapf(err, "delivery: smtp client %s:%d", s.cfg.Host, port)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return eris.Wrapf(err, "delivery: send via %s:%d", s.cfg.Host, port)
	}
	return nil
}

// Mailer composes report messages and hands them to a Sender.
type Mailer struct {
	cfg     SMTPConfig
	sender  Sender
	logger  *zap.Logger
	metrics *observability.Metrics
}

// MailerOption customizes a Mailer.
type MailerOption func(*Mailer)

// WithSender replaces the SMTP transport, e.g. with a recorder in tests.
func WithSender(s Sender) MailerOption {
	return func(m *Mailer) { m.sender = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) MailerOption {
	return func(m *Mailer) { m.logger = l }
}

// WithMetrics records the delivery outcome.
func WithMetrics(mt *observability.Metrics) MailerOption {
	return func(m *Mailer) { m.metrics = mt }
}

// NewMailer creates a Mailer for cfg.
func NewMailer(cfg SMTPConfig, opts ...MailerOption) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	m := &Mailer{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	if m.sender == nil {
		m.sender = NewSMTPSender(cfg)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// Subject returns the message subject for a report date.
func Subject(date string) string {
	if date == "" {
		return "Market report"
	}
	return "Market report " + date
}

// Send mails files to recipient with htmlBody as an optional HTML
// alternative. When SMTP is not configured it logs a warning and returns
// (false, nil). Transport and authentication failures are returned.
func (m *Mailer) Send(ctx context.Context, to, date string, files []string, htmlBody string) (bool, error) {
	if !m.cfg.Configured() {
		m.logger.Warn("SMTP not configured, skipping send")
		m.setSent(false)
		return false, nil
	}
	if to == "" {
		m.setSent(false)
		return false, ErrNoRecipient
	}

	msg, err := m.compose(to, date, files, htmlBody)
	if err != nil {
		m.setSent(false)
		return false, err
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		m.setSent(false)
		return false, err
	}

	m.setSent(true)
	m.logger.Info("report e-mailed",
		zap.String("to", to),
		zap.Int("attachments", len(files)),
	)
	return true, nil
}

func (m *Mailer) compose(to, date string, files []string, htmlBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.User); err != nil {
		return nil, eris.Wrapf(err, "delivery: from address %q", m.cfg.User)
	}
	if err := msg.To(to); err != nil {
		return nil, eris.Wrapf(err, "delivery: recipient %q", to)
	}
	msg.Subject(Subject(date))
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, PlainBody)
	if htmlBody != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, eris.Wrapf(err, "delivery: attachment %s", f)
		}
		msg.AttachFile(f,
			mail.WithFileName(filepath.Base(f)),
			mail.WithFileContentType(mail.TypeAppOctetStream),
		)
	}
	return msg, nil
}

func (m *Mailer) setSent(sent bool) {
	if m.metrics == nil {
		return
	}
	if sent {
		m.metrics.EmailSent.Set(1)
		return
	}
	m.metrics.EmailSent.Set(0)
}
