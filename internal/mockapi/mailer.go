package mockapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/resend/resend-go/v2"

	"iris-therapy-portal/internal/logging"
)

// Mail is one OTP email.
type Mail struct {
	To      string
	Subject string
	Code    string
	Purpose OTPPurpose
	SentAt  time.Time
}

// Mailer delivers OTP emails.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// MailerConfig selects and configures a Mailer.
type MailerConfig struct {
	// Transport is "log", "memory" or "resend".
	Transport    string
	DefaultFrom  string
	ResendAPIKey string
}

// NewMailer builds the configured transport.
func NewMailer(cfg MailerConfig, logger *logging.Logger) (Mailer, error) {
	switch cfg.Transport {
	case "", "log":
		return &LogMailer{logger: logger}, nil
	case "memory":
		return NewMemoryMailer(), nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("mockapi: resend transport requires RESEND_API_KEY")
		}
		return NewResendMailer(cfg.ResendAPIKey, cfg.DefaultFrom, logger), nil
	}
	return nil, fmt.Errorf("mockapi: unknown mailer transport %q", cfg.Transport)
}

func subjectFor(p OTPPurpose) string {
	switch p {
	case PurposeLogin:
		return "Your Iris Therapy sign-in code"
	case PurposeReset:
		return "Your Iris Therapy password reset code"
	}
	return "Your Iris Therapy code"
}

// LogMailer writes codes to the log. It is the local development default.
type LogMailer struct {
	logger *logging.Logger
}

func (l *LogMailer) Send(_ context.Context, m Mail) error {
	if l.logger == nil {
		l.logger = logging.Default()
	}
	l.logger.Info("otp email", "to", m.To, "purpose", string(m.Purpose), "code", m.Code)
	return nil
}

// MemoryMailer keeps sent mail for inspection.
type MemoryMailer struct {
	mu     sync.Mutex
	outbox []Mail
}

// NewMemoryMailer creates an empty MemoryMailer.
func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

func (m *MemoryMailer) Send(_ context.Context, mail Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outbox = append(m.outbox, mail)
	return nil
}

// Outbox returns a copy of everything sent so far.
func (m *MemoryMailer) Outbox() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.outbox...)
}

// LastCode returns the most recent code sent to email for purpose.
func (m *MemoryMailer) LastCode(email string, purpose OTPPurpose) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.outbox) - 1; i >= 0; i-- {
		if m.outbox[i].To == email && m.outbox[i].Purpose == purpose {
			return m.outbox[i].Code, true
		}
	}
	return "", false
}

// ResendMailer sends mail through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
	logger *logging.Logger
}

// NewResendMailer creates a ResendMailer.
func NewResendMailer(apiKey, from string, logger *logging.Logger) *ResendMailer {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResendMailer{client: resend.NewClient(apiKey), from: from, logger: logger}
}

func (r *ResendMailer) Send(ctx context.Context, m Mail) error {
	params := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    fmt.Sprintf("<p>Your code is <strong>%s</strong>.</p><p>It expires shortly and can be used once.</p>", m.Code),
	}
	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		r.logger.Error("resend send failed", "error", err, "to", m.To)
		return fmt.Errorf("resend send failed: %w", err)
	}
	r.logger.Info("resend sent", "message_id", sent.Id, "to", m.To)
	return nil
}
