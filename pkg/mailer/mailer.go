package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/pkg/config"
)

// Mailer sends account lifecycle emails over SMTP.
type Mailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// New constructs a Mailer.
func New(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// SendAccountVerificationEmail delivers the verification link for a freshly
// created student account. When SMTP credentials are absent the mail is logged
// instead of sent so local development does not require a mail relay.
func (m *Mailer) SendAccountVerificationEmail(ctx context.Context, userID int64, email string) error {
	token := uuid.NewString()
	verificationURL := fmt.Sprintf("%s/auth/verify-email?token=%s", m.cfg.BaseURL, token)

	if m.cfg.Host == "" || m.cfg.Username == "" {
		m.logger.Warn("smtp not configured, skipping verification email",
			zap.Int64("user_id", userID),
			zap.String("email", email),
			zap.String("verification_url", verificationURL),
		)
		return nil
	}

	subject := "Verify your school account email"
	body := fmt.Sprintf(
		"Hello,\r\n\r\nA student account was created for this address. Open the link below to verify it and set your password:\r\n\r\n%s\r\n\r\nIf you did not expect this email you can ignore it.\r\n",
		verificationURL,
	)
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		m.cfg.FromName, m.cfg.FromEmail, email, subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	m.logger.Info("verification email sent",
		zap.Int64("user_id", userID),
		zap.String("email", email),
	)
	return nil
}
