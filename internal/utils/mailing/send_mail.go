package mailing

import (
	"fmt"
	"strconv"

	"gopkg.in/gomail.v2"

	"Grocery-Receipt-Tracker/internal/utils"
)

type (
	Mailer interface {
		SendVerificationEmail(to string, token string) error
	}

	mailer struct {
		cfg *utils.Config
	}
)

func NewMailer(cfg *utils.Config) Mailer {
	return &mailer{cfg: cfg}
}

func (m *mailer) SendVerificationEmail(to string, token string) error {
	port, err := strconv.Atoi(m.cfg.SMTPPort)
	if err != nil {
		return fmt.Errorf("invalid SMTP port: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/api/v1/users/verify?token=%s", m.cfg.AppURL, token)
	body := fmt.Sprintf(
		"<p>Welcome! Please verify your email by clicking the link below:</p><p><a href=%q>Verify email</a></p>",
		verifyURL,
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", m.cfg.SMTPSenderName, m.cfg.SMTPAuthEmail))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your email")
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(
		m.cfg.SMTPHost,
		port,
		m.cfg.SMTPAuthEmail,
		m.cfg.SMTPAuthPassword,
	)
	return dialer.DialAndSend(msg)
}
