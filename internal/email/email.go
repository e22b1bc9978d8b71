// Package email sends transactional mail over SMTP.
package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medscanhq/medscan-api/internal/config"
)

// Sender delivers a message to a single recipient.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(cfg config.SMTPConfig) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// InvitationBody renders the staff invitation email.
func InvitationBody(fullname, email, password, loginURL string) string {
	return fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>An account has been created for you. Sign in with the credentials
		below and change your password after your first login.</p>
		<p>Email: <b>%s</b><br>Temporary password: <b>%s</b></p>
		<p><a href="%s">Sign in</a></p>
	`, fullname, email, password, loginURL)
}
