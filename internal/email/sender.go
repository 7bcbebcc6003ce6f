package email

import (
	"offerwise_backend/internal/config"

	"gopkg.in/gomail.v2"
)

// Sender delivers one HTML message. The SMTP implementation is below; tests
// substitute their own.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type SMTPSender struct {
	cfg *config.Config
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.Email.FromEmail, s.cfg.Email.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(
		s.cfg.Email.SMTPHost,
		s.cfg.Email.SMTPPort,
		s.cfg.Email.SMTPUsername,
		s.cfg.Email.SMTPPassword,
	)
	return d.DialAndSend(m)
}
