package mailer

import (
	"fmt"

	"github.com/pawmates/adoption-service/internal/app/config"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail. The zero-value Noop implementation is
// wired when SMTP is disabled.
type Mailer interface {
	SendAdoptionApprovedEmail(toEmail, petName string) error
	SendPasswordResetEmail(toEmail, resetToken string) error
}

type smtpMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) send(toEmail, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SenderEmail)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}

func (m *smtpMailer) SendAdoptionApprovedEmail(toEmail, petName string) error {
	return m.send(toEmail, "Your adoption request was approved!",
		fmt.Sprintf("Congratulations! Your request to adopt %s has been approved by the owner.", petName))
}

func (m *smtpMailer) SendPasswordResetEmail(toEmail, resetToken string) error {
	return m.send(toEmail, "Password reset requested",
		fmt.Sprintf("Use the following token to reset your password. It expires shortly.\n\n%s", resetToken))
}

type NoopMailer struct{}

func (NoopMailer) SendAdoptionApprovedEmail(toEmail, petName string) error {
	return nil
}

func (NoopMailer) SendPasswordResetEmail(toEmail, resetToken string) error {
	return nil
}
