package email

import (
	"fmt"
	"net/smtp"
)

const (
	smtpHost = "smtp.gmail.com"
	smtpPort = "587"
	subject  = "Voice Assistant Email"
)

// Sender delivers plain-text mail through Gmail SMTP with STARTTLS.
// Missing credentials leave the sender unconfigured; the router turns
// that into a spoken "not configured" reply instead of an error.
type Sender struct {
	user     string
	password string
}

func NewSender(user, password string) *Sender {
	return &Sender{user: user, password: password}
}

func (s *Sender) Configured() bool {
	return s.user != "" && s.password != ""
}

func (s *Sender) Send(to, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.user, to, subject, body)

	auth := smtp.PlainAuth("", s.user, s.password, smtpHost)
	if err := smtp.SendMail(smtpHost+":"+smtpPort, auth, s.user, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
