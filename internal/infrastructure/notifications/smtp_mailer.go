package notifications

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/you/shopauthsvc/domain"
)

// SMTPMailer implements domain.Mailer over plain SMTP. Delivery is
// best-effort by contract: the caller's token stays valid whether or not
// the mail arrives, and a resend reissues.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	baseURL  string
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(host string, port int, username, password, from, baseURL string) domain.Mailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		baseURL:  baseURL,
	}
}

// SendVerificationEmail implements domain.Mailer
func (m *SMTPMailer) SendVerificationEmail(email, tokenValue string) error {
	link := fmt.Sprintf("%s/auth/verify-email?token=%s", m.baseURL, tokenValue)
	body := fmt.Sprintf("Confirm your email address by opening this link:\r\n\r\n%s\r\n\r\nThe link expires in one hour.", link)
	return m.send(email, "Verify your email address", body)
}

// SendPasswordResetEmail implements domain.Mailer
func (m *SMTPMailer) SendPasswordResetEmail(email, tokenValue string) error {
	link := fmt.Sprintf("%s/auth/password-reset?token=%s", m.baseURL, tokenValue)
	body := fmt.Sprintf("Reset your password by opening this link:\r\n\r\n%s\r\n\r\nIf you did not request a reset, ignore this mail.", link)
	return m.send(email, "Password reset", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	// Without a configured host, log-style fallback for local development
	if m.host == "" {
		fmt.Printf("[MOCK MAIL] To: %s, Subject: %s\n%s\n", to, subject, body)
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
