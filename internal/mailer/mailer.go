package mailer

import (
	"fmt"
	"net/smtp"
	"time"

	"storefront/internal/util"

	"go.uber.org/zap"
)

// Mailer sends transactional email via SMTP
type Mailer struct {
	host      string
	port      string
	from      string
	clientURL string
	logger    *zap.Logger
}

// New creates a new mailer
func New(host, port, from, clientURL string) *Mailer {
	return &Mailer{
		host:      host,
		port:      port,
		from:      from,
		clientURL: clientURL,
		logger:    util.GetLogger(),
	}
}

// SendVerification sends an email-verification link
func (m *Mailer) SendVerification(to, name, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.clientURL, token)
	return m.send(to, "Email Verification", buildVerificationBody(name, link))
}

// SendPasswordReset sends a password-reset link
func (m *Mailer) SendPasswordReset(to, token string) error {
	link := fmt.Sprintf("%s/reset-password/%s", m.clientURL, token)
	return m.send(to, "Password Reset", buildPasswordResetBody(link))
}

// SendPaymentConfirmation confirms a completed payment
func (m *Mailer) SendPaymentConfirmation(to, orderID string, amount int64, paymentMethod string, paidAt time.Time) error {
	body := buildPaymentConfirmationBody(orderID, amount, paymentMethod, paidAt, m.clientURL)
	return m.send(to, "Payment Confirmation", body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	if err := smtp.SendMail(addr, nil, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", subject, to, err)
	}

	m.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
