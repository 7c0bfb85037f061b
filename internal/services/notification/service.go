// Package notification delivers payment confirmation tokens by email.
// The ledger only depends on send success or failure; everything else
// here is transport detail.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vwallet/internal/config"
	"vwallet/internal/models"
	"vwallet/internal/money"
	"vwallet/internal/utils"

	"gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned when no SMTP credentials are configured.
// A token that cannot leave the system must fail the initiation.
var ErrNotConfigured = errors.New("email service not configured")

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// ConfigFromEnv reads SMTP settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		Host:     config.GetEnv("SMTP_HOST", "smtp.gmail.com"),
		Port:     config.GetIntEnv("SMTP_PORT", 587),
		User:     config.GetEnv("SMTP_USER", ""),
		Password: config.GetEnv("SMTP_PASS", ""),
		From:     config.GetEnv("EMAIL_FROM", `"Virtual Wallet" <noreply@vwallet.local>`),
	}
}

// Service sends wallet emails over SMTP.
type Service struct {
	dialer *gomail.Dialer
	from   string
}

// NewService creates the email sender. With no SMTP credentials the
// service stays disabled and every send fails with ErrNotConfigured.
func NewService(cfg Config) *Service {
	s := &Service{from: cfg.From}
	if cfg.User != "" && cfg.Password != "" {
		s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	} else {
		log.Println("notification: SMTP not configured, email delivery disabled")
	}
	return s
}

// SendPaymentToken emails the confirmation token for a payment session.
func (s *Service) SendPaymentToken(ctx context.Context, client *models.Client, token string, amount money.Money, sessionID string, ttl time.Duration) error {
	if s.dialer == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	formatted := utils.FormatCurrency(amount)
	minutes := int(ttl.Minutes())

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", client.Email)
	m.SetHeader("Subject", fmt.Sprintf("Your confirmation code for a payment of %s", formatted))
	m.SetBody("text/plain", plainBody(client.Name, token, formatted, sessionID, minutes))
	m.AddAlternative("text/html", htmlBody(client.Name, token, formatted, sessionID, minutes))

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Printf("notification: failed to send token to %s: %v", client.Email, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("notification: token sent to %s for session %s", client.Email, sessionID)
	return nil
}

func plainBody(name, token, amount, sessionID string, minutes int) string {
	return fmt.Sprintf(`Hello %s,

You requested a payment of %s.

Confirmation code: %s
Session id: %s

The code expires in %d minutes and can be used only once.
If you did not request this payment, ignore this message.`,
		name, amount, token, sessionID, minutes)
}

func htmlBody(name, token, amount, sessionID string, minutes int) string {
	return fmt.Sprintf(`<html><body>
<p>Hello <strong>%s</strong>,</p>
<p>You requested a payment of <strong>%s</strong>. Use this code to confirm it:</p>
<p style="font-size:32px;letter-spacing:6px;font-family:monospace"><strong>%s</strong></p>
<ul>
<li>Session id: %s</li>
<li>Valid for %d minutes</li>
<li>Single use, do not share it</li>
</ul>
<p>If you did not request this payment, ignore this message.</p>
</body></html>`, name, amount, token, sessionID, minutes)
}
