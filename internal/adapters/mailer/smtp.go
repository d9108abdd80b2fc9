// Package mailer delivers staff notifications over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	mail "gopkg.in/mail.v2"

	"github.com/target/lab-portal/internal/ports"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	To       []string
	Timeout  time.Duration
}

// sender is satisfied by *mail.Dialer.
type sender interface {
	DialAndSend(m ...*mail.Message) error
}

var _ ports.Notifier = (*SMTPNotifier)(nil)

// SMTPNotifier implements ports.Notifier.
type SMTPNotifier struct {
	cfg    Config
	sender sender
}

// NewSMTPNotifier validates cfg and builds a dialer.
func NewSMTPNotifier(cfg Config) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}
	if len(cfg.To) == 0 {
		return nil, errors.New("at least one notification recipient is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}
	return &SMTPNotifier{cfg: cfg, sender: d}, nil
}

// Notify sends n to the configured recipients. The SMTP exchange itself is not
// cancellable; ctx is checked before dialing.
func (s *SMTPNotifier) Notify(ctx context.Context, n ports.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.sender.DialAndSend(s.message(n)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPNotifier) message(n ports.Notification) *mail.Message {
	m := mail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", s.cfg.To...)
	if n.ReplyTo != "" {
		m.SetHeader("Reply-To", n.ReplyTo)
	}
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Body)
	return m
}
