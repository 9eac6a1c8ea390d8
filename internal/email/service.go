package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/healthmate/api/internal/config"
)

type Service interface {
	SendReminder(ctx context.Context, to, name, medicine, at string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	from   string
	dialer sender
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpService) SendReminder(ctx context.Context, to, name, medicine, at string) error {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	body := fmt.Sprintf("%s,\n\nIt is %s. Time to take %s.\n\nHealthMate", greeting, at, medicine)
	return s.SendCustom(ctx, to, "Medication reminder: "+medicine, body)
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// noopService is used when SMTP is disabled.
type noopService struct{}

func NewNoopService() Service { return noopService{} }

func (noopService) SendReminder(context.Context, string, string, string, string) error { return nil }
func (noopService) SendCustom(context.Context, string, string, string) error           { return nil }
