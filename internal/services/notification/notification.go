// Package notification содержит бизнес-логику отправки писем о событиях
// платежной подсистемы.
package notification

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/smtp"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// Service отправляет письма о терминальных переходах ордеров.
type Service struct {
	transport smtp.TransportInterface
	opsEmail  string
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, opsEmail string, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		opsEmail:  opsEmail,
		log:       log,
	}
}

// HandlePaymentEvent обрабатывает событие из очереди notifications.payments.
func (s *Service) HandlePaymentEvent(body []byte) error {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := fmt.Sprintf("Payment %s: order %s", strings.ToLower(event.Status), event.OrderID)
	bodyText := fmt.Sprintf("Order %s for user %s finished with status %s.\nAmount: %d",
		event.OrderID, event.UserID, event.Status, event.Amount)
	if event.ProExpiresAt != nil {
		bodyText += fmt.Sprintf("\nPro access extended until %s", event.ProExpiresAt.Format("2006-01-02 15:04:05 MST"))
	}

	return s.sendEmail([]string{s.opsEmail}, subject, bodyText)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
