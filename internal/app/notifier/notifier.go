// Package notifier собирает воркер уведомлений: потребителя очереди
// событий биллинга и сервис отправки писем.
package notifier

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/config"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/smtp"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/rabbitmq"
	notificationservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/notification"
)

type App struct {
	conn                *amqp.Connection
	ch                  *amqp.Channel
	notificationService *notificationservice.Service
	logger              *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.ConnectionString, cfg.RabbitMQ.ConnectRetries, cfg.RabbitMQ.ConnectDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg, logger)
	notificationService := notificationservice.New(transport, cfg.Notifications.OpsEmail, logger)

	return &App{
		conn:                conn,
		ch:                  ch,
		notificationService: notificationService,
		logger:              logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.payments", a.notificationService.HandlePaymentEvent)
	if err != nil {
		a.logger.Error("failed to start notifications.payments consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("notifier service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
