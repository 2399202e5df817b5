// Package expenseiq собирает основное HTTP-приложение: хранилище, кеш,
// платежный шлюз, брокер сообщений и все сервисы с маршрутами.
package expenseiq

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/aiprovider"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/cache"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/config"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/jwt"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/migrations"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/paymentgateway"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/rabbitmq"
	billingservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/billing"
	entitlementservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/entitlement"
	insightservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/insight"
	tagservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/tag"
	transactionservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/transaction"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.ConnectionString, cfg.RabbitMQ.ConnectRetries, cfg.RabbitMQ.ConnectDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	gatewayClient := paymentgateway.NewClient(
		cfg.PaymentGateway.AppID,
		cfg.PaymentGateway.SecretKey,
		cfg.PaymentGateway.APIURL,
		cfg.PaymentGateway.WebhookSecret,
	)
	aiClient := aiprovider.NewClient(cfg.AIProvider.AIAPIKey, cfg.AIProvider.AIAPIURL, cfg.AIProvider.AIModel)
	tokenMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	publisher := rabbitmq.NewPublisher(ch)

	billingService := billingservice.New(db, gatewayClient, publisher, logger,
		cfg.PaymentGateway.PriceMonthly, cfg.PaymentGateway.PriceAnnual, cfg.PaymentGateway.NotifyURL)
	entitlementService := entitlementservice.New(db, logger)
	transactionService := transactionservice.New(db, cacheRedis, logger)
	tagService := tagservice.New(db, logger)
	insightService := insightservice.New(db, aiClient, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, tokenMaker, gatewayClient,
		billingService, entitlementService, transactionService, tagService, insightService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if chErr := a.ch.Close(); chErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", chErr))
		}
		if connErr := a.conn.Close(); connErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", connErr))
		}
		a.db.DB.Close()
		return err
	}
}
