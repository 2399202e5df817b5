// Package expenseiq предоставляет маршруты для основного приложения.
package expenseiq

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	aiask "github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/ai/ask"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/health"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/payment/ordercreate"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/payment/paymentstatus"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/payment/paymentverify"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/payment/paymentwebhook"
	tagcreate "github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/tag/create"
	taglist "github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/tag/list"
	tagremove "github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/tag/remove"
	tagupdate "github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/tag/update"
	trcreate "github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/transaction/create"
	trlist "github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/transaction/list"
	trread "github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/transaction/read"
	trremove "github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/transaction/remove"
	trupdate "github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/transaction/update"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/handlers/user/deleteaccount"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/middlewarectx"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/paymentgateway"
	billingservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/billing"
	entitlementservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/entitlement"
	insightservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/insight"
	tagservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/tag"
	transactionservice "github.com/Shivamsinghmer/ExpenseIQ/internal/services/transaction"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/jwt"
)

// RegisterRoutes регистрирует все маршруты приложения.
//
// Вебхук платежного шлюза открыт: его подлинность проверяется подписью,
// а не токеном. Платежные маршруты закрыты аутентификацией, но не проверкой
// уровня доступа — пользователь с истекшим пробным периодом должен иметь
// возможность оплатить. Остальные функциональные маршруты требуют активного
// доступа.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	tokenMaker jwt.Maker,
	gatewayClient *paymentgateway.Client,
	billingService *billingservice.Service,
	entitlementService *entitlementservice.Service,
	transactionService *transactionservice.Service,
	tagService *tagservice.Service,
	insightService *insightservice.Service,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)

		// Webhook endpoint (без аутентификации, проверяется подписью)
		r.Post("/payments/webhook", paymentwebhook.New(logger, billingService, gatewayClient).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokenMaker, logger))
			r.Use(middlewarectx.UserContextMiddleware(logger, entitlementService))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/payments/order", ordercreate.New(logger, billingService).ServeHTTP)
			r.Post("/payments/verify", paymentverify.New(logger, billingService).ServeHTTP)
			r.Get("/payments/status", paymentstatus.New(logger, entitlementService).ServeHTTP)
			r.Post("/users/delete-account", deleteaccount.New(logger, entitlementService).ServeHTTP)

			// Функциональные маршруты: только при активном доступе
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireActiveAccess(logger))

				r.Post("/transactions", trcreate.New(logger, transactionService).ServeHTTP)
				r.Get("/transactions", trlist.New(logger, transactionService).ServeHTTP)
				r.Get("/transactions/{id}", trread.New(logger, transactionService).ServeHTTP)
				r.Put("/transactions/{id}", trupdate.New(logger, transactionService).ServeHTTP)
				r.Delete("/transactions/{id}", trremove.New(logger, transactionService).ServeHTTP)

				r.Post("/tags", tagcreate.New(logger, tagService).ServeHTTP)
				r.Get("/tags", taglist.New(logger, tagService).ServeHTTP)
				r.Put("/tags/{id}", tagupdate.New(logger, tagService).ServeHTTP)
				r.Delete("/tags/{id}", tagremove.New(logger, tagService).ServeHTTP)

				r.Post("/ai/ask", aiask.New(logger, insightService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
