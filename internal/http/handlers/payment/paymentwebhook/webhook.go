// Package paymentwebhook реализует HTTP-обработчик вебхука платежного шлюза.
//
// Вебхук — один из двух гоняющихся источников событий о платеже. Обработчик
// проверяет подпись доставки, извлекает идентификатор ордера и статус платежа
// и передает их в машину реконсиляции. Искаженные и неизвестные доставки
// подтверждаются кодом 200, чтобы шлюз не ретраил их бесконечно; отклоняются
// только доставки с неверной подписью.
package paymentwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/response"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/metrics"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/services/billing"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/storage/repository"
)

// Service описывает интерфейс реконсиляции платежа.
type Service interface {
	ConfirmPayment(ctx context.Context, orderID, paymentStatus string) (*billing.Result, error)
}

// SignatureVerifier проверяет подпись доставки вебхука.
type SignatureVerifier interface {
	VerifyWebhookSignature(timestamp string, body []byte, signature string) bool
}

// Payload — тело доставки вебхука платежного шлюза.
type Payload struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			PaymentStatus string `json:"payment_status"`
		} `json:"payment"`
	} `json:"data"`
}

// Handler управляет HTTP-запросами вебхука платежного шлюза.
type Handler struct {
	log      *slog.Logger
	service  Service
	verifier SignatureVerifier
}

// New создает новый Handler с переданными логгером, сервисом и верификатором подписи.
func New(log *slog.Logger, service Service, verifier SignatureVerifier) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		verifier: verifier,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платежного шлюза
// @Description Принимает уведомление шлюза о платеже и прогоняет его через реконсиляцию. Идемпотентен.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Success 200 {object} map[string]string "Доставка принята"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentwebhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		render.JSON(w, r, map[string]string{"status": "received", "message": "ignored_unreadable"})
		return
	}

	timestamp := r.Header.Get("x-webhook-timestamp")
	signature := r.Header.Get("x-webhook-signature")
	if !h.verifier.VerifyWebhookSignature(timestamp, body, signature) {
		log.Error("webhook signature verification failed")
		metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil || payload.Data.Order.OrderID == "" {
		log.Info("ignoring malformed webhook payload")
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		render.JSON(w, r, map[string]string{"status": "received", "message": "ignored_malformed"})
		return
	}

	result, err := h.service.ConfirmPayment(r.Context(),
		payload.Data.Order.OrderID, payload.Data.Payment.PaymentStatus)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			log.Info("ignoring webhook for unknown order",
				slog.String("order_id", payload.Data.Order.OrderID))
			metrics.WebhookEvents.WithLabelValues("ignored").Inc()
			render.JSON(w, r, map[string]string{"status": "received", "message": "ignored_unknown_order"})
			return
		}
		log.Error("failed to confirm payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("webhook processed",
		slog.String("order_id", payload.Data.Order.OrderID),
		slog.String("order_status", result.OrderStatus),
		slog.Bool("applied", result.Applied))
	metrics.WebhookEvents.WithLabelValues("processed").Inc()
	render.JSON(w, r, map[string]string{"status": "received"})
}
