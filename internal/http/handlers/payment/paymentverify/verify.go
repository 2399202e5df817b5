// Package paymentverify реализует HTTP-обработчик клиентской верификации платежа.
//
// Верификация — второй источник событий о платеже, гоняющийся с вебхуком.
// Обработчик запрашивает статус у шлюза через сервис биллинга и возвращает
// итоговое состояние ордера; повторные вызовы безвредны.
package paymentverify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/response"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/services/billing"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/storage/repository"
)

// Request — тело запроса на верификацию платежа.
type Request struct {
	OrderID string `json:"order_id" validate:"required"`
}

// Service описывает интерфейс верификации платежа.
type Service interface {
	VerifyPayment(ctx context.Context, orderID string) (*billing.Result, error)
}

// Handler управляет HTTP-запросами верификации платежей.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Верифицировать платеж
// @Description Запрашивает статус платежа у шлюза и применяет его к ордеру. Идемпотентен.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор ордера"
// @Success 200 {object} response.Response "Текущее состояние ордера"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Ордер не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Платежный шлюз недоступен"
// @Router /payments/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentverify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	result, err := h.service.VerifyPayment(r.Context(), req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			log.Error("order not found", slog.String("order_id", req.OrderID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
		case errors.Is(err, billing.ErrGatewayUnavailable):
			// Верификация ретраится клиентом, статус ордера не меняется.
			log.Error("payment gateway unavailable", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("payment gateway unavailable, retry later"))
		default:
			log.Error("failed to verify payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal service error"))
		}
		return
	}

	log.Info("payment verified",
		slog.String("order_id", req.OrderID),
		slog.String("order_status", result.OrderStatus))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"order_id":       req.OrderID,
		"order_status":   result.OrderStatus,
		"pro_expires_at": result.ProExpiresAt,
	}))
}
