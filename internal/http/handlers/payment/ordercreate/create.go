// Package ordercreate реализует HTTP-обработчик создания платежного ордера.
//
// Handler принимает JSON-запрос с суммой, извлекает пользователя из контекста,
// создает чекаут-ордер в платежном шлюзе через сервис биллинга и возвращает
// идентификатор ордера с сессией оплаты.
package ordercreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/middlewarectx"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/response"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/services/billing"
)

// Request — тело запроса на создание ордера.
type Request struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}

// Service описывает интерфейс бизнес-логики создания ордера.
type Service interface {
	CreateOrder(ctx context.Context, userID string, amount int) (*models.Order, error)
}

// Handler управляет HTTP-запросами на создание платежных ордеров.
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
// @Summary Создать платежный ордер
// @Description Создает чекаут-ордер в платежном шлюзе для текущего пользователя.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Сумма ордера"
// @Success 200 {object} response.Response "Ордер создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Платежный шлюз недоступен"
// @Router /payments/order [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.ordercreate"
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

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	order, err := h.service.CreateOrder(r.Context(), userID, req.Amount)
	if err != nil {
		if errors.Is(err, billing.ErrGatewayUnavailable) {
			log.Error("payment gateway unavailable", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("payment gateway unavailable"))
			return
		}
		log.Error("failed to create order", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create order"))
		return
	}

	log.Info("order created", slog.String("order_id", order.OrderID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"order_id":           order.OrderID,
		"payment_session_id": order.PaymentSessionID,
		"amount":             order.Amount,
	}))
}
