// Package paymentstatus реализует HTTP-обработчик запроса статуса подписки.
//
// Возвращается уровень доступа текущего пользователя и границы его окон:
// обработчик не обращается к платежному шлюзу и не меняет состояние.
package paymentstatus

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/middlewarectx"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/response"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/services/entitlement"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/storage/repository"
)

// Service описывает интерфейс запроса статуса доступа пользователя.
type Service interface {
	StatusByUserID(ctx context.Context, userID string) (*entitlement.Status, error)
}

// Handler управляет HTTP-запросами статуса подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статус подписки
// @Description Возвращает уровень доступа текущего пользователя и границы пробного и оплаченного окон.
// @Tags Payments
// @Produce  json
// @Success 200 {object} response.Response "Статус доступа"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /payments/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentstatus"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	status, err := h.service.StatusByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Error("user not found", slog.String("user_id", userID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to get entitlement status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.OKWithData(status))
}
