// Package read реализует HTTP-обработчик чтения одной транзакции.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/middlewarectx"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/response"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики чтения транзакции.
type Service interface {
	Read(ctx context.Context, userID, id string) (*models.Transaction, error)
}

// Handler управляет HTTP-запросами чтения транзакций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить транзакцию
// @Description Возвращает транзакцию текущего пользователя по ID вместе с тегами.
// @Tags Transactions
// @Produce  json
// @Param id path string true "ID транзакции"
// @Success 200 {object} response.Response "Транзакция"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Транзакция не найдена"
// @Router /transactions/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transaction.read"
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

	id := chi.URLParam(r, "id")
	tr, err := h.service.Read(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			log.Error("transaction not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("transaction not found"))
			return
		}
		log.Error("failed to read transaction", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read transaction"))
		return
	}

	render.JSON(w, r, response.OKWithData(tr))
}
