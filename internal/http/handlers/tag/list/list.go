// Package list реализует HTTP-обработчик списка тегов пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/middlewarectx"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/response"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// Service описывает интерфейс бизнес-логики списка тегов.
type Service interface {
	List(ctx context.Context, userID string) ([]*models.Tag, error)
}

// Handler управляет HTTP-запросами списка тегов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список тегов
// @Description Возвращает все теги текущего пользователя.
// @Tags Tags
// @Produce  json
// @Success 200 {object} response.Response "Список тегов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /tags [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tag.list"
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

	tags, err := h.service.List(r.Context(), userID)
	if err != nil {
		log.Error("failed to list tags", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list tags"))
		return
	}

	render.JSON(w, r, response.OKWithData(tags))
}
