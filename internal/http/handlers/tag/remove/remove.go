// Package remove реализует HTTP-обработчик удаления тега.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/middlewarectx"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/response"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики удаления тега.
type Service interface {
	Remove(ctx context.Context, userID, id string) (int, error)
}

// Handler управляет HTTP-запросами на удаление тегов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить тег
// @Description Удаляет тег текущего пользователя, связи с транзакциями удаляются каскадно.
// @Tags Tags
// @Produce  json
// @Param id path string true "ID тега"
// @Success 200 {object} response.Response "Тег удален"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Тег не найден"
// @Router /tags/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tag.remove"
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
	affected, err := h.service.Remove(r.Context(), userID, id)
	if err != nil {
		log.Error("failed to remove tag", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove tag"))
		return
	}
	if affected == 0 {
		log.Error("tag not found", slog.String("id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("tag not found"))
		return
	}

	log.Info("tag removed", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted": affected,
	}))
}
