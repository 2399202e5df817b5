// Package list реализует HTTP-обработчик списка транзакций с фильтрами
// и пагинацией.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/middlewarectx"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/response"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// Service описывает интерфейс бизнес-логики списка транзакций.
type Service interface {
	List(ctx context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, int, error)
}

// Handler управляет HTTP-запросами списка транзакций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список транзакций
// @Description Возвращает транзакции текущего пользователя по фильтрам с пагинацией.
// @Tags Transactions
// @Produce  json
// @Param type query string false "Тип транзакции: INCOME или EXPENSE"
// @Param start_date query string false "Начало периода в формате 2006-01-02"
// @Param end_date query string false "Конец периода в формате 2006-01-02"
// @Param tag_id query string false "ID тега"
// @Param search query string false "Поиск по названию"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response "Список транзакций"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /transactions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transaction.list"
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

	filter := parseFilter(r)
	transactions, total, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		log.Error("failed to list transactions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list transactions"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"transactions": transactions,
		"total":        total,
	}))
}

func parseFilter(r *http.Request) models.TransactionFilter {
	q := r.URL.Query()
	filter := models.TransactionFilter{
		Type:   q.Get("type"),
		TagID:  q.Get("tag_id"),
		Search: q.Get("search"),
	}
	if v, err := time.Parse("2006-01-02", q.Get("start_date")); err == nil {
		filter.StartDate = &v
	}
	if v, err := time.Parse("2006-01-02", q.Get("end_date")); err == nil {
		filter.EndDate = &v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = v
	}
	return filter
}
