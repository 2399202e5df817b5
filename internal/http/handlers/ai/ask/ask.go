// Package ask реализует HTTP-обработчик вопросов о финансах пользователя.
package ask

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/middlewarectx"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/response"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/services/insight"
)

// Request — тело запроса с вопросом пользователя.
type Request struct {
	Question string `json:"question" validate:"required,max=500"`
}

// Service описывает интерфейс бизнес-логики ответов на вопросы.
type Service interface {
	Ask(ctx context.Context, userID, question string) (*insight.Answer, error)
}

// Handler управляет HTTP-запросами вопросов к ассистенту.
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
// @Summary Задать вопрос о финансах
// @Description Отвечает на вопрос о финансах пользователя по агрегированным данным за распознанный период.
// @Tags AI
// @Accept  json
// @Produce  json
// @Param request body Request true "Вопрос пользователя"
// @Success 200 {object} response.Response "Ответ ассистента"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /ai/ask [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.ask"
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

	answer, err := h.service.Ask(r.Context(), userID, req.Question)
	if err != nil {
		log.Error("failed to answer question", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process question"))
		return
	}

	log.Info("question answered", slog.Int("transaction_count", answer.Count))
	render.JSON(w, r, response.OKWithData(answer))
}
