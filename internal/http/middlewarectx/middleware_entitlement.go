package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/response"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// UserProvisioner определяет интерфейс для поиска или создания пользователя
// и вычисления его уровня доступа.
type UserProvisioner interface {
	GetOrCreateUser(ctx context.Context, externalAuthID string) (*models.User, error)
	AccessStatus(user *models.User) models.AccessStatus
}

// UserContextMiddleware создает middleware, которое по внешнему
// идентификатору из токена находит или заводит пользователя (с пробным
// окном при первом контакте) и помещает его ID и уровень доступа в контекст.
func UserContextMiddleware(log *slog.Logger, service UserProvisioner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authID, ok := r.Context().Value(AuthID).(string)
			if !ok || authID == "" {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			user, err := service.GetOrCreateUser(r.Context(), authID)
			if err != nil {
				log.Error("failed to resolve user", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			ctx := context.WithValue(r.Context(), UserID, user.ID)
			ctx = context.WithValue(ctx, Access, service.AccessStatus(user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActiveAccess создает middleware, которое запрещает доступ
// пользователям с истекшим пробным периодом без оплаченной подписки.
// Платежные маршруты этим middleware не закрываются: истекший пользователь
// должен иметь возможность оплатить.
func RequireActiveAccess(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := r.Context().Value(Access).(models.AccessStatus)
			if !ok {
				log.Error("access status missing in context")
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			if access == models.AccessExpired {
				log.Info("access expired, request denied")
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("trial expired, subscription required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
