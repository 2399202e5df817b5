// Package entitlement содержит бизнес-логику доступа пользователя:
// выдачу пробного окна при первом контакте и вычисление уровня доступа
// из сохраненного состояния.
package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// TrialDuration — длина пробного окна, отсчитывается от первого контакта.
const TrialDuration = 48 * time.Hour

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// GetUserByAuthID возвращает пользователя по внешнему идентификатору.
	GetUserByAuthID(ctx context.Context, externalAuthID string) (*models.User, error)
	// CreateUserWithTrial заводит нового пользователя с пробным окном.
	CreateUserWithTrial(ctx context.Context, externalAuthID string, trialStart, trialEnd time.Time) (*models.User, error)
	// BackfillTrial дозаполняет пробное окно для записей без него.
	BackfillTrial(ctx context.Context, userID string, trialStart, trialEnd time.Time) (bool, error)
	// GetUser возвращает пользователя по его ID.
	GetUser(ctx context.Context, userID string) (*models.User, error)
	// DeleteUser удаляет пользователя вместе со всеми его данными.
	DeleteUser(ctx context.Context, userID string) error
}

// Status описывает уровень доступа пользователя и его границы.
type Status struct {
	Access         models.AccessStatus `json:"access_status"`
	IsPro          bool                `json:"is_pro"`
	ProExpiresAt   *time.Time          `json:"pro_expires_at,omitempty"`
	TrialStartDate *time.Time          `json:"trial_start_date,omitempty"`
	TrialEndDate   *time.Time          `json:"trial_end_date,omitempty"`
}

// Service реализует выдачу пробного доступа и вычисление уровня доступа.
type Service struct {
	repo UserRepository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo UserRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetOrCreateUser возвращает пользователя по внешнему идентификатору,
// создавая его с пробным окном при первом контакте. Для старых записей
// без пробного окна оно дозаполняется ровно один раз.
func (s *Service) GetOrCreateUser(ctx context.Context, externalAuthID string) (*models.User, error) {
	user, err := s.repo.GetUserByAuthID(ctx, externalAuthID)
	if err == nil {
		if user.TrialEndDate == nil && !user.IsPro {
			now := time.Now().UTC()
			filled, err := s.repo.BackfillTrial(ctx, user.ID, now, now.Add(TrialDuration))
			if err != nil {
				return nil, err
			}
			if filled {
				return s.repo.GetUser(ctx, user.ID)
			}
		}
		return user, nil
	}

	now := time.Now().UTC()
	return s.repo.CreateUserWithTrial(ctx, externalAuthID, now, now.Add(TrialDuration))
}

// AccessStatus вычисляет уровень доступа из состояния пользователя.
// Оплаченный доступ первичен: пока is_pro установлен, пользователь
// считается Pro независимо от дат. Иначе доступ определяется пробным окном.
func AccessStatus(user *models.User, now time.Time) models.AccessStatus {
	if user.IsPro {
		return models.AccessPro
	}
	if user.TrialEndDate != nil && now.Before(*user.TrialEndDate) {
		return models.AccessTrial
	}
	return models.AccessExpired
}

// AccessStatus вычисляет уровень доступа пользователя на текущий момент.
func (s *Service) AccessStatus(user *models.User) models.AccessStatus {
	return AccessStatus(user, time.Now().UTC())
}

// EntitlementStatus собирает полный ответ о доступе пользователя.
func (s *Service) EntitlementStatus(user *models.User) Status {
	return Status{
		Access:         AccessStatus(user, time.Now().UTC()),
		IsPro:          user.IsPro,
		ProExpiresAt:   user.ProExpiresAt,
		TrialStartDate: user.TrialStartDate,
		TrialEndDate:   user.TrialEndDate,
	}
}

// StatusByUserID возвращает полный ответ о доступе пользователя по его ID.
func (s *Service) StatusByUserID(ctx context.Context, userID string) (*Status, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := s.EntitlementStatus(user)
	return &st, nil
}

// DeleteAccount удаляет пользователя вместе с ордерами, транзакциями и
// тегами: каскад обеспечивают внешние ключи хранилища.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	return s.repo.DeleteUser(ctx, userID)
}
