// Package tag содержит бизнес-логику для управления тегами пользователя.
package tag

import (
	"context"
	"log/slog"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// Repository определяет методы для работы с тегами в хранилище.
type Repository interface {
	// CreateTag сохраняет новый тег и возвращает его ID.
	CreateTag(ctx context.Context, tag models.Tag) (string, error)
	// ListTags возвращает все теги пользователя.
	ListTags(ctx context.Context, userID string) ([]*models.Tag, error)
	// UpdateTag обновляет тег, возвращает число обновленных записей.
	UpdateTag(ctx context.Context, userID string, tag models.Tag) (int, error)
	// RemoveTag удаляет тег, возвращает число удаленных записей.
	RemoveTag(ctx context.Context, userID, id string) (int, error)
}

// Service реализует бизнес-логику работы с тегами.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create сохраняет новый тег пользователя.
func (s *Service) Create(ctx context.Context, userID string, req models.DummyTag) (string, error) {
	return s.repo.CreateTag(ctx, models.Tag{
		UserID: userID,
		Name:   req.Name,
		Color:  req.Color,
	})
}

// List возвращает все теги пользователя.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Tag, error) {
	return s.repo.ListTags(ctx, userID)
}

// Update обновляет имя и цвет тега.
func (s *Service) Update(ctx context.Context, userID, id string, req models.DummyTag) (int, error) {
	return s.repo.UpdateTag(ctx, userID, models.Tag{
		ID:    id,
		Name:  req.Name,
		Color: req.Color,
	})
}

// Remove удаляет тег пользователя.
func (s *Service) Remove(ctx context.Context, userID, id string) (int, error) {
	return s.repo.RemoveTag(ctx, userID, id)
}
