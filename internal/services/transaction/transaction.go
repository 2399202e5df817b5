// Package transaction содержит бизнес-логику для управления транзакциями
// пользователя и их кеширования.
package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// Repository определяет методы для работы с транзакциями в хранилище.
type Repository interface {
	// CreateTransaction сохраняет транзакцию и возвращает её ID.
	CreateTransaction(ctx context.Context, tr models.Transaction) (string, error)
	// GetTransaction возвращает транзакцию пользователя вместе с тегами.
	GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error)
	// ListTransactions возвращает транзакции по фильтру и их общее количество.
	ListTransactions(ctx context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, int, error)
	// UpdateTransaction обновляет транзакцию, возвращает число обновленных записей.
	UpdateTransaction(ctx context.Context, userID string, tr models.Transaction) (int, error)
	// RemoveTransaction удаляет транзакцию, возвращает число удаленных записей.
	RemoveTransaction(ctx context.Context, userID, id string) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует бизнес-логику работы с транзакциями, включая кеширование.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

func cacheKey(userID, id string) string {
	return fmt.Sprintf("transaction:%s:%s", userID, id)
}

// Create валидирует дату, сохраняет транзакцию и кеширует её.
func (s *Service) Create(ctx context.Context, userID string, req models.DummyTransaction) (string, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return "", fmt.Errorf("invalid date: %w", err)
	}

	tags := make([]models.Tag, 0, len(req.TagIDs))
	for _, tagID := range req.TagIDs {
		tags = append(tags, models.Tag{ID: tagID})
	}
	tr := models.Transaction{
		UserID: userID,
		Title:  req.Title,
		Amount: req.Amount,
		Type:   req.Type,
		Notes:  req.Notes,
		Date:   date,
		Tags:   tags,
	}

	id, err := s.repo.CreateTransaction(ctx, tr)
	if err != nil {
		return "", err
	}

	tr.ID = id
	if err := s.cache.Set(cacheKey(userID, id), tr, 10*time.Minute); err != nil {
		s.log.Warn("failed to cache transaction", sl.Err(err))
	}
	return id, nil
}

// Read возвращает транзакцию, сперва пробуя кеш.
func (s *Service) Read(ctx context.Context, userID, id string) (*models.Transaction, error) {
	var cached models.Transaction
	found, err := s.cache.Get(cacheKey(userID, id), &cached)
	if err != nil {
		s.log.Warn("failed to read transaction from cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	tr, err := s.repo.GetTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey(userID, id), *tr, 10*time.Minute); err != nil {
		s.log.Warn("failed to cache transaction", sl.Err(err))
	}
	return tr, nil
}

// List возвращает транзакции по фильтру и их общее количество.
func (s *Service) List(ctx context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, filter)
}

// Update валидирует дату, обновляет транзакцию и сбрасывает кеш.
func (s *Service) Update(ctx context.Context, userID, id string, req models.DummyTransaction) (int, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return 0, fmt.Errorf("invalid date: %w", err)
	}

	tags := make([]models.Tag, 0, len(req.TagIDs))
	for _, tagID := range req.TagIDs {
		tags = append(tags, models.Tag{ID: tagID})
	}
	tr := models.Transaction{
		ID:     id,
		UserID: userID,
		Title:  req.Title,
		Amount: req.Amount,
		Type:   req.Type,
		Notes:  req.Notes,
		Date:   date,
		Tags:   tags,
	}

	affected, err := s.repo.UpdateTransaction(ctx, userID, tr)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Invalidate(cacheKey(userID, id)); err != nil {
		s.log.Warn("failed to invalidate transaction cache", sl.Err(err))
	}
	return affected, nil
}

// Remove удаляет транзакцию и сбрасывает кеш.
func (s *Service) Remove(ctx context.Context, userID, id string) (int, error) {
	affected, err := s.repo.RemoveTransaction(ctx, userID, id)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Invalidate(cacheKey(userID, id)); err != nil {
		s.log.Warn("failed to invalidate transaction cache", sl.Err(err))
	}
	return affected, nil
}
