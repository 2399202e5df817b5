package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// CreateTag сохраняет новый тег пользователя и возвращает его ID.
func (s *Storage) CreateTag(ctx context.Context, tag models.Tag) (string, error) {
	const op = "storage.CreateTag"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO tags (user_id, name, color)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query, tag.UserID, tag.Name, tag.Color).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetTag возвращает тег пользователя по ID.
func (s *Storage) GetTag(ctx context.Context, userID, id string) (*models.Tag, error) {
	const op = "storage.GetTag"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, name, color, created_at
			  FROM tags
			  WHERE id = $1 AND user_id = $2`
	t := &models.Tag{}
	err := s.DB.QueryRowContext(ctx, query, id, userID).Scan(
		&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrTagNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// ListTags возвращает все теги пользователя.
func (s *Storage) ListTags(ctx context.Context, userID string) ([]*models.Tag, error) {
	const op = "storage.ListTags"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, name, color, created_at
			  FROM tags
			  WHERE user_id = $1
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Tag
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateTag обновляет имя и цвет тега пользователя,
// возвращает количество обновленных записей.
func (s *Storage) UpdateTag(ctx context.Context, userID string, tag models.Tag) (int, error) {
	const op = "storage.UpdateTag"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE tags SET name = $1, color = $2 WHERE id = $3 AND user_id = $4`
	res, err := s.DB.ExecContext(ctx, query, tag.Name, tag.Color, tag.ID, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}

// RemoveTag удаляет тег пользователя, связи с транзакциями удаляются каскадно.
// Возвращает количество удаленных записей.
func (s *Storage) RemoveTag(ctx context.Context, userID, id string) (int, error) {
	const op = "storage.RemoveTag"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM tags WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}
