package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// CreateTransaction сохраняет транзакцию и её связи с тегами, возвращает ID.
func (s *Storage) CreateTransaction(ctx context.Context, tr models.Transaction) (string, error) {
	const op = "storage.CreateTransaction"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var newID string
	query := `INSERT INTO transactions (user_id, title, amount, type, notes, date)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	if err = tx.QueryRowContext(ctx, query,
		tr.UserID, tr.Title, tr.Amount, tr.Type, tr.Notes, tr.Date).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	for _, tag := range tr.Tags {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO transaction_tags (transaction_id, tag_id) VALUES ($1, $2)`,
			newID, tag.ID)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetTransaction возвращает транзакцию пользователя вместе с тегами.
func (s *Storage) GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	const op = "storage.GetTransaction"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, title, amount, type, notes, date, created_at
			  FROM transactions
			  WHERE id = $1 AND user_id = $2`
	tr := &models.Transaction{}
	err := s.DB.QueryRowContext(ctx, query, id, userID).Scan(
		&tr.ID, &tr.UserID, &tr.Title, &tr.Amount, &tr.Type, &tr.Notes, &tr.Date, &tr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tr.Tags, err = s.tagsForTransaction(ctx, tr.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tr, nil
}

func (s *Storage) tagsForTransaction(ctx context.Context, transactionID string) ([]models.Tag, error) {
	query := `SELECT t.id, t.user_id, t.name, t.color, t.created_at
			  FROM tags t
			  JOIN transaction_tags tt ON tt.tag_id = t.id
			  WHERE tt.transaction_id = $1
			  ORDER BY t.name`
	rows, err := s.DB.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// ListTransactions возвращает транзакции пользователя по фильтру с пагинацией
// и общее количество подходящих записей.
func (s *Storage) ListTransactions(ctx context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, int, error) {
	const op = "storage.ListTransactions"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := `WHERE tr.user_id = $1`
	args := []any{userID}
	idx := 2
	if filter.Type != "" {
		where += fmt.Sprintf(" AND tr.type = $%d", idx)
		args = append(args, filter.Type)
		idx++
	}
	if filter.StartDate != nil {
		where += fmt.Sprintf(" AND tr.date >= $%d", idx)
		args = append(args, *filter.StartDate)
		idx++
	}
	if filter.EndDate != nil {
		where += fmt.Sprintf(" AND tr.date <= $%d", idx)
		args = append(args, *filter.EndDate)
		idx++
	}
	if filter.TagID != "" {
		where += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM transaction_tags tt WHERE tt.transaction_id = tr.id AND tt.tag_id = $%d)", idx)
		args = append(args, filter.TagID)
		idx++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND tr.title ILIKE $%d", idx)
		args = append(args, "%"+filter.Search+"%")
		idx++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions tr ` + where
	if err := s.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT tr.id, tr.user_id, tr.title, tr.amount, tr.type, tr.notes, tr.date, tr.created_at
			  FROM transactions tr ` + where +
		fmt.Sprintf(` ORDER BY tr.date DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Transaction
	for rows.Next() {
		tr := &models.Transaction{}
		if err := rows.Scan(&tr.ID, &tr.UserID, &tr.Title, &tr.Amount, &tr.Type, &tr.Notes, &tr.Date, &tr.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, tr)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, tr := range result {
		tr.Tags, err = s.tagsForTransaction(ctx, tr.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
	}
	return result, total, nil
}

// UpdateTransaction обновляет транзакцию пользователя и её теги,
// возвращает количество обновленных записей.
func (s *Storage) UpdateTransaction(ctx context.Context, userID string, tr models.Transaction) (int, error) {
	const op = "storage.UpdateTransaction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE transactions
			  SET title = $1, amount = $2, type = $3, notes = $4, date = $5
			  WHERE id = $6 AND user_id = $7`
	res, err := tx.ExecContext(ctx, query, tr.Title, tr.Amount, tr.Type, tr.Notes, tr.Date, tr.ID, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return 0, nil
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM transaction_tags WHERE transaction_id = $1`, tr.ID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	for _, tag := range tr.Tags {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO transaction_tags (transaction_id, tag_id) VALUES ($1, $2)`,
			tr.ID, tag.ID); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}

// RemoveTransaction удаляет транзакцию пользователя,
// возвращает количество удаленных записей.
func (s *Storage) RemoveTransaction(ctx context.Context, userID, id string) (int, error) {
	const op = "storage.RemoveTransaction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}

// SummarizeRange агрегирует транзакции пользователя за период:
// количество, суммы по типам и топ тегов по обороту.
func (s *Storage) SummarizeRange(ctx context.Context, userID string, filter models.SummaryFilter) (*models.TransactionSummary, error) {
	const op = "storage.SummarizeRange"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := `WHERE tr.user_id = $1`
	args := []any{userID}
	idx := 2
	if filter.Type != "" {
		where += fmt.Sprintf(" AND tr.type = $%d", idx)
		args = append(args, filter.Type)
		idx++
	}
	if filter.StartDate != nil {
		where += fmt.Sprintf(" AND tr.date >= $%d", idx)
		args = append(args, *filter.StartDate)
		idx++
	}
	if filter.EndDate != nil {
		where += fmt.Sprintf(" AND tr.date <= $%d", idx)
		args = append(args, *filter.EndDate)
		idx++
	}

	summary := &models.TransactionSummary{}
	query := `SELECT COUNT(*),
			      COALESCE(SUM(tr.amount) FILTER (WHERE tr.type = 'INCOME'), 0),
			      COALESCE(SUM(tr.amount) FILTER (WHERE tr.type = 'EXPENSE'), 0)
			  FROM transactions tr ` + where
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(
		&summary.Count, &summary.TotalIncome, &summary.TotalExpense); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tagQuery := `SELECT t.name, SUM(tr.amount)
			     FROM transactions tr
			     JOIN transaction_tags tt ON tt.transaction_id = tr.id
			     JOIN tags t ON t.id = tt.tag_id ` + where + `
			     GROUP BY t.name
			     ORDER BY SUM(tr.amount) DESC
			     LIMIT 5`
	rows, err := s.DB.QueryContext(ctx, tagQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var tt models.TagTotal
		if err := rows.Scan(&tt.Name, &tt.Total); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		summary.TopTags = append(summary.TopTags, tt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return summary, nil
}
