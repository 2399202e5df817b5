package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

const userColumns = `id, external_auth_id, is_pro, pro_expires_at,
	subscription_start_date, subscription_end_date,
	trial_start_date, trial_end_date, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var proExpiresAt, subStart, subEnd, trialStart, trialEnd sql.NullTime
	if err := row.Scan(&u.ID, &u.ExternalAuthID, &u.IsPro, &proExpiresAt,
		&subStart, &subEnd, &trialStart, &trialEnd, &u.CreatedAt); err != nil {
		return nil, err
	}
	if proExpiresAt.Valid {
		u.ProExpiresAt = &proExpiresAt.Time
	}
	if subStart.Valid {
		u.SubscriptionStartDate = &subStart.Time
	}
	if subEnd.Valid {
		u.SubscriptionEndDate = &subEnd.Time
	}
	if trialStart.Valid {
		u.TrialStartDate = &trialStart.Time
	}
	if trialEnd.Valid {
		u.TrialEndDate = &trialEnd.Time
	}
	return u, nil
}

// GetUser возвращает пользователя по его ID.
func (s *Storage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByAuthID возвращает пользователя по внешнему идентификатору.
func (s *Storage) GetUserByAuthID(ctx context.Context, externalAuthID string) (*models.User, error) {
	const op = "storage.GetUserByAuthID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE external_auth_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, externalAuthID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// CreateUserWithTrial заводит нового пользователя с пробным окном.
// При гонке двух первых запросов одного пользователя вставка уступает
// уже существующей записи и возвращает её.
func (s *Storage) CreateUserWithTrial(ctx context.Context, externalAuthID string, trialStart, trialEnd time.Time) (*models.User, error) {
	const op = "storage.CreateUserWithTrial"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (external_auth_id, is_pro, trial_start_date, trial_end_date)
			  VALUES ($1, FALSE, $2, $3)
			  ON CONFLICT (external_auth_id) DO NOTHING
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, externalAuthID, trialStart, trialEnd))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Запись уже создана конкурентным запросом.
			return s.GetUserByAuthID(ctx, externalAuthID)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// BackfillTrial дозаполняет пробное окно для старых записей без него.
// Условие в запросе делает операцию одноразовой: установленное окно
// больше никогда не сдвигается этим путем.
func (s *Storage) BackfillTrial(ctx context.Context, userID string, trialStart, trialEnd time.Time) (bool, error) {
	const op = "storage.BackfillTrial"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET trial_start_date = $1, trial_end_date = $2
			  WHERE id = $3 AND trial_end_date IS NULL AND is_pro = FALSE`
	res, err := s.DB.ExecContext(ctx, query, trialStart, trialEnd, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}

// DeleteUser удаляет пользователя. Ордера, транзакции и теги
// удаляются каскадно по внешним ключам.
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}
