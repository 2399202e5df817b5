package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// CreateOrder сохраняет новый ордер со статусом PENDING.
func (s *Storage) CreateOrder(ctx context.Context, order models.Order) error {
	const op = "storage.CreateOrder"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO orders (order_id, payment_session_id, amount, user_id, status)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query,
		order.OrderID, order.PaymentSessionID, order.Amount, order.UserID, models.OrderStatusPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetOrder возвращает ордер по его внешнему идентификатору.
func (s *Storage) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	const op = "storage.GetOrder"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT order_id, payment_session_id, amount, user_id, status, created_at
			  FROM orders
			  WHERE order_id = $1`
	o := &models.Order{}
	err := s.DB.QueryRowContext(ctx, query, orderID).Scan(
		&o.OrderID, &o.PaymentSessionID, &o.Amount, &o.UserID, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// MarkOrderTerminal переводит ордер из PENDING в терминальный статус без
// изменения пользователя. Условный UPDATE гарантирует, что переход выполнит
// ровно один вызывающий; остальным возвращается claimed == false.
func (s *Storage) MarkOrderTerminal(ctx context.Context, orderID, status string) (bool, error) {
	const op = "storage.MarkOrderTerminal"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE orders SET status = $1 WHERE order_id = $2 AND status = $3`
	res, err := s.DB.ExecContext(ctx, query, status, orderID, models.OrderStatusPending)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}

// NextProExpiry вычисляет новый момент окончания Pro-доступа.
// Активная подписка продлевается от текущего окончания, истекшая или
// отсутствующая — от текущего момента.
func NextProExpiry(now time.Time, isPro bool, proExpiresAt *time.Time, inc models.ProIncrement) time.Time {
	base := now
	if isPro && proExpiresAt != nil && proExpiresAt.After(now) {
		base = *proExpiresAt
	}
	return base.AddDate(inc.Years, inc.Months, inc.Days)
}

// ConfirmOrderPaid подтверждает оплату ордера и продлевает Pro-доступ
// владельца в одной транзакции. Сначала условным UPDATE захватывается
// переход PENDING -> PAID; если ордер уже терминален, транзакция
// откатывается и возвращается claimed == false. Затем строка пользователя
// блокируется FOR UPDATE, и оба изменения фиксируются вместе — либо ни одно.
func (s *Storage) ConfirmOrderPaid(ctx context.Context, orderID string, inc models.ProIncrement) (claimed bool, newExpiry time.Time, err error) {
	const op = "storage.ConfirmOrderPaid"
	select {
	case <-ctx.Done():
		return false, time.Time{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE order_id = $2 AND status = $3`,
		models.OrderStatusPaid, orderID, models.OrderStatusPending)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return false, time.Time{}, nil
	}

	var userID string
	var isPro bool
	var proExpiresAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT u.id, u.is_pro, u.pro_expires_at
		 FROM users u
		 JOIN orders o ON o.user_id = u.id
		 WHERE o.order_id = $1
		 FOR UPDATE OF u`, orderID).Scan(&userID, &isPro, &proExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Ордер не должен переживать своего владельца.
			return false, time.Time{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return false, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	var current *time.Time
	if proExpiresAt.Valid {
		current = &proExpiresAt.Time
	}
	newExpiry = NextProExpiry(now, isPro, current, inc)

	_, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET is_pro = TRUE,
		     pro_expires_at = $1,
		     subscription_start_date = $2,
		     subscription_end_date = $1
		 WHERE id = $3`, newExpiry, now, userID)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return false, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return true, newExpiry, nil
}
