// Package repository реализует хранилище данных на основе PostgreSQL:
// пользователи с данными о пробном периоде и Pro-подписке, платежные ордера,
// транзакции и теги. Совместное обновление ордера и пользователя выполняется
// в одной транзакции — это гарантия, на которой держится идемпотентность
// реконсиляции платежей.
package repository

import (
	"context"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"database/sql"
)

// Ошибки уровня хранилища.
var (
	// ErrUserNotFound возвращается, когда пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrOrderNotFound возвращается, когда ордер не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrTransactionNotFound возвращается, когда транзакция не найдена.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTagNotFound возвращается, когда тег не найден.
	ErrTagNotFound = errors.New("tag not found")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table users missing or query error: %w", err)
	}
	return nil
}
