// Package models содержит доменные структуры приложения: пользователя с
// данными о пробном периоде и Pro-подписке, платежный ордер, транзакции и теги,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Статусы платежного ордера. Статус терминален: покинув PENDING,
// ордер больше никогда не меняется.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusFailed    = "FAILED"
	OrderStatusCancelled = "CANCELLED"
)

// Статусы платежа, приходящие от платежного шлюза.
const (
	PaymentStatusSuccess   = "SUCCESS"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusCancelled = "CANCELLED"
)

// AccessStatus — уровень доступа пользователя, вычисляемый из его состояния.
type AccessStatus string

// Возможные уровни доступа.
const (
	AccessPro     AccessStatus = "pro"
	AccessTrial   AccessStatus = "trial"
	AccessExpired AccessStatus = "expired"
)

// Типы транзакций.
const (
	TransactionTypeIncome  = "INCOME"
	TransactionTypeExpense = "EXPENSE"
)

// User представляет пользователя приложения. Идентификация делегирована
// внешнему провайдеру: ExternalAuthID — это subject из его токена,
// уникален и неизменен после установки.
type User struct {
	ID                    string
	ExternalAuthID        string
	IsPro                 bool       // true, если доступ оплачен подтвержденным платежом
	ProExpiresAt          *time.Time // момент окончания Pro-доступа
	SubscriptionStartDate *time.Time // окно активации последнего подтвержденного платежа
	SubscriptionEndDate   *time.Time
	TrialStartDate        *time.Time
	TrialEndDate          *time.Time
	CreatedAt             time.Time
}

// Order представляет платежный ордер, созданный в платежном шлюзе.
// Хранится бессрочно как аудиторский след и удаляется только каскадно
// вместе с владельцем.
type Order struct {
	OrderID          string // внешний корреляционный идентификатор, выдается нами
	PaymentSessionID string // сессия чекаута, выдается шлюзом
	Amount           int
	UserID           string
	Status           string
	CreatedAt        time.Time
}

// ProIncrement описывает прибавку к окну Pro-доступа,
// соответствующую оплаченному тарифу.
type ProIncrement struct {
	Years  int
	Months int
	Days   int
}

// OrderEvent — событие о терминальном переходе ордера,
// публикуемое в очередь уведомлений.
type OrderEvent struct {
	OrderID      string     `json:"order_id"`
	UserID       string     `json:"user_id"`
	Amount       int        `json:"amount"`
	Status       string     `json:"status"`
	ProExpiresAt *time.Time `json:"pro_expires_at,omitempty"`
}

// Transaction представляет запись о доходе или расходе пользователя.
type Transaction struct {
	ID        string
	UserID    string
	Title     string
	Amount    float64
	Type      string // INCOME или EXPENSE
	Notes     string
	Date      time.Time
	Tags      []Tag
	CreatedAt time.Time
}

// Tag представляет метку для категоризации транзакций.
type Tag struct {
	ID        string
	UserID    string
	Name      string
	Color     string // hex-цвет вида #RRGGBB
	CreatedAt time.Time
}

// DummyTransaction используется для приёма данных транзакции из JSON-запроса,
// прежде чем конвертировать их в Transaction. Дата приходит строкой,
// чтобы её можно было валидировать и парсить вручную.
type DummyTransaction struct {
	Title  string   `json:"title" validate:"required,max=100"`
	Amount float64  `json:"amount" validate:"required,gt=0"`
	Type   string   `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Notes  string   `json:"notes" validate:"max=500"`
	Date   string   `json:"date" validate:"required"` // формат 2006-01-02
	TagIDs []string `json:"tag_ids"`
}

// DummyTag используется для приёма данных тега из JSON-запроса.
type DummyTag struct {
	Name  string `json:"name" validate:"required,max=30"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// TransactionFilter описывает фильтры списка транзакций.
type TransactionFilter struct {
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
	TagID     string
	Search    string
	Limit     int
	Offset    int
}

// SummaryFilter описывает период и тип для агрегации транзакций.
type SummaryFilter struct {
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
}

// TagTotal — суммарный оборот по одному тегу.
type TagTotal struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// TransactionSummary — предагрегированные данные по транзакциям за период,
// передаются языковой модели вместо сырых записей.
type TransactionSummary struct {
	Count        int        `json:"count"`
	TotalIncome  float64    `json:"total_income"`
	TotalExpense float64    `json:"total_expense"`
	TopTags      []TagTotal `json:"top_tags"`
}
