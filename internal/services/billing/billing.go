// Package billing содержит бизнес-логику платежной подсистемы: создание
// ордеров в платежном шлюзе и реконсиляцию их статусов. Реконсиляция
// получает события из двух гоняющихся источников — вебхука шлюза и
// клиентской верификации — и обязана быть идемпотентной: первый наблюдатель
// выполняет переход, остальные получают текущее состояние без побочных
// эффектов.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/metrics"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/orderid"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/lib/sl"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/paymentgateway"
)

// OrderRepository определяет методы для работы с ордерами в хранилище.
type OrderRepository interface {
	// CreateOrder сохраняет новый ордер со статусом PENDING.
	CreateOrder(ctx context.Context, order models.Order) error
	// GetOrder возвращает ордер по его внешнему идентификатору.
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	// MarkOrderTerminal переводит ордер из PENDING в терминальный статус,
	// claimed сообщает, выполнил ли переход этот вызов.
	MarkOrderTerminal(ctx context.Context, orderID, status string) (bool, error)
	// ConfirmOrderPaid подтверждает оплату и продлевает Pro-доступ владельца
	// в одной транзакции.
	ConfirmOrderPaid(ctx context.Context, orderID string, inc models.ProIncrement) (bool, time.Time, error)
	// GetUser возвращает пользователя по его ID.
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// GatewayClient определяет методы клиента платежного шлюза.
type GatewayClient interface {
	CreateCheckoutOrder(ctx context.Context, req paymentgateway.CreateOrderRequest) (*paymentgateway.CreateOrderResponse, error)
	LookupPaymentStatus(ctx context.Context, orderID string) (string, error)
}

// EventPublisher публикует события терминальных переходов ордеров.
type EventPublisher interface {
	PublishOrderEvent(event models.OrderEvent) error
}

// Ошибки уровня сервиса.
var (
	// ErrInvalidAmount возвращается при неположительной сумме ордера.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrGatewayUnavailable возвращается при транспортной ошибке шлюза.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// Result описывает итог одного вызова реконсиляции.
type Result struct {
	OrderStatus  string
	ProExpiresAt *time.Time
	Applied      bool // true, если именно этот вызов выполнил переход
}

// Service реализует создание ордеров и реконсиляцию платежей.
type Service struct {
	repo      OrderRepository
	gateway   GatewayClient
	publisher EventPublisher
	log       *slog.Logger

	priceMonthly int
	priceAnnual  int
	notifyURL    string
}

// New создает новый экземпляр Service.
func New(repo OrderRepository, gateway GatewayClient, publisher EventPublisher, log *slog.Logger, priceMonthly, priceAnnual int, notifyURL string) *Service {
	return &Service{
		repo:         repo,
		gateway:      gateway,
		publisher:    publisher,
		log:          log,
		priceMonthly: priceMonthly,
		priceAnnual:  priceAnnual,
		notifyURL:    notifyURL,
	}
}

// CreateOrder создает чекаут-ордер в платежном шлюзе и сохраняет его
// со статусом PENDING. Идентификатор ордера генерируется на нашей стороне
// и служит корреляционным ключом между вебхуком и верификацией.
func (s *Service) CreateOrder(ctx context.Context, userID string, amount int) (*models.Order, error) {
	const op = "services.billing.CreateOrder"

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orderID := orderid.New(user.ID)
	gwResp, err := s.gateway.CreateCheckoutOrder(ctx, paymentgateway.CreateOrderRequest{
		OrderID:       orderID,
		OrderAmount:   float64(amount),
		OrderCurrency: "INR",
		CustomerInfo: paymentgateway.CustomerInfo{
			CustomerID:    user.ID,
			CustomerPhone: "9999999999",
		},
		OrderMeta: paymentgateway.OrderMetaInfo{
			NotifyURL: s.notifyURL,
		},
	})
	if err != nil {
		s.log.Error("failed to create checkout order", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, ErrGatewayUnavailable)
	}

	order := models.Order{
		OrderID:          orderID,
		PaymentSessionID: gwResp.PaymentSessionID,
		Amount:           amount,
		UserID:           user.ID,
		Status:           models.OrderStatusPending,
	}
	if err = s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &order, nil
}

// ConfirmPayment — ядро реконсиляции. Принимает статус платежа из любого
// источника и переводит ордер в терминальное состояние ровно один раз.
// Повторные и конкурентные вызовы безвредны: если ордер уже терминален,
// возвращается его текущее состояние.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, paymentStatus string) (*Result, error) {
	const op = "services.billing.ConfirmPayment"

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if order.Status != models.OrderStatusPending {
		metrics.PaymentConfirmations.WithLabelValues("duplicate").Inc()
		return s.currentState(ctx, order)
	}

	switch paymentStatus {
	case models.PaymentStatusSuccess:
		inc := s.durationFor(order.Amount)
		claimed, newExpiry, err := s.repo.ConfirmOrderPaid(ctx, orderID, inc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !claimed {
			// Переход выполнил конкурентный вызов.
			metrics.PaymentConfirmations.WithLabelValues("duplicate").Inc()
			order, err = s.repo.GetOrder(ctx, orderID)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			return s.currentState(ctx, order)
		}
		metrics.PaymentConfirmations.WithLabelValues("confirmed").Inc()
		s.publishEvent(models.OrderEvent{
			OrderID:      orderID,
			UserID:       order.UserID,
			Amount:       order.Amount,
			Status:       models.OrderStatusPaid,
			ProExpiresAt: &newExpiry,
		})
		return &Result{OrderStatus: models.OrderStatusPaid, ProExpiresAt: &newExpiry, Applied: true}, nil

	case models.PaymentStatusFailed, models.PaymentStatusCancelled:
		orderStatus := models.OrderStatusFailed
		resultLabel := "failed"
		if paymentStatus == models.PaymentStatusCancelled {
			orderStatus = models.OrderStatusCancelled
			resultLabel = "cancelled"
		}
		claimed, err := s.repo.MarkOrderTerminal(ctx, orderID, orderStatus)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !claimed {
			metrics.PaymentConfirmations.WithLabelValues("duplicate").Inc()
			order, err = s.repo.GetOrder(ctx, orderID)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			return s.currentState(ctx, order)
		}
		metrics.PaymentConfirmations.WithLabelValues(resultLabel).Inc()
		s.publishEvent(models.OrderEvent{
			OrderID: orderID,
			UserID:  order.UserID,
			Amount:  order.Amount,
			Status:  orderStatus,
		})
		return &Result{OrderStatus: orderStatus, Applied: true}, nil

	default:
		// Промежуточные статусы шлюза (USER_DROPPED, NOT_ATTEMPTED и т.п.)
		// не меняют состояние: ордер остается PENDING до терминального события.
		metrics.PaymentConfirmations.WithLabelValues("noop").Inc()
		return &Result{OrderStatus: models.OrderStatusPending}, nil
	}
}

// VerifyPayment запрашивает статус платежа у шлюза и прогоняет его через
// ту же машину реконсиляции, что и вебхук.
func (s *Service) VerifyPayment(ctx context.Context, orderID string) (*Result, error) {
	const op = "services.billing.VerifyPayment"

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.Status != models.OrderStatusPending {
		return s.currentState(ctx, order)
	}

	gatewayStatus, err := s.gateway.LookupPaymentStatus(ctx, orderID)
	if err != nil {
		s.log.Error("failed to lookup payment status", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, ErrGatewayUnavailable)
	}

	return s.ConfirmPayment(ctx, orderID, normalizeGatewayStatus(gatewayStatus))
}

// durationFor отображает сумму ордера на прибавку к Pro-доступу.
// Неизвестная сумма трактуется как 30 дней.
func (s *Service) durationFor(amount int) models.ProIncrement {
	switch amount {
	case s.priceMonthly:
		return models.ProIncrement{Months: 1}
	case s.priceAnnual:
		return models.ProIncrement{Years: 1}
	default:
		return models.ProIncrement{Days: 30}
	}
}

// currentState собирает Result из сохраненного состояния ордера и владельца.
func (s *Service) currentState(ctx context.Context, order *models.Order) (*Result, error) {
	res := &Result{OrderStatus: order.Status}
	if order.Status == models.OrderStatusPaid {
		user, err := s.repo.GetUser(ctx, order.UserID)
		if err != nil {
			return nil, err
		}
		res.ProExpiresAt = user.ProExpiresAt
	}
	return res, nil
}

func (s *Service) publishEvent(event models.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(event); err != nil {
		// Доставка уведомления не участвует в транзакции платежа.
		s.log.Error("failed to publish order event", sl.Err(err))
	}
}

// normalizeGatewayStatus приводит статусы шлюза к внутренним статусам платежа.
func normalizeGatewayStatus(gatewayStatus string) string {
	switch gatewayStatus {
	case "PAID", "SUCCESS":
		return models.PaymentStatusSuccess
	case "FAILED":
		return models.PaymentStatusFailed
	case "CANCELLED":
		return models.PaymentStatusCancelled
	default:
		return gatewayStatus
	}
}
