package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/paymentgateway"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateOrder(ctx context.Context, order models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *RepoMock) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *RepoMock) MarkOrderTerminal(ctx context.Context, orderID, status string) (bool, error) {
	args := m.Called(ctx, orderID, status)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) ConfirmOrderPaid(ctx context.Context, orderID string, inc models.ProIncrement) (bool, time.Time, error) {
	args := m.Called(ctx, orderID, inc)
	return args.Bool(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *RepoMock) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateCheckoutOrder(ctx context.Context, req paymentgateway.CreateOrderRequest) (*paymentgateway.CreateOrderResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.CreateOrderResponse), args.Error(1)
}

func (m *GatewayMock) LookupPaymentStatus(ctx context.Context, orderID string) (string, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishOrderEvent(event models.OrderEvent) error {
	return m.Called(event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *RepoMock, gateway *GatewayMock, publisher *PublisherMock) *Service {
	return New(repo, gateway, publisher, newNoopLogger(), 50, 500, "http://localhost/webhook")
}

func pendingOrder() *models.Order {
	return &models.Order{
		OrderID: "order_1700000000000_abcd1234_ef567890",
		Amount:  50,
		UserID:  "user-1",
		Status:  models.OrderStatusPending,
	}
}

func TestConfirmPayment_SuccessClaims(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)
	service := newService(repo, new(GatewayMock), publisher)

	order := pendingOrder()
	expiry := time.Now().UTC().AddDate(0, 1, 0)
	repo.On("GetOrder", mock.Anything, order.OrderID).Return(order, nil)
	repo.On("ConfirmOrderPaid", mock.Anything, order.OrderID, models.ProIncrement{Months: 1}).
		Return(true, expiry, nil)
	publisher.On("PublishOrderEvent", mock.MatchedBy(func(e models.OrderEvent) bool {
		return e.Status == models.OrderStatusPaid && e.OrderID == order.OrderID
	})).Return(nil)

	result, err := service.ConfirmPayment(context.Background(), order.OrderID, models.PaymentStatusSuccess)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, models.OrderStatusPaid, result.OrderStatus)
	require.NotNil(t, result.ProExpiresAt)
	assert.Equal(t, expiry, *result.ProExpiresAt)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestConfirmPayment_DuplicateIsNoop(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)
	service := newService(repo, new(GatewayMock), publisher)

	expiry := time.Now().UTC().AddDate(0, 1, 0)
	paid := pendingOrder()
	paid.Status = models.OrderStatusPaid
	repo.On("GetOrder", mock.Anything, paid.OrderID).Return(paid, nil)
	repo.On("GetUser", mock.Anything, paid.UserID).
		Return(&models.User{ID: paid.UserID, IsPro: true, ProExpiresAt: &expiry}, nil)

	result, err := service.ConfirmPayment(context.Background(), paid.OrderID, models.PaymentStatusSuccess)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, models.OrderStatusPaid, result.OrderStatus)
	require.NotNil(t, result.ProExpiresAt)
	assert.Equal(t, expiry, *result.ProExpiresAt)
	repo.AssertNotCalled(t, "ConfirmOrderPaid", mock.Anything, mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishOrderEvent", mock.Anything)
}

func TestConfirmPayment_ConcurrentLoser(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)
	service := newService(repo, new(GatewayMock), publisher)

	order := pendingOrder()
	expiry := time.Now().UTC().AddDate(0, 1, 0)
	paid := *order
	paid.Status = models.OrderStatusPaid

	// Между GetOrder и ConfirmOrderPaid переход выполнил конкурентный вызов.
	repo.On("GetOrder", mock.Anything, order.OrderID).Return(order, nil).Once()
	repo.On("ConfirmOrderPaid", mock.Anything, order.OrderID, models.ProIncrement{Months: 1}).
		Return(false, time.Time{}, nil)
	repo.On("GetOrder", mock.Anything, order.OrderID).Return(&paid, nil).Once()
	repo.On("GetUser", mock.Anything, order.UserID).
		Return(&models.User{ID: order.UserID, IsPro: true, ProExpiresAt: &expiry}, nil)

	result, err := service.ConfirmPayment(context.Background(), order.OrderID, models.PaymentStatusSuccess)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, models.OrderStatusPaid, result.OrderStatus)
	publisher.AssertNotCalled(t, "PublishOrderEvent", mock.Anything)
}

func TestConfirmPayment_FailedMarksTerminal(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)
	service := newService(repo, new(GatewayMock), publisher)

	order := pendingOrder()
	repo.On("GetOrder", mock.Anything, order.OrderID).Return(order, nil)
	repo.On("MarkOrderTerminal", mock.Anything, order.OrderID, models.OrderStatusFailed).Return(true, nil)
	publisher.On("PublishOrderEvent", mock.MatchedBy(func(e models.OrderEvent) bool {
		return e.Status == models.OrderStatusFailed
	})).Return(nil)

	result, err := service.ConfirmPayment(context.Background(), order.OrderID, models.PaymentStatusFailed)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, models.OrderStatusFailed, result.OrderStatus)
	assert.Nil(t, result.ProExpiresAt)
	repo.AssertExpectations(t)
}

func TestConfirmPayment_CancelledMarksTerminal(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)
	service := newService(repo, new(GatewayMock), publisher)

	order := pendingOrder()
	repo.On("GetOrder", mock.Anything, order.OrderID).Return(order, nil)
	repo.On("MarkOrderTerminal", mock.Anything, order.OrderID, models.OrderStatusCancelled).Return(true, nil)
	publisher.On("PublishOrderEvent", mock.Anything).Return(nil)

	result, err := service.ConfirmPayment(context.Background(), order.OrderID, models.PaymentStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, result.OrderStatus)
}

func TestConfirmPayment_UnknownStatusKeepsPending(t *testing.T) {
	repo := new(RepoMock)
	service := newService(repo, new(GatewayMock), new(PublisherMock))

	order := pendingOrder()
	repo.On("GetOrder", mock.Anything, order.OrderID).Return(order, nil)

	result, err := service.ConfirmPayment(context.Background(), order.OrderID, "USER_DROPPED")
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, models.OrderStatusPending, result.OrderStatus)
	repo.AssertNotCalled(t, "MarkOrderTerminal", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "ConfirmOrderPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_OrderNotFound(t *testing.T) {
	repo := new(RepoMock)
	service := newService(repo, new(GatewayMock), new(PublisherMock))

	repo.On("GetOrder", mock.Anything, "missing").Return(nil, repository.ErrOrderNotFound)

	_, err := service.ConfirmPayment(context.Background(), "missing", models.PaymentStatusSuccess)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestDurationFor(t *testing.T) {
	service := newService(new(RepoMock), new(GatewayMock), new(PublisherMock))

	tests := []struct {
		name   string
		amount int
		want   models.ProIncrement
	}{
		{"monthly price", 50, models.ProIncrement{Months: 1}},
		{"annual price", 500, models.ProIncrement{Years: 1}},
		{"unknown amount", 137, models.ProIncrement{Days: 30}},
		{"zero amount", 0, models.ProIncrement{Days: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.durationFor(tt.amount))
		})
	}
}

func TestCreateOrder_InvalidAmount(t *testing.T) {
	service := newService(new(RepoMock), new(GatewayMock), new(PublisherMock))

	_, err := service.CreateOrder(context.Background(), "user-1", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = service.CreateOrder(context.Background(), "user-1", -50)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreateOrder_GatewayError(t *testing.T) {
	repo := new(RepoMock)
	gateway := new(GatewayMock)
	service := newService(repo, gateway, new(PublisherMock))

	repo.On("GetUser", mock.Anything, "user-1").Return(&models.User{ID: "user-1"}, nil)
	gateway.On("CreateCheckoutOrder", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := service.CreateOrder(context.Background(), "user-1", 50)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCreateOrder_Success(t *testing.T) {
	repo := new(RepoMock)
	gateway := new(GatewayMock)
	service := newService(repo, gateway, new(PublisherMock))

	repo.On("GetUser", mock.Anything, "user-1").Return(&models.User{ID: "user-1"}, nil)
	gateway.On("CreateCheckoutOrder", mock.Anything, mock.MatchedBy(func(req paymentgateway.CreateOrderRequest) bool {
		return req.OrderAmount == 50 && req.OrderID != ""
	})).Return(&paymentgateway.CreateOrderResponse{PaymentSessionID: "session-abc"}, nil)
	repo.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderStatusPending && o.PaymentSessionID == "session-abc"
	})).Return(nil)

	order, err := service.CreateOrder(context.Background(), "user-1", 50)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "session-abc", order.PaymentSessionID)
	assert.NotEmpty(t, order.OrderID)
	repo.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestVerifyPayment_TerminalShortCircuit(t *testing.T) {
	repo := new(RepoMock)
	gateway := new(GatewayMock)
	service := newService(repo, gateway, new(PublisherMock))

	paid := pendingOrder()
	paid.Status = models.OrderStatusPaid
	expiry := time.Now().UTC().AddDate(1, 0, 0)
	repo.On("GetOrder", mock.Anything, paid.OrderID).Return(paid, nil)
	repo.On("GetUser", mock.Anything, paid.UserID).
		Return(&models.User{ID: paid.UserID, IsPro: true, ProExpiresAt: &expiry}, nil)

	result, err := service.VerifyPayment(context.Background(), paid.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, result.OrderStatus)
	gateway.AssertNotCalled(t, "LookupPaymentStatus", mock.Anything, mock.Anything)
}

func TestVerifyPayment_GatewayUnavailable(t *testing.T) {
	repo := new(RepoMock)
	gateway := new(GatewayMock)
	service := newService(repo, gateway, new(PublisherMock))

	order := pendingOrder()
	repo.On("GetOrder", mock.Anything, order.OrderID).Return(order, nil)
	gateway.On("LookupPaymentStatus", mock.Anything, order.OrderID).Return("", errors.New("timeout"))

	_, err := service.VerifyPayment(context.Background(), order.OrderID)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestVerifyPayment_MapsPaidToSuccess(t *testing.T) {
	repo := new(RepoMock)
	gateway := new(GatewayMock)
	publisher := new(PublisherMock)
	service := newService(repo, gateway, publisher)

	order := pendingOrder()
	expiry := time.Now().UTC().AddDate(0, 1, 0)
	repo.On("GetOrder", mock.Anything, order.OrderID).Return(order, nil)
	gateway.On("LookupPaymentStatus", mock.Anything, order.OrderID).Return("PAID", nil)
	repo.On("ConfirmOrderPaid", mock.Anything, order.OrderID, models.ProIncrement{Months: 1}).
		Return(true, expiry, nil)
	publisher.On("PublishOrderEvent", mock.Anything).Return(nil)

	result, err := service.VerifyPayment(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, models.OrderStatusPaid, result.OrderStatus)
}

func TestNormalizeGatewayStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PAID", models.PaymentStatusSuccess},
		{"SUCCESS", models.PaymentStatusSuccess},
		{"FAILED", models.PaymentStatusFailed},
		{"CANCELLED", models.PaymentStatusCancelled},
		{"NOT_ATTEMPTED", "NOT_ATTEMPTED"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeGatewayStatus(tt.in))
	}
}
