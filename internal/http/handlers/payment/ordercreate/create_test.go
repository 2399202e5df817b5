package ordercreate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/http/middlewarectx"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/services/billing"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateOrder(ctx context.Context, userID string, amount int) (*models.Order, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestOrderCreateHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		userID         string
		setupMocks     func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "success - order created",
			requestBody: Request{Amount: 50},
			userID:      "user123",
			setupMocks: func(s *MockService) {
				s.On("CreateOrder", mock.Anything, "user123", 50).Return(&models.Order{
					OrderID:          "order_1_user123_abcd1234",
					PaymentSessionID: "session-xyz",
					Amount:           50,
					UserID:           "user123",
					Status:           models.OrderStatusPending,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"order_id":"order_1_user123_abcd1234","payment_session_id":"session-xyz","amount":50}}`,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not a json",
			userID:         "user123",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "missing amount",
			requestBody:    Request{},
			userID:         "user123",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Amount is a required field"}`,
		},
		{
			name:           "negative amount",
			requestBody:    Request{Amount: -5},
			userID:         "user123",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Amount must be greater than 0"}`,
		},
		{
			name:           "missing user id",
			requestBody:    Request{Amount: 50},
			userID:         "",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:        "gateway unavailable",
			requestBody: Request{Amount: 50},
			userID:      "user123",
			setupMocks: func(s *MockService) {
				s.On("CreateOrder", mock.Anything, "user123", 50).
					Return(nil, billing.ErrGatewayUnavailable).Once()
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"status":"Error","error":"payment gateway unavailable"}`,
		},
		{
			name:        "internal error",
			requestBody: Request{Amount: 50},
			userID:      "user123",
			setupMocks: func(s *MockService) {
				s.On("CreateOrder", mock.Anything, "user123", 50).
					Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not create order"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			handler := New(newNoopLogger(), service)

			tt.setupMocks(service)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/order", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			ctx := context.WithValue(req.Context(), middlewarectx.UserID, tt.userID)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())

			service.AssertExpectations(t)
		})
	}
}

func TestOrderCreateHandler_New(t *testing.T) {
	logger := newNoopLogger()
	service := new(MockService)

	handler := New(logger, service)

	assert.NotNil(t, handler)
	assert.Equal(t, logger, handler.log)
	assert.Equal(t, service, handler.service)
	assert.NotNil(t, handler.validate)
}
