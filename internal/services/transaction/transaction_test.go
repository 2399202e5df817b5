package transaction

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
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateTransaction(ctx context.Context, tr models.Transaction) (string, error) {
	args := m.Called(ctx, tr)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *RepoMock) ListTransactions(ctx context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, int, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Transaction), args.Int(1), args.Error(2)
}

func (m *RepoMock) UpdateTransaction(ctx context.Context, userID string, tr models.Transaction) (int, error) {
	args := m.Called(ctx, userID, tr)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) RemoveTransaction(ctx context.Context, userID, id string) (int, error) {
	args := m.Called(ctx, userID, id)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCreate(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	service := New(repo, cache, newNoopLogger())

	req := models.DummyTransaction{
		Title:  "groceries",
		Amount: 42.50,
		Type:   models.TransactionTypeExpense,
		Date:   "2026-08-15",
		TagIDs: []string{"tag-1"},
	}
	repo.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tr models.Transaction) bool {
		return tr.UserID == "user-1" &&
			tr.Title == "groceries" &&
			tr.Date.Equal(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)) &&
			len(tr.Tags) == 1 && tr.Tags[0].ID == "tag-1"
	})).Return("tx-1", nil)
	cache.On("Set", "transaction:user-1:tx-1", mock.Anything, 10*time.Minute).Return(nil)

	id, err := service.Create(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", id)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCreate_InvalidDate(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	service := New(repo, cache, newNoopLogger())

	_, err := service.Create(context.Background(), "user-1", models.DummyTransaction{
		Title:  "groceries",
		Amount: 42.50,
		Type:   models.TransactionTypeExpense,
		Date:   "15-08-2026",
	})
	require.Error(t, err)
	repo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestCreate_CacheFailureIsNotFatal(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	service := New(repo, cache, newNoopLogger())

	repo.On("CreateTransaction", mock.Anything, mock.Anything).Return("tx-1", nil)
	cache.On("Set", "transaction:user-1:tx-1", mock.Anything, 10*time.Minute).
		Return(errors.New("redis down"))

	id, err := service.Create(context.Background(), "user-1", models.DummyTransaction{
		Title:  "groceries",
		Amount: 42.50,
		Type:   models.TransactionTypeExpense,
		Date:   "2026-08-15",
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", id)
}

func TestRead_CacheHit(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	service := New(repo, cache, newNoopLogger())

	cache.On("Get", "transaction:user-1:tx-1", mock.Anything).
		Run(func(args mock.Arguments) {
			tr := args.Get(1).(*models.Transaction)
			tr.ID = "tx-1"
			tr.Title = "groceries"
		}).Return(true, nil)

	got, err := service.Read(context.Background(), "user-1", "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "groceries", got.Title)
	repo.AssertNotCalled(t, "GetTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestRead_CacheMiss(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	service := New(repo, cache, newNoopLogger())

	stored := &models.Transaction{ID: "tx-1", UserID: "user-1", Title: "groceries"}
	cache.On("Get", "transaction:user-1:tx-1", mock.Anything).Return(false, nil)
	repo.On("GetTransaction", mock.Anything, "user-1", "tx-1").Return(stored, nil)
	cache.On("Set", "transaction:user-1:tx-1", *stored, 10*time.Minute).Return(nil)

	got, err := service.Read(context.Background(), "user-1", "tx-1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)
	cache.AssertExpectations(t)
}

func TestList_ClampsLimit(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	service := New(repo, cache, newNoopLogger())

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "zero limit gets default", limit: 0, wantLimit: 20},
		{name: "oversized limit gets default", limit: 500, wantLimit: 20},
		{name: "valid limit passes through", limit: 50, wantLimit: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.On("ListTransactions", mock.Anything, "user-1",
				mock.MatchedBy(func(f models.TransactionFilter) bool {
					return f.Limit == tt.wantLimit
				})).Return([]*models.Transaction{}, 0, nil).Once()

			_, _, err := service.List(context.Background(), "user-1",
				models.TransactionFilter{Limit: tt.limit})
			require.NoError(t, err)
		})
	}
	repo.AssertExpectations(t)
}

func TestUpdate_InvalidatesCache(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	service := New(repo, cache, newNoopLogger())

	repo.On("UpdateTransaction", mock.Anything, "user-1", mock.Anything).Return(1, nil)
	cache.On("Invalidate", "transaction:user-1:tx-1").Return(nil)

	affected, err := service.Update(context.Background(), "user-1", "tx-1", models.DummyTransaction{
		Title:  "market",
		Amount: 50,
		Type:   models.TransactionTypeExpense,
		Date:   "2026-08-16",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, affected)
	cache.AssertExpectations(t)
}

func TestRemove_InvalidatesCache(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	service := New(repo, cache, newNoopLogger())

	repo.On("RemoveTransaction", mock.Anything, "user-1", "tx-1").Return(1, nil)
	cache.On("Invalidate", "transaction:user-1:tx-1").Return(nil)

	affected, err := service.Remove(context.Background(), "user-1", "tx-1")
	require.NoError(t, err)
	assert.Equal(t, 1, affected)
	cache.AssertExpectations(t)
}
