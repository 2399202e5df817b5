package entitlement

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
	"github.com/Shivamsinghmer/ExpenseIQ/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUserByAuthID(ctx context.Context, externalAuthID string) (*models.User, error) {
	args := m.Called(ctx, externalAuthID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) CreateUserWithTrial(ctx context.Context, externalAuthID string, trialStart, trialEnd time.Time) (*models.User, error) {
	args := m.Called(ctx, externalAuthID, trialStart, trialEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) BackfillTrial(ctx context.Context, userID string, trialStart, trialEnd time.Time) (bool, error) {
	args := m.Called(ctx, userID, trialStart, trialEnd)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func timePtr(t time.Time) *time.Time { return &t }

func TestAccessStatus(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		user models.User
		want models.AccessStatus
	}{
		{
			name: "pro with active expiry",
			user: models.User{IsPro: true, ProExpiresAt: timePtr(now.AddDate(0, 1, 0))},
			want: models.AccessPro,
		},
		{
			// Флаг is_pro первичен: просроченная дата окончания без
			// снятия флага все еще дает Pro-доступ.
			name: "pro with passed expiry",
			user: models.User{IsPro: true, ProExpiresAt: timePtr(now.AddDate(0, -1, 0))},
			want: models.AccessPro,
		},
		{
			name: "pro without expiry date",
			user: models.User{IsPro: true},
			want: models.AccessPro,
		},
		{
			name: "active trial",
			user: models.User{TrialEndDate: timePtr(now.Add(time.Hour))},
			want: models.AccessTrial,
		},
		{
			name: "trial just expired",
			user: models.User{TrialEndDate: timePtr(now)},
			want: models.AccessExpired,
		},
		{
			name: "trial long expired",
			user: models.User{TrialEndDate: timePtr(now.AddDate(0, 0, -5))},
			want: models.AccessExpired,
		},
		{
			name: "no trial window at all",
			user: models.User{},
			want: models.AccessExpired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AccessStatus(&tt.user, now))
		})
	}
}

func TestGetOrCreateUser_Existing(t *testing.T) {
	repo := new(RepoMock)
	service := New(repo, newNoopLogger())

	user := &models.User{
		ID:           "user-1",
		TrialEndDate: timePtr(time.Now().UTC().Add(time.Hour)),
	}
	repo.On("GetUserByAuthID", mock.Anything, "ext-1").Return(user, nil)

	got, err := service.GetOrCreateUser(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.Equal(t, user, got)
	repo.AssertNotCalled(t, "CreateUserWithTrial", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "BackfillTrial", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrCreateUser_CreatesWithTrial(t *testing.T) {
	repo := new(RepoMock)
	service := New(repo, newNoopLogger())

	created := &models.User{ID: "user-1", ExternalAuthID: "ext-1"}
	repo.On("GetUserByAuthID", mock.Anything, "ext-1").Return(nil, repository.ErrUserNotFound)
	repo.On("CreateUserWithTrial", mock.Anything, "ext-1",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			start := args.Get(2).(time.Time)
			end := args.Get(3).(time.Time)
			assert.Equal(t, TrialDuration, end.Sub(start))
		}).
		Return(created, nil)

	got, err := service.GetOrCreateUser(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.Equal(t, created, got)
	repo.AssertExpectations(t)
}

func TestGetOrCreateUser_BackfillsLegacyRow(t *testing.T) {
	repo := new(RepoMock)
	service := New(repo, newNoopLogger())

	legacy := &models.User{ID: "user-1"}
	filled := &models.User{
		ID:           "user-1",
		TrialEndDate: timePtr(time.Now().UTC().Add(TrialDuration)),
	}
	repo.On("GetUserByAuthID", mock.Anything, "ext-1").Return(legacy, nil)
	repo.On("BackfillTrial", mock.Anything, "user-1",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(true, nil)
	repo.On("GetUser", mock.Anything, "user-1").Return(filled, nil)

	got, err := service.GetOrCreateUser(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.NotNil(t, got.TrialEndDate)
	repo.AssertExpectations(t)
}

func TestGetOrCreateUser_NoBackfillForPro(t *testing.T) {
	repo := new(RepoMock)
	service := New(repo, newNoopLogger())

	pro := &models.User{ID: "user-1", IsPro: true}
	repo.On("GetUserByAuthID", mock.Anything, "ext-1").Return(pro, nil)

	got, err := service.GetOrCreateUser(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.Equal(t, pro, got)
	repo.AssertNotCalled(t, "BackfillTrial", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrCreateUser_BackfillLostRace(t *testing.T) {
	repo := new(RepoMock)
	service := New(repo, newNoopLogger())

	// Условный UPDATE ничего не изменил: окно уже установил конкурентный
	// запрос, возвращается исходная запись без повторного чтения.
	legacy := &models.User{ID: "user-1"}
	repo.On("GetUserByAuthID", mock.Anything, "ext-1").Return(legacy, nil)
	repo.On("BackfillTrial", mock.Anything, "user-1",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(false, nil)

	got, err := service.GetOrCreateUser(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.Equal(t, legacy, got)
	repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestStatusByUserID(t *testing.T) {
	repo := new(RepoMock)
	service := New(repo, newNoopLogger())

	expiry := time.Now().UTC().AddDate(0, 1, 0)
	repo.On("GetUser", mock.Anything, "user-1").
		Return(&models.User{ID: "user-1", IsPro: true, ProExpiresAt: &expiry}, nil)

	status, err := service.StatusByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.AccessPro, status.Access)
	assert.True(t, status.IsPro)
	assert.Equal(t, expiry, *status.ProExpiresAt)
}

func TestDeleteAccount(t *testing.T) {
	repo := new(RepoMock)
	service := New(repo, newNoopLogger())

	repo.On("DeleteUser", mock.Anything, "user-1").Return(nil)

	require.NoError(t, service.DeleteAccount(context.Background(), "user-1"))
	repo.AssertExpectations(t)
}
