package lifecycle

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

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/access"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateUser(ctx context.Context, user models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *RepoMock) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) SetTrialStart(ctx context.Context, id int64, start time.Time) error {
	return m.Called(ctx, id, start).Error(0)
}

func (m *RepoMock) SetBanned(ctx context.Context, id int64, banned bool) error {
	return m.Called(ctx, id, banned).Error(0)
}

func (m *RepoMock) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListSubscriptionsByUser(ctx context.Context, userID int64) ([]models.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func (m *RepoMock) MarkSubscriptionExpired(ctx context.Context, id int) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) DeleteSubscriptionsByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) Ban(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *GatewayMock) Unban(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Notify(msg models.Notification) error {
	return m.Called(msg).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type fixture struct {
	repo     *RepoMock
	gateway  *GatewayMock
	notifier *NotifierMock
	cache    *CacheMock
	svc      *Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     &RepoMock{},
		gateway:  &GatewayMock{},
		notifier: &NotifierMock{},
		cache:    &CacheMock{},
		now:      time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.repo, f.gateway, f.notifier, f.cache,
		access.Evaluator{TrialPeriod: 24 * time.Hour}, NewNoopLogger())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestActivateTrial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.On("GetUser", ctx, int64(42)).
		Return(&models.User{ID: 42}, nil)
	f.repo.On("SetTrialStart", ctx, int64(42), f.now).Return(nil)
	f.cache.On("Invalidate", "access:42").Return(nil)
	f.notifier.On("Notify", mock.MatchedBy(func(msg models.Notification) bool {
		return msg.Kind == models.NotifyTrialActivated && msg.UserID == 42
	})).Return(nil)

	end, err := f.svc.ActivateTrial(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(24*time.Hour), end)

	f.repo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestActivateTrial_AlreadyUsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lapsed := f.now.Add(-48 * time.Hour)
	f.repo.On("GetUser", ctx, int64(42)).
		Return(&models.User{ID: 42, TrialStart: &lapsed}, nil)

	_, err := f.svc.ActivateTrial(ctx, 42)
	require.ErrorIs(t, err, ErrTrialAlreadyUsed)

	f.repo.AssertNotCalled(t, "SetTrialStart", mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything)
}

func TestGrant_GatewayFailureDoesNotUndoGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.On("CreateSubscription", ctx, mock.MatchedBy(func(sub models.Subscription) bool {
		return sub.UserID == 42 &&
			sub.Status == models.SubscriptionActive &&
			sub.EndDate.Equal(f.now.AddDate(0, 0, 30))
	})).Return(1, nil)
	f.repo.On("SetBanned", ctx, int64(42), false).Return(nil)
	f.cache.On("Invalidate", "access:42").Return(nil)
	f.gateway.On("Unban", ctx, int64(42)).Return(errors.New("telegram is down"))
	f.notifier.On("Notify", mock.MatchedBy(func(msg models.Notification) bool {
		return msg.Kind == models.NotifyGranted && msg.Days == 30
	})).Return(nil)

	end, err := f.svc.Grant(ctx, 42, 30)
	require.NoError(t, err)
	assert.Equal(t, f.now.AddDate(0, 0, 30), end)

	f.repo.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestEvaluateAndReconcile_ExpiredSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var calls []string
	record := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) { calls = append(calls, name) }
	}

	f.repo.On("GetUser", ctx, int64(42)).Return(&models.User{ID: 42}, nil)
	f.repo.On("ListSubscriptionsByUser", ctx, int64(42)).Return([]models.Subscription{
		{ID: 7, UserID: 42, EndDate: f.now.Add(-time.Hour), Status: models.SubscriptionActive},
	}, nil)
	f.repo.On("MarkSubscriptionExpired", ctx, 7).
		Run(record("expire")).Return(int64(1), nil)
	f.repo.On("SetBanned", ctx, int64(42), true).
		Run(record("set_banned")).Return(nil)
	f.cache.On("Invalidate", "access:42").Return(nil)
	f.gateway.On("Ban", ctx, int64(42)).
		Run(record("ban")).Return(nil)
	f.notifier.On("Notify", mock.MatchedBy(func(msg models.Notification) bool {
		return msg.Kind == models.NotifyExpired && msg.UserID == 42
	})).Return(nil)

	tier, err := f.svc.EvaluateAndReconcile(ctx, 42)
	require.NoError(t, err)
	assert.False(t, tier.HasAccess())

	// запись в хранилище строго раньше вызова Bot API
	assert.Equal(t, []string{"expire", "set_banned", "ban"}, calls)
	f.repo.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestEvaluateAndReconcile_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trial := f.now.Add(-48 * time.Hour)
	f.repo.On("GetUser", ctx, int64(42)).
		Return(&models.User{ID: 42, TrialStart: &trial, Banned: true}, nil)
	f.repo.On("ListSubscriptionsByUser", ctx, int64(42)).
		Return([]models.Subscription{}, nil)

	tier, err := f.svc.EvaluateAndReconcile(ctx, 42)
	require.NoError(t, err)
	assert.False(t, tier.HasAccess())

	f.repo.AssertNotCalled(t, "SetBanned", mock.Anything, mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "Ban", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything)
}

func TestEvaluateAndReconcile_LapsedTrial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trial := f.now.Add(-25 * time.Hour)
	f.repo.On("GetUser", ctx, int64(42)).
		Return(&models.User{ID: 42, TrialStart: &trial}, nil)
	f.repo.On("ListSubscriptionsByUser", ctx, int64(42)).
		Return([]models.Subscription{}, nil)
	f.repo.On("SetBanned", ctx, int64(42), true).Return(nil)
	f.cache.On("Invalidate", "access:42").Return(nil)
	f.gateway.On("Ban", ctx, int64(42)).Return(nil)
	f.notifier.On("Notify", mock.MatchedBy(func(msg models.Notification) bool {
		return msg.Kind == models.NotifyExpired
	})).Return(nil)

	tier, err := f.svc.EvaluateAndReconcile(ctx, 42)
	require.NoError(t, err)
	assert.False(t, tier.HasAccess())

	f.repo.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
}

func TestEvaluateAndReconcile_ActiveSubscriptionKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.On("GetUser", ctx, int64(42)).Return(&models.User{ID: 42}, nil)
	f.repo.On("ListSubscriptionsByUser", ctx, int64(42)).Return([]models.Subscription{
		{ID: 7, UserID: 42, EndDate: f.now.Add(time.Hour), Status: models.SubscriptionActive},
	}, nil)

	tier, err := f.svc.EvaluateAndReconcile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, access.Subscribed, tier.Kind)

	f.gateway.AssertNotCalled(t, "Ban", mock.Anything, mock.Anything)
}

func TestAdminRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.On("GetUser", ctx, int64(42)).Return(&models.User{ID: 42}, nil)
	f.repo.On("DeleteSubscriptionsByUser", ctx, int64(42)).Return(int64(2), nil)
	f.repo.On("SetBanned", ctx, int64(42), true).Return(nil)
	f.cache.On("Invalidate", "access:42").Return(nil)
	f.gateway.On("Ban", ctx, int64(42)).Return(nil)
	f.notifier.On("Notify", mock.MatchedBy(func(msg models.Notification) bool {
		return msg.Kind == models.NotifyRevoked && msg.UserID == 42
	})).Return(nil)

	err := f.svc.AdminRevoke(ctx, 42)
	require.NoError(t, err)

	f.repo.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestCurrentAccess_CacheMiss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trial := f.now.Add(-time.Hour)
	f.cache.On("Get", "access:42", mock.Anything).Return(false, nil)
	f.repo.On("GetUser", ctx, int64(42)).
		Return(&models.User{ID: 42, TrialStart: &trial}, nil)
	f.repo.On("ListSubscriptionsByUser", ctx, int64(42)).
		Return([]models.Subscription{}, nil)
	f.cache.On("Set", "access:42", mock.Anything, accessCacheTTL).Return(nil)

	tier, err := f.svc.CurrentAccess(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, access.Trial, tier.Kind)
	assert.Equal(t, trial.Add(24*time.Hour), tier.Until)

	f.cache.AssertExpectations(t)
}

func TestCurrentAccess_ReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.cache.On("Get", "access:42", mock.Anything).Return(false, nil)
	f.repo.On("GetUser", ctx, int64(42)).Return(&models.User{ID: 42}, nil)
	f.repo.On("ListSubscriptionsByUser", ctx, int64(42)).Return([]models.Subscription{
		{ID: 7, UserID: 42, EndDate: f.now.Add(-time.Hour), Status: models.SubscriptionActive},
	}, nil)
	f.cache.On("Set", "access:42", mock.Anything, accessCacheTTL).Return(nil)

	tier, err := f.svc.CurrentAccess(ctx, 42)
	require.NoError(t, err)
	assert.False(t, tier.HasAccess())

	// чтение не собирает протухшие записи и не банит
	f.repo.AssertNotCalled(t, "MarkSubscriptionExpired", mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "Ban", mock.Anything, mock.Anything)
}
