// Package sweeper содержит фоновую проверку истечения подписок:
// периодический проход по пользователям, чей доступ мог истечь,
// со сверкой состояния через сервис жизненного цикла.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/access"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/metrics"
)

// Repository определяет выборки кандидатов на сверку.
type Repository interface {
	// ListUserIDsWithActiveSubscriptions возвращает пользователей, у которых
	// есть хотя бы одна запись подписки в статусе active.
	ListUserIDsWithActiveSubscriptions(ctx context.Context) ([]int64, error)
	// ListUserIDsWithLapsedTrial возвращает незабаненных пользователей,
	// чей пробный период начался не позже cutoff.
	ListUserIDsWithLapsedTrial(ctx context.Context, cutoff time.Time) ([]int64, error)
}

// Reconciler сверяет фактический доступ пользователя с историей подписок.
type Reconciler interface {
	EvaluateAndReconcile(ctx context.Context, userID int64) (access.Tier, error)
}

// Service периодически сверяет доступ пользователей.
type Service struct {
	repo        Repository
	reconciler  Reconciler
	interval    time.Duration
	trialPeriod time.Duration
	log         *slog.Logger

	now func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, reconciler Reconciler,
	interval, trialPeriod time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		reconciler:  reconciler,
		interval:    interval,
		trialPeriod: trialPeriod,
		log:         log,
		now:         time.Now,
	}
}

// Run выполняет проход сразу при старте, затем по тикеру до отмены контекста.
func (s *Service) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep один проход: собирает пользователей с активными записями подписок
// и пользователей с истекшим пробным периодом, сверяет каждого. Ошибка
// сверки одного пользователя не прерывает проход.
func (s *Service) Sweep(ctx context.Context) {
	s.log.Debug("starting subscription sweep")

	candidates, err := s.collect(ctx)
	if err != nil {
		s.log.Error("failed to collect sweep candidates", sl.Err(err))
		return
	}

	for _, userID := range candidates {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.reconciler.EvaluateAndReconcile(ctx, userID); err != nil {
			s.log.Error("failed to reconcile user", sl.UserID(userID), sl.Err(err))
		}
	}

	metrics.SweepsTotal.Inc()
	s.log.Debug("finished subscription sweep", slog.Int("candidates", len(candidates)))
}

func (s *Service) collect(ctx context.Context) ([]int64, error) {
	withSubs, err := s.repo.ListUserIDsWithActiveSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	lapsedTrial, err := s.repo.ListUserIDsWithLapsedTrial(ctx, s.now().Add(-s.trialPeriod))
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(withSubs)+len(lapsedTrial))
	result := make([]int64, 0, len(withSubs)+len(lapsedTrial))
	for _, id := range withSubs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	for _, id := range lapsedTrial {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	return result, nil
}
