// Package lifecycle содержит бизнес-логику жизненного цикла доступа
// к закрытому каналу: регистрация, пробный период, выдача и отзыв подписки,
// сверка фактического доступа с историей подписок.
//
// Порядок операций фиксирован: сначала запись в хранилище, затем вызов
// Bot API. Сбой на полпути оставляет пользователя с доступом не шире,
// чем записано в базе, и следующий проход сверки закрывает расхождение.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/access"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/userlock"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/metrics"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/models"
)

// ErrTrialAlreadyUsed пробный период выдается один раз за всю жизнь
// пользователя, повторная активация невозможна.
var ErrTrialAlreadyUsed = errors.New("trial already used")

// Repository определяет методы хранилища, нужные жизненному циклу доступа.
type Repository interface {
	// CreateUser сохраняет пользователя при первом обращении.
	CreateUser(ctx context.Context, user models.User) error
	// GetUser возвращает пользователя по идентификатору.
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// SetTrialStart выставляет начало пробного периода и снимает бан.
	SetTrialStart(ctx context.Context, id int64, start time.Time) error
	// SetBanned обновляет признак бана пользователя.
	SetBanned(ctx context.Context, id int64, banned bool) error
	// ListUsers возвращает всех пользователей, новые первыми.
	ListUsers(ctx context.Context) ([]models.User, error)
	// CreateSubscription добавляет новую запись подписки и возвращает её ID.
	CreateSubscription(ctx context.Context, sub models.Subscription) (int, error)
	// ListSubscriptionsByUser возвращает всю историю подписок пользователя.
	ListSubscriptionsByUser(ctx context.Context, userID int64) ([]models.Subscription, error)
	// MarkSubscriptionExpired переводит запись подписки в статус expired.
	MarkSubscriptionExpired(ctx context.Context, id int) (int64, error)
	// DeleteSubscriptionsByUser удаляет все записи подписок пользователя.
	DeleteSubscriptionsByUser(ctx context.Context, userID int64) (int64, error)
}

// Gateway управляет членством пользователя в закрытом канале.
// Вызовы шлюза выполняются после записи в хранилище и не откатывают её:
// ошибка логируется, расхождение устраняет следующая сверка.
type Gateway interface {
	Ban(ctx context.Context, userID int64) error
	Unban(ctx context.Context, userID int64) error
}

// Notifier публикует уведомления о смене состояния доступа.
type Notifier interface {
	Notify(msg models.Notification) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// accessCacheTTL время жизни кешированного уровня доступа. Короткое:
// любое изменение состояния и так инвалидирует ключ.
const accessCacheTTL = time.Minute

// Service реализует операции жизненного цикла доступа. Операции над одним
// пользователем сериализуются таблицей блокировок.
type Service struct {
	repo     Repository
	gateway  Gateway
	notifier Notifier
	cache    Cache
	locks    *userlock.Table
	eval     access.Evaluator
	log      *slog.Logger

	now func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, gateway Gateway, notifier Notifier, cache Cache,
	eval access.Evaluator, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		cache:    cache,
		locks:    userlock.NewTable(),
		eval:     eval,
		log:      log,
		now:      time.Now,
	}
}

// UserOverview запись административного списка пользователей:
// данные пользователя вместе с вычисленным уровнем доступа.
type UserOverview struct {
	User models.User `json:"user"`
	Tier access.Tier `json:"tier"`
}

func accessCacheKey(userID int64) string {
	return fmt.Sprintf("access:%d", userID)
}

// Register сохраняет пользователя при первом обращении. Повторная
// регистрация существующего пользователя безвредна.
func (s *Service) Register(ctx context.Context, id int64, username, fullName string) error {
	err := s.repo.CreateUser(ctx, models.User{
		ID:       id,
		Username: username,
		FullName: fullName,
	})
	if err != nil {
		return err
	}
	s.log.Info("registered user", sl.UserID(id))
	return nil
}

// ActivateTrial активирует пробный период и возвращает момент его окончания.
// Пробный период выдается один раз: если он уже был активирован, даже
// истекший, возвращается ErrTrialAlreadyUsed.
func (s *Service) ActivateTrial(ctx context.Context, id int64) (time.Time, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	if user.TrialStart != nil {
		return time.Time{}, ErrTrialAlreadyUsed
	}

	start := s.now()
	if err := s.repo.SetTrialStart(ctx, id, start); err != nil {
		return time.Time{}, err
	}
	s.invalidateAccess(id)

	end := start.Add(s.eval.TrialPeriod)
	s.log.Info("activated trial", sl.UserID(id), slog.Time("until", end))

	s.publish(models.Notification{
		Kind:    models.NotifyTrialActivated,
		UserID:  id,
		EndDate: end,
	})
	return end, nil
}

// Grant выдает пользователю подписку на указанное число дней и возвращает
// дату её окончания. Запись подписки добавляется в историю, прежние записи
// не изменяются. Разбан в канале выполняется после записи: его ошибка
// не отменяет выдачу.
func (s *Service) Grant(ctx context.Context, id int64, days int) (time.Time, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	start := s.now()
	end := start.AddDate(0, 0, days)

	_, err := s.repo.CreateSubscription(ctx, models.Subscription{
		UserID:    id,
		StartDate: start,
		EndDate:   end,
		Status:    models.SubscriptionActive,
	})
	if err != nil {
		return time.Time{}, err
	}
	if err := s.repo.SetBanned(ctx, id, false); err != nil {
		return time.Time{}, err
	}
	s.invalidateAccess(id)

	if err := s.gateway.Unban(ctx, id); err != nil {
		metrics.GatewayErrorsTotal.WithLabelValues("unban").Inc()
		s.log.Error("failed to unban user, access recorded anyway", sl.UserID(id), sl.Err(err))
	}

	s.log.Info("granted subscription", sl.UserID(id), slog.Int("days", days), slog.Time("until", end))

	s.publish(models.Notification{
		Kind:    models.NotifyGranted,
		UserID:  id,
		EndDate: end,
		Days:    days,
	})
	return end, nil
}

// EvaluateAndReconcile вычисляет уровень доступа пользователя и приводит
// состояние в соответствие: протухшие записи подписок помечаются expired,
// пользователь без действующего доступа банится в канале. Операция
// идемпотентна, повторный вызов для уже забаненного пользователя ничего
// не меняет.
func (s *Service) EvaluateAndReconcile(ctx context.Context, id int64) (access.Tier, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return access.Tier{}, err
	}
	subs, err := s.repo.ListSubscriptionsByUser(ctx, id)
	if err != nil {
		return access.Tier{}, err
	}

	now := s.now()
	tier, stale := s.eval.Evaluate(*user, subs, now)

	for _, subID := range stale {
		if _, err := s.repo.MarkSubscriptionExpired(ctx, subID); err != nil {
			return access.Tier{}, err
		}
	}

	lost := !tier.HasAccess() && !user.Banned &&
		(len(stale) > 0 || s.eval.TrialLapsed(*user, now))
	if !lost {
		metrics.ReconciliationsTotal.WithLabelValues("unchanged").Inc()
		return tier, nil
	}

	if err := s.repo.SetBanned(ctx, id, true); err != nil {
		return access.Tier{}, err
	}
	s.invalidateAccess(id)

	if err := s.gateway.Ban(ctx, id); err != nil {
		metrics.GatewayErrorsTotal.WithLabelValues("ban").Inc()
		s.log.Error("failed to ban user, will retry on next sweep", sl.UserID(id), sl.Err(err))
	}

	metrics.ReconciliationsTotal.WithLabelValues("revoked").Inc()
	s.log.Info("subscription expired, access closed", sl.UserID(id))

	s.publish(models.Notification{
		Kind:   models.NotifyExpired,
		UserID: id,
	})
	return tier, nil
}

// AdminRevoke отзывает доступ пользователя по решению администратора:
// история подписок удаляется, пользователь банится в канале.
func (s *Service) AdminRevoke(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.repo.GetUser(ctx, id); err != nil {
		return err
	}
	if _, err := s.repo.DeleteSubscriptionsByUser(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetBanned(ctx, id, true); err != nil {
		return err
	}
	s.invalidateAccess(id)

	if err := s.gateway.Ban(ctx, id); err != nil {
		metrics.GatewayErrorsTotal.WithLabelValues("ban").Inc()
		s.log.Error("failed to ban user, will retry on next sweep", sl.UserID(id), sl.Err(err))
	}

	s.log.Info("access revoked by admin", sl.UserID(id))

	s.publish(models.Notification{
		Kind:   models.NotifyRevoked,
		UserID: id,
	})
	return nil
}

// CurrentAccess возвращает текущий уровень доступа пользователя, используя
// кеш или репозиторий. Чтение ничего не изменяет: протухшие записи
// собирает сверка.
func (s *Service) CurrentAccess(ctx context.Context, id int64) (access.Tier, error) {
	var tier access.Tier
	key := accessCacheKey(id)
	found, err := s.cache.Get(key, &tier)
	if err != nil {
		s.log.Warn("failed to read access from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return tier, nil
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return access.Tier{}, err
	}
	subs, err := s.repo.ListSubscriptionsByUser(ctx, id)
	if err != nil {
		return access.Tier{}, err
	}
	tier, _ = s.eval.Evaluate(*user, subs, s.now())

	if err := s.cache.Set(key, tier, accessCacheTTL); err != nil {
		s.log.Warn("failed to cache access", slog.String("key", key), sl.Err(err))
	}
	return tier, nil
}

// ListUsers возвращает всех пользователей с вычисленным уровнем доступа
// для административной панели.
func (s *Service) ListUsers(ctx context.Context) ([]UserOverview, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]UserOverview, 0, len(users))
	for _, user := range users {
		subs, err := s.repo.ListSubscriptionsByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		tier, _ := s.eval.Evaluate(user, subs, now)
		result = append(result, UserOverview{User: user, Tier: tier})
	}
	return result, nil
}

func (s *Service) invalidateAccess(id int64) {
	key := accessCacheKey(id)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) publish(msg models.Notification) {
	if err := s.notifier.Notify(msg); err != nil {
		s.log.Error("failed to publish notification",
			slog.String("kind", msg.Kind), sl.UserID(msg.UserID), sl.Err(err))
	}
}
