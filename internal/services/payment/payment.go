// Package payment содержит бизнес-логику ручной оплаты подписки:
// создание заявки с кодом платежа, подтверждение и отклонение заявки
// администратором. Подтвержденная заявка выдает подписку через
// сервис жизненного цикла.
package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/paycode"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/metrics"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/models"
)

// ErrPaymentAlreadyResolved заявка уже подтверждена или отклонена.
// Статус заявки выставляется ровно один раз.
var ErrPaymentAlreadyResolved = errors.New("payment already resolved")

// Repository определяет методы хранилища для работы с заявками на оплату.
type Repository interface {
	// CreatePayment сохраняет заявку на оплату и возвращает её ID.
	CreatePayment(ctx context.Context, payment models.Payment) (int, error)
	// GetPayment возвращает заявку на оплату по ID.
	GetPayment(ctx context.Context, id int) (*models.Payment, error)
	// UpdatePaymentStatus переводит заявку из статуса from в статус to
	// и возвращает число обновленных строк.
	UpdatePaymentStatus(ctx context.Context, id int, from, to string) (int64, error)
}

// Granter выдает подписку после подтверждения оплаты.
type Granter interface {
	Grant(ctx context.Context, userID int64, days int) (time.Time, error)
}

// Notifier публикует уведомления о новых заявках.
type Notifier interface {
	Notify(msg models.Notification) error
}

// Service реализует операции над заявками на оплату.
type Service struct {
	repo      Repository
	granter   Granter
	notifier  Notifier
	amount    int
	grantDays int
	log       *slog.Logger

	now func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, granter Granter, notifier Notifier,
	amount, grantDays int, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		granter:   granter,
		notifier:  notifier,
		amount:    amount,
		grantDays: grantDays,
		log:       log,
		now:       time.Now,
	}
}

// Request создает заявку на оплату с уникальным кодом платежа.
// Код пользователь указывает в комментарии к переводу, по нему
// администратор сверяет поступление.
func (s *Service) Request(ctx context.Context, userID int64) (*models.Payment, error) {
	code, err := paycode.Generate()
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		UID:     uuid.NewString(),
		UserID:  userID,
		Amount:  s.amount,
		Comment: code,
		Status:  models.PaymentPending,
	}
	id, err := s.repo.CreatePayment(ctx, payment)
	if err != nil {
		return nil, err
	}
	payment.ID = id
	payment.CreatedAt = s.now()

	metrics.PaymentsTotal.WithLabelValues(models.PaymentPending).Inc()
	s.log.Info("created payment request", sl.UserID(userID),
		slog.Int("payment_id", id), slog.String("code", code))

	if err := s.notifier.Notify(models.Notification{
		Kind:      models.NotifyPaymentReceived,
		UserID:    userID,
		PaymentID: id,
		Code:      code,
	}); err != nil {
		s.log.Error("failed to notify admin about payment", sl.Err(err))
	}

	return &payment, nil
}

// Confirm подтверждает заявку и выдает подписку пользователю.
// Возвращает дату окончания выданной подписки. Повторное подтверждение
// или подтверждение отклоненной заявки возвращает ErrPaymentAlreadyResolved.
func (s *Service) Confirm(ctx context.Context, paymentID int) (time.Time, error) {
	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return time.Time{}, err
	}

	// заявку забирает ровно один вызов, параллельное подтверждение
	// не выдаст подписку дважды
	n, err := s.repo.UpdatePaymentStatus(ctx, paymentID,
		models.PaymentPending, models.PaymentConfirmed)
	if err != nil {
		return time.Time{}, err
	}
	if n == 0 {
		return time.Time{}, ErrPaymentAlreadyResolved
	}

	metrics.PaymentsTotal.WithLabelValues(models.PaymentConfirmed).Inc()
	s.log.Info("confirmed payment", slog.Int("payment_id", paymentID), sl.UserID(payment.UserID))

	return s.granter.Grant(ctx, payment.UserID, s.grantDays)
}

// Reject отклоняет заявку на оплату. Повторное отклонение или отклонение
// подтвержденной заявки возвращает ErrPaymentAlreadyResolved.
func (s *Service) Reject(ctx context.Context, paymentID int) error {
	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	n, err := s.repo.UpdatePaymentStatus(ctx, paymentID,
		models.PaymentPending, models.PaymentRejected)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPaymentAlreadyResolved
	}

	metrics.PaymentsTotal.WithLabelValues(models.PaymentRejected).Inc()
	s.log.Info("rejected payment", slog.Int("payment_id", paymentID), sl.UserID(payment.UserID))
	return nil
}
