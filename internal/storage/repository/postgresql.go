// Package repository реализует хранилище данных на основе PostgreSQL:
// пользователи закрытого канала, история их подписок и заявки на оплату.
// Все операции однооператорные, межтабличные транзакции не используются:
// безопасность при сбоях обеспечивается порядком записей на уровне
// бизнес-логики.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/models"
)

// Ошибки хранилища, различимые бизнес-логикой.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CreateUser сохраняет пользователя при первом обращении.
// Повторный вызов для существующего пользователя ничего не меняет.
func (s *Storage) CreateUser(ctx context.Context, user models.User) error {
	const op = "storage.CreateUser"

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		user.ID, user.Username, user.FullName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"

	var user models.User
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, username, full_name, registration_date, trial_start_date, banned
		FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Username, &user.FullName,
			&user.RegistrationDate, &user.TrialStart, &user.Banned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// SetTrialStart выставляет начало пробного периода и снимает бан.
// Проверка, что пробный период еще не использовался, лежит на вызывающем.
func (s *Storage) SetTrialStart(ctx context.Context, id int64, start time.Time) error {
	const op = "storage.SetTrialStart"

	tag, err := s.DB.ExecContext(ctx, `
		UPDATE users SET trial_start_date = $2, banned = FALSE WHERE id = $1`,
		id, start)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// SetBanned обновляет признак бана пользователя.
func (s *Storage) SetBanned(ctx context.Context, id int64, banned bool) error {
	const op = "storage.SetBanned"

	tag, err := s.DB.ExecContext(ctx, `
		UPDATE users SET banned = $2 WHERE id = $1`, id, banned)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "storage.ListUsers"

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, username, full_name, registration_date, trial_start_date, banned
		FROM users ORDER BY registration_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(&user.ID, &user.Username, &user.FullName,
			&user.RegistrationDate, &user.TrialStart, &user.Banned)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateSubscription добавляет новую запись подписки и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	const op = "storage.CreateSubscription"

	var id int
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO subscriptions (user_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		sub.UserID, sub.StartDate, sub.EndDate, sub.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListSubscriptionsByUser возвращает всю историю подписок пользователя.
func (s *Storage) ListSubscriptionsByUser(ctx context.Context, userID int64) ([]models.Subscription, error) {
	const op = "storage.ListSubscriptionsByUser"

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, user_id, start_date, end_date, status
		FROM subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.Subscription
	for rows.Next() {
		var item models.Subscription
		err := rows.Scan(&item.ID, &item.UserID, &item.StartDate, &item.EndDate, &item.Status)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkSubscriptionExpired переводит запись подписки в статус expired.
func (s *Storage) MarkSubscriptionExpired(ctx context.Context, id int) (int64, error) {
	const op = "storage.MarkSubscriptionExpired"

	tag, err := s.DB.ExecContext(ctx, `
		UPDATE subscriptions SET status = $2 WHERE id = $1`,
		id, models.SubscriptionExpired)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected()
}

// DeleteSubscriptionsByUser удаляет все записи подписок пользователя.
// Используется только административным отзывом доступа.
func (s *Storage) DeleteSubscriptionsByUser(ctx context.Context, userID int64) (int64, error) {
	const op = "storage.DeleteSubscriptionsByUser"

	tag, err := s.DB.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected()
}

// ListUserIDsWithActiveSubscriptions возвращает пользователей, у которых
// есть хотя бы одна запись подписки в статусе active.
func (s *Storage) ListUserIDsWithActiveSubscriptions(ctx context.Context) ([]int64, error) {
	const op = "storage.ListUserIDsWithActiveSubscriptions"

	rows, err := s.DB.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM subscriptions WHERE status = $1`,
		models.SubscriptionActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListUserIDsWithLapsedTrial возвращает незабаненных пользователей,
// чей пробный период начался не позже cutoff и, значит, уже истек.
func (s *Storage) ListUserIDsWithLapsedTrial(ctx context.Context, cutoff time.Time) ([]int64, error) {
	const op = "storage.ListUserIDsWithLapsedTrial"

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id FROM users
		WHERE trial_start_date IS NOT NULL
			AND trial_start_date <= $1
			AND banned = FALSE`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreatePayment сохраняет заявку на оплату и возвращает её ID.
func (s *Storage) CreatePayment(ctx context.Context, payment models.Payment) (int, error) {
	const op = "storage.CreatePayment"

	var id int
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO payments (uid, user_id, amount, comment, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		payment.UID, payment.UserID, payment.Amount, payment.Comment, payment.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetPayment возвращает заявку на оплату по ID.
func (s *Storage) GetPayment(ctx context.Context, id int) (*models.Payment, error) {
	const op = "storage.GetPayment"

	var payment models.Payment
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, uid, user_id, created_at, amount, comment, status
		FROM payments WHERE id = $1`, id).
		Scan(&payment.ID, &payment.UID, &payment.UserID,
			&payment.CreatedAt, &payment.Amount, &payment.Comment, &payment.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &payment, nil
}

// UpdatePaymentStatus переводит заявку из статуса from в статус to.
// Возвращает число обновленных строк: ноль означает, что заявка уже
// была разрешена другим вызовом.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, id int, from, to string) (int64, error) {
	const op = "storage.UpdatePaymentStatus"

	tag, err := s.DB.ExecContext(ctx, `
		UPDATE payments SET status = $3 WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected()
}
