package models

import "time"

// Статусы подписки. Переход только active -> expired, записи не удаляются:
// каждая покупка или выдача добавляет новую строку.
const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// Subscription представляет один оплаченный (или выданный администратором)
// период доступа к каналу. Пробный период строку не создает.
type Subscription struct {
	ID        int       // Идентификатор записи
	UserID    int64     // Владелец подписки
	StartDate time.Time // Начало периода
	EndDate   time.Time // Окончание периода
	Status    string    // active или expired
}
