package models

import "time"

// Статусы платежа. Терминальный статус выставляется администратором
// ровно один раз, автоматических переходов нет.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentRejected  = "rejected"
)

// Payment представляет заявку пользователя на оплату подписки.
// Comment содержит код, который пользователь указывает в комментарии к переводу.
type Payment struct {
	ID        int       `json:"id"`         // Идентификатор платежа
	UID       string    `json:"uid"`        // Внешний идентификатор (uuid)
	UserID    int64     `json:"user_id"`    // Плательщик
	CreatedAt time.Time `json:"created_at"` // Время создания заявки
	Amount    int       `json:"amount"`     // Сумма в рублях
	Comment   string    `json:"comment"`    // Код для комментария к переводу
	Status    string    `json:"status"`     // pending, confirmed или rejected
}
