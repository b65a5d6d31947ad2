package models

import "time"

// Виды уведомлений, публикуемых в очередь. Сообщения с видом
// NotifyChannelAlert уходят в закрытый канал, остальные доставляются
// личным сообщением пользователю либо администратору.
const (
	NotifyTrialActivated  = "trial_activated"
	NotifyGranted         = "subscription_granted"
	NotifyExpired         = "subscription_expired"
	NotifyRevoked         = "subscription_revoked"
	NotifyPaymentReceived = "payment_received"
	NotifyChannelAlert    = "channel_alert"
)

// Notification сообщение очереди уведомлений. Текст для пользовательских
// уведомлений собирает сервис доставки по виду сообщения, для алертов
// канала текст приходит готовым в поле Text.
type Notification struct {
	Kind      string    `json:"kind"`
	UserID    int64     `json:"user_id,omitempty"`
	EndDate   time.Time `json:"end_date,omitempty"`
	Days      int       `json:"days,omitempty"`
	PaymentID int       `json:"payment_id,omitempty"`
	Code      string    `json:"code,omitempty"`
	Text      string    `json:"text,omitempty"`
}
