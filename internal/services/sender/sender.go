// Package sender содержит сервис доставки уведомлений: сообщения из
// очереди превращаются в тексты и отправляются через Bot API пользователям,
// администратору или в закрытый канал. К уведомлениям об открытии доступа
// прикладывается одноразовая инвайт-ссылка.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/models"
)

// Gateway доставляет сообщения через Bot API.
type Gateway interface {
	// SendMessage отправляет личное сообщение, при непустой инвайт-ссылке
	// добавляет кнопку перехода в канал.
	SendMessage(ctx context.Context, chatID int64, text, inviteURL string) error
	// SendToChannel публикует сообщение с HTML-разметкой в закрытый канал.
	SendToChannel(ctx context.Context, text string) error
	// CreateInviteLink создает одноразовую инвайт-ссылку в закрытый канал.
	CreateInviteLink(ctx context.Context) (string, error)
}

// Service обрабатывает сообщения очереди уведомлений.
type Service struct {
	gateway     Gateway
	adminChatID int64
	log         *slog.Logger
}

// New создает новый экземпляр Service.
func New(gateway Gateway, adminChatID int64, log *slog.Logger) *Service {
	return &Service{
		gateway:     gateway,
		adminChatID: adminChatID,
		log:         log,
	}
}

// Handle обрабатывает одно сообщение очереди. Ошибка доставки возвращает
// сообщение в очередь, нераспознанное сообщение подтверждается и
// отбрасывается.
func (s *Service) Handle(body []byte) error {
	var msg models.Notification
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal notification", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	ctx := context.Background()

	switch msg.Kind {
	case models.NotifyChannelAlert:
		return s.gateway.SendToChannel(ctx, msg.Text)
	case models.NotifyTrialActivated:
		return s.sendWithInvite(ctx, msg.UserID,
			"🎉 Вам активирован триальный период на 24 часа!")
	case models.NotifyGranted:
		return s.sendWithInvite(ctx, msg.UserID,
			fmt.Sprintf("🎉 Ваша подписка активирована до %s!",
				msg.EndDate.Format("2006-01-02 15:04")))
	case models.NotifyExpired:
		return s.gateway.SendMessage(ctx, msg.UserID,
			"❌ Ваша подписка истекла. Доступ к каналу закрыт.\n"+
				"Для возобновления доступа оформите подписку снова.", "")
	case models.NotifyRevoked:
		return s.gateway.SendMessage(ctx, msg.UserID,
			"❌ Ваша подписка была отменена администратором. Доступ к каналу закрыт.", "")
	case models.NotifyPaymentReceived:
		return s.gateway.SendMessage(ctx, s.adminChatID,
			fmt.Sprintf("🔔 Новый платеж от пользователя %d\n"+
				"ID платежа: %d\n"+
				"Код: %s\n"+
				"Подтвердите оплату:", msg.UserID, msg.PaymentID, msg.Code), "")
	default:
		s.log.Warn("skipping notification of unknown kind", slog.String("kind", msg.Kind))
		return nil
	}
}

// sendWithInvite отправляет сообщение с кнопкой перехода в канал.
// Если ссылку создать не удалось, сообщение уходит без кнопки: доступ
// уже открыт, задерживать уведомление нет смысла.
func (s *Service) sendWithInvite(ctx context.Context, userID int64, text string) error {
	invite, err := s.gateway.CreateInviteLink(ctx)
	if err != nil {
		s.log.Error("failed to create invite link", sl.UserID(userID), sl.Err(err))
	}
	return s.gateway.SendMessage(ctx, userID, text, invite)
}
