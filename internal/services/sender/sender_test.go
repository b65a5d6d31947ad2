package sender

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/models"
)

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) SendMessage(ctx context.Context, chatID int64, text, inviteURL string) error {
	return m.Called(ctx, chatID, text, inviteURL).Error(0)
}

func (m *GatewayMock) SendToChannel(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *GatewayMock) CreateInviteLink(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func marshal(t *testing.T, msg models.Notification) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func TestHandle_Granted(t *testing.T) {
	gateway := &GatewayMock{}
	svc := New(gateway, 999, NewNoopLogger())

	end := time.Date(2026, 9, 30, 12, 30, 0, 0, time.UTC)
	gateway.On("CreateInviteLink", mock.Anything).Return("https://t.me/+abc", nil)
	gateway.On("SendMessage", mock.Anything, int64(42),
		"🎉 Ваша подписка активирована до 2026-09-30 12:30!", "https://t.me/+abc").Return(nil)

	err := svc.Handle(marshal(t, models.Notification{
		Kind: models.NotifyGranted, UserID: 42, EndDate: end,
	}))
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestHandle_TrialActivated_InviteLinkFailure(t *testing.T) {
	gateway := &GatewayMock{}
	svc := New(gateway, 999, NewNoopLogger())

	// без инвайт-ссылки сообщение все равно доставляется
	gateway.On("CreateInviteLink", mock.Anything).Return("", errors.New("telegram is down"))
	gateway.On("SendMessage", mock.Anything, int64(42),
		"🎉 Вам активирован триальный период на 24 часа!", "").Return(nil)

	err := svc.Handle(marshal(t, models.Notification{
		Kind: models.NotifyTrialActivated, UserID: 42,
	}))
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestHandle_Expired(t *testing.T) {
	gateway := &GatewayMock{}
	svc := New(gateway, 999, NewNoopLogger())

	gateway.On("SendMessage", mock.Anything, int64(42),
		"❌ Ваша подписка истекла. Доступ к каналу закрыт.\n"+
			"Для возобновления доступа оформите подписку снова.", "").Return(nil)

	err := svc.Handle(marshal(t, models.Notification{
		Kind: models.NotifyExpired, UserID: 42,
	}))
	require.NoError(t, err)

	gateway.AssertNotCalled(t, "CreateInviteLink", mock.Anything)
}

func TestHandle_PaymentReceived_GoesToAdmin(t *testing.T) {
	gateway := &GatewayMock{}
	svc := New(gateway, 999, NewNoopLogger())

	gateway.On("SendMessage", mock.Anything, int64(999), mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "ID платежа: 7") && strings.Contains(text, "A1B2C3")
	}), "").Return(nil)

	err := svc.Handle(marshal(t, models.Notification{
		Kind: models.NotifyPaymentReceived, UserID: 42, PaymentID: 7, Code: "A1B2C3",
	}))
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestHandle_ChannelAlert(t *testing.T) {
	gateway := &GatewayMock{}
	svc := New(gateway, 999, NewNoopLogger())

	gateway.On("SendToChannel", mock.Anything, "🚨 <b>Крупная покупка</b>").Return(nil)

	err := svc.Handle(marshal(t, models.Notification{
		Kind: models.NotifyChannelAlert, Text: "🚨 <b>Крупная покупка</b>",
	}))
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestHandle_UnknownKind(t *testing.T) {
	gateway := &GatewayMock{}
	svc := New(gateway, 999, NewNoopLogger())

	err := svc.Handle(marshal(t, models.Notification{Kind: "mystery"}))
	require.NoError(t, err)

	gateway.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_BadBody(t *testing.T) {
	svc := New(&GatewayMock{}, 999, NewNoopLogger())
	err := svc.Handle([]byte("{broken"))
	require.Error(t, err)
}

func TestHandle_DeliveryErrorIsReturned(t *testing.T) {
	gateway := &GatewayMock{}
	svc := New(gateway, 999, NewNoopLogger())

	gateway.On("SendMessage", mock.Anything, int64(42), mock.Anything, mock.Anything).
		Return(errors.New("telegram is down"))

	err := svc.Handle(marshal(t, models.Notification{
		Kind: models.NotifyRevoked, UserID: 42,
	}))
	require.Error(t, err)
}
