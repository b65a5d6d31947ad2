package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(config.Telegram{
		Token:           "test-token",
		APIAddress:      srv.URL,
		ChannelID:       -100123,
		TimeoutTelegram: 2 * time.Second,
	})
	return client, srv
}

func TestBan(t *testing.T) {
	var gotPath string
	var gotBody banChatMemberRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	})

	err := client.Ban(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "/bottest-token/banChatMember", gotPath)
	assert.Equal(t, int64(-100123), gotBody.ChatID)
	assert.Equal(t, int64(42), gotBody.UserID)
}

func TestUnban_OnlyIfBanned(t *testing.T) {
	var gotBody unbanChatMemberRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	})

	err := client.Unban(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, gotBody.OnlyIfBanned)
}

func TestCreateInviteLink(t *testing.T) {
	var gotBody createChatInviteLinkRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"invite_link":"https://t.me/+abc"}}`))
	})

	link, err := client.CreateInviteLink(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/+abc", link)
	assert.Equal(t, 1, gotBody.MemberLimit)
}

func TestSendMessage_WithInviteButton(t *testing.T) {
	var gotBody sendMessageRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	err := client.SendMessage(context.Background(), 42, "привет", "https://t.me/+abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), gotBody.ChatID)
	require.NotNil(t, gotBody.ReplyMarkup)
	assert.Equal(t, "https://t.me/+abc", gotBody.ReplyMarkup.InlineKeyboard[0][0].URL)
}

func TestSendToChannel_HTML(t *testing.T) {
	var gotBody sendMessageRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	err := client.SendToChannel(context.Background(), "<b>alert</b>")
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), gotBody.ChatID)
	assert.Equal(t, ParseModeHTML, gotBody.ParseMode)
}

func TestCall_APIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: user not found"}`))
	})

	err := client.Ban(context.Background(), 42)
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "banChatMember", gwErr.Op)
	assert.Contains(t, err.Error(), "user not found")
}
