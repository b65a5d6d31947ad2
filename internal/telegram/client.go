// Package telegram реализует клиент Bot API для управления членством
// в закрытом канале и доставки сообщений: бан, разбан, одноразовые
// инвайт-ссылки и отправка текстов. Удаленный сервис считается ненадежным:
// вызовы ограничены таймаутом и закрыты circuit breaker'ом.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/config"
)

// GatewayError ошибка вызова Bot API. Бизнес-логика по ней отличает
// сбой внешнего сервиса от ошибки хранилища.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("telegram gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ParseModeHTML режим разметки для алертов канала.
const ParseModeHTML = "HTML"

// Client клиент Bot API.
type Client struct {
	apiURL     string
	channelID  int64
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// NewClient создает клиент Bot API по настройкам из конфига.
func NewClient(cfg config.Telegram) *Client {
	return &Client{
		apiURL:     fmt.Sprintf("%s/bot%s", cfg.APIAddress, cfg.Token),
		channelID:  cfg.ChannelID,
		httpClient: &http.Client{Timeout: cfg.TimeoutTelegram},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "telegram",
		}),
	}
}

func (c *Client) call(ctx context.Context, method string, body any, result any) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.do(ctx, method, body, result)
	})
	if err != nil {
		return &GatewayError{Op: method, Err: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, body any, result any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return err
	}
	if !apiResp.Ok {
		return fmt.Errorf("api error: %s", apiResp.Description)
	}
	if result != nil {
		return json.Unmarshal(apiResp.Result, result)
	}
	return nil
}

// Ban исключает пользователя из закрытого канала и вносит его в черный
// список. Бан уже забаненного пользователя со стороны Bot API безвреден.
func (c *Client) Ban(ctx context.Context, userID int64) error {
	return c.call(ctx, "banChatMember", banChatMemberRequest{
		ChatID: c.channelID,
		UserID: userID,
	}, nil)
}

// Unban убирает пользователя из черного списка канала. Флаг only_if_banned
// делает вызов безопасным для пользователей, которые забанены не были.
func (c *Client) Unban(ctx context.Context, userID int64) error {
	return c.call(ctx, "unbanChatMember", unbanChatMemberRequest{
		ChatID:       c.channelID,
		UserID:       userID,
		OnlyIfBanned: true,
	}, nil)
}

// CreateInviteLink создает одноразовую инвайт-ссылку в закрытый канал.
func (c *Client) CreateInviteLink(ctx context.Context) (string, error) {
	var link chatInviteLink
	err := c.call(ctx, "createChatInviteLink", createChatInviteLinkRequest{
		ChatID:      c.channelID,
		MemberLimit: 1,
	}, &link)
	if err != nil {
		return "", err
	}
	return link.InviteLink, nil
}

// SendMessage отправляет личное сообщение. Если передана инвайт-ссылка,
// к сообщению добавляется кнопка перехода в канал.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, inviteURL string) error {
	req := sendMessageRequest{
		ChatID: chatID,
		Text:   text,
	}
	if inviteURL != "" {
		req.ReplyMarkup = &replyMarkup{
			InlineKeyboard: [][]inlineButton{{
				{Text: "Перейти в канал", URL: inviteURL},
			}},
		}
	}
	return c.call(ctx, "sendMessage", req, nil)
}

// SendToChannel публикует сообщение с HTML-разметкой в закрытый канал.
func (c *Client) SendToChannel(ctx context.Context, text string) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:    c.channelID,
		Text:      text,
		ParseMode: ParseModeHTML,
	}, nil)
}
