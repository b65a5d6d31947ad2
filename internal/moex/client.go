// Package moex реализует клиент MOEX AlgoPack для получения аномалий
// торгов (алертов) за торговый день и разбор строк ответа в нормализованные
// записи. Формат ответа позиционный: каждая строка — массив значений.
package moex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/config"
)

const alertsPath = "/iss/datashop/algopack/eq/alerts.json"

// Row одна строка ответа AlgoPack до разбора.
type Row []any

// Client клиент AlgoPack.
type Client struct {
	token      string
	apiURL     string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// NewClient создает клиент AlgoPack по настройкам из конфига.
func NewClient(cfg config.Moex) *Client {
	return &Client{
		token:      cfg.MoexToken,
		apiURL:     cfg.MoexAPIAddress,
		httpClient: &http.Client{Timeout: cfg.TimeoutMoex},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "moex",
		}),
	}
}

type alertsResponse struct {
	Data struct {
		Data []Row `json:"data"`
	} `json:"data"`
}

// FetchRows запрашивает алерты за указанную дату и возвращает сырые строки.
func (c *Client) FetchRows(ctx context.Context, date time.Time) ([]Row, error) {
	const op = "moex.FetchRows"

	rows, err := c.cb.Execute(func() (any, error) {
		return c.fetch(ctx, date)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows.([]Row), nil
}

func (c *Client) fetch(ctx context.Context, date time.Time) ([]Row, error) {
	url := fmt.Sprintf("%s%s?date=%s", c.apiURL, alertsPath, date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var parsed alertsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed.Data.Data, nil
}
