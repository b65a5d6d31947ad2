// Package alerts содержит ленту аномалий торгов: периодический опрос
// MOEX AlgoPack, отбор свежих алертов, дедупликацию и публикацию
// отформатированных сообщений в очередь уведомлений.
package alerts

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/metrics"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/models"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/moex"
)

// Fetcher получает сырые строки алертов за торговый день.
type Fetcher interface {
	FetchRows(ctx context.Context, date time.Time) ([]moex.Row, error)
}

// Notifier публикует сообщения алертов в очередь уведомлений.
type Notifier interface {
	Notify(msg models.Notification) error
}

// Feed периодически опрашивает AlgoPack и публикует новые алерты.
type Feed struct {
	client    Fetcher
	registry  *Registry
	notifier  Notifier
	interval  time.Duration
	freshness time.Duration
	log       *slog.Logger

	now func() time.Time
}

// NewFeed создает новый экземпляр Feed.
func NewFeed(client Fetcher, notifier Notifier,
	interval, freshness time.Duration, log *slog.Logger) *Feed {
	return &Feed{
		client:    client,
		registry:  NewRegistry(),
		notifier:  notifier,
		interval:  interval,
		freshness: freshness,
		log:       log,
		now:       time.Now,
	}
}

// Run выполняет проверку сразу при старте, затем по тикеру до отмены контекста.
func (f *Feed) Run(ctx context.Context) {
	f.CheckOnce(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.CheckOnce(ctx)
		}
	}
}

// CheckOnce один проход ленты: запрашивает алерты за сегодня, отбирает
// свежие и еще не опубликованные, публикует их в порядке наступления.
// Строка, которую не удалось разобрать, пропускается и не прерывает проход.
func (f *Feed) CheckOnce(ctx context.Context) {
	now := f.now()
	cutoff := now.Add(-f.freshness)
	f.registry.Prune(cutoff)

	rows, err := f.client.FetchRows(ctx, now)
	if err != nil {
		f.log.Error("failed to fetch alerts", sl.Err(err))
		return
	}

	var fresh []moex.Alert
	for _, row := range rows {
		alert, err := moex.ParseRow(row)
		if err != nil {
			metrics.AlertsSkippedTotal.WithLabelValues("malformed").Inc()
			f.log.Warn("failed to parse alert row", sl.Err(err))
			continue
		}
		if alert.Timestamp.Before(cutoff) {
			metrics.AlertsSkippedTotal.WithLabelValues("stale").Inc()
			continue
		}
		if f.registry.Seen(alert.Fingerprint()) {
			metrics.AlertsSkippedTotal.WithLabelValues("duplicate").Inc()
			continue
		}
		f.registry.Add(alert.Fingerprint(), alert.Timestamp)
		fresh = append(fresh, *alert)
	}

	if len(fresh) == 0 {
		f.log.Debug("no new alerts")
		return
	}

	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].Timestamp.Before(fresh[j].Timestamp)
	})

	f.log.Info("found new alerts", slog.Int("count", len(fresh)))
	for _, alert := range fresh {
		err := f.notifier.Notify(models.Notification{
			Kind: models.NotifyChannelAlert,
			Text: FormatAlert(alert),
		})
		if err != nil {
			f.log.Error("failed to publish alert",
				slog.String("ticker", alert.Ticker), sl.Err(err))
			continue
		}
		metrics.AlertsPublishedTotal.Inc()
	}
}
