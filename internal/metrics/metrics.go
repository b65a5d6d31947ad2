// Package metrics содержит счетчики Prometheus для наблюдения за
// жизненным циклом подписок и лентой алертов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SweepsTotal количество завершенных проходов проверки подписок.
	SweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatekeeper_sweeps_total",
			Help: "Total number of completed subscription sweep passes",
		},
	)
	// ReconciliationsTotal результаты сверки доступа по пользователям.
	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_reconciliations_total",
			Help: "Total number of per-user access reconciliations",
		},
		[]string{"outcome"},
	)
	// GatewayErrorsTotal ошибки вызовов Bot API по операциям.
	GatewayErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_gateway_errors_total",
			Help: "Total number of failed channel membership gateway calls",
		},
		[]string{"op"},
	)
	// PaymentsTotal заявки на оплату по итоговым статусам.
	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_payments_total",
			Help: "Total number of payment requests by status",
		},
		[]string{"status"},
	)
	// AlertsPublishedTotal алерты, отправленные в канал.
	AlertsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatekeeper_alerts_published_total",
			Help: "Total number of market alerts published to the channel",
		},
	)
	// AlertsSkippedTotal алерты, отброшенные до публикации.
	AlertsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_alerts_skipped_total",
			Help: "Total number of market alerts skipped before publishing",
		},
		[]string{"reason"},
	)
)
