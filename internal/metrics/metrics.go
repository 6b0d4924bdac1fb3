package metrics

import (
	"net/http"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics содержит счётчики обработки платежей.
type Metrics struct {
	webhooks    *prometheus.CounterVec
	settlements *prometheus.CounterVec
	checkouts   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		webhooks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletgate_webhooks_total",
				Help: "Total number of payment gateway webhooks by result",
			},
			[]string{"gateway", "result"},
		),
		settlements: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletgate_settlements_total",
				Help: "Total number of settled transactions by final status",
			},
			[]string{"gateway", "status"},
		),
		checkouts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletgate_checkouts_total",
				Help: "Total number of listing checkouts by payment option",
			},
			[]string{"option"},
		),
	}
}

func (m *Metrics) Webhook(gateway, result string) {
	m.webhooks.WithLabelValues(gateway, result).Inc()
}

func (m *Metrics) Settlement(gateway string, status entity.TransactionStatus) {
	m.settlements.WithLabelValues(gateway, string(status)).Inc()
}

func (m *Metrics) Checkout(option string) {
	m.checkouts.WithLabelValues(option).Inc()
}

// Handler возвращает обработчик, отдающий метрики в формате Prometheus.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
