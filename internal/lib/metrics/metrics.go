// Package metrics регистрирует счетчики Prometheus для платежной подсистемы.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// WebhookEvents считает входящие доставки вебхука по исходу обработки:
	// processed, ignored, rejected.
	WebhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "expenseiq_webhook_events_total",
		Help: "Payment webhook deliveries by handling outcome",
	}, []string{"outcome"})

	// PaymentConfirmations считает вызовы реконсиляции по результату:
	// confirmed, duplicate, failed, cancelled, noop.
	PaymentConfirmations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "expenseiq_payment_confirmations_total",
		Help: "Payment reconciliation calls by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(WebhookEvents, PaymentConfirmations)
}
