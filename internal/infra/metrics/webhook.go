package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookDeliveriesTotal,
		webhookRejectedTotal,
	)
}

var (
	webhookDeliveriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Gateway webhook deliveries received.",
		},
	)

	webhookRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_rejected_total",
			Help: "Webhook deliveries rejected, labeled by reason (signature/unknown_transaction/rate).",
		},
		[]string{"reason"},
	)
)

func IncWebhookDelivery() {
	webhookDeliveriesTotal.Inc()
}

func IncWebhookRejected(reason string) {
	webhookRejectedTotal.WithLabelValues(norm(reason)).Inc()
}
