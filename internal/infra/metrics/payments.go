package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookRequestsTotal,
		paymentsTotal,
		paymentsRevenueTotal,
	)
}

var (
	webhookRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_requests_total",
			Help: "Gateway webhook calls by provider, method and outcome.",
		},
		[]string{"provider", "method", "outcome"}, // outcome: 'ok', 'error'
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Ledger transitions by provider and status (created/paid/canceled/expired).",
		},
		[]string{"provider", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total som value of successful payments per provider.",
		},
		[]string{"provider"},
	)
)

func IncWebhook(provider, method, outcome string) {
	webhookRequestsTotal.WithLabelValues(norm(provider), method, norm(outcome)).Inc()
}

func IncPayment(provider, status string) {
	paymentsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func AddRevenue(provider string, amountSom int64) {
	paymentsRevenueTotal.WithLabelValues(norm(provider)).Add(float64(amountSom))
}
