package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsExtendedTotal,
		subscriptionsExpiredTotal,
		subscriptionsWarnedTotal,
	)
}

var (
	subscriptionsExtendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_extended_total",
			Help: "Total number of subscription windows extended by paid transactions.",
		},
	)

	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Total number of lapsed subscriptions processed by the expiry worker.",
		},
	)

	subscriptionsWarnedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_warned_total",
			Help: "Total number of expiry warnings sent.",
		},
	)
)

func IncSubscriptionsExtended() {
	subscriptionsExtendedTotal.Inc()
}

func IncSubscriptionsExpired(count int) {
	subscriptionsExpiredTotal.Add(float64(count))
}

func IncSubscriptionsWarned(count int) {
	subscriptionsWarnedTotal.Add(float64(count))
}
