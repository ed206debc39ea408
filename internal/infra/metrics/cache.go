package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequests) }

// cache="plan" is the only cache today; keep the label so adding another
// decorated repo does not rename the series.
var cacheRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Redis cache lookups by cache name and hit/miss result.",
	},
	[]string{"cache", "result"},
)

func IncCacheRequest(cacheName, result string) {
	cacheRequests.WithLabelValues(norm(cacheName), norm(result)).Inc()
}
