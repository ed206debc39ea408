package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(pgPoolConnections) }

var pgPoolConnections = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pg_pool_connections",
		Help: "Connections in the pgx pool by state.",
	},
	[]string{"state"},
)

// SetDBPoolStats publishes a pool snapshot. Fed by the periodic reporter in
// the postgres package.
func SetDBPoolStats(total, idle, inUse int32) {
	pgPoolConnections.WithLabelValues("total").Set(float64(total))
	pgPoolConnections.WithLabelValues("idle").Set(float64(idle))
	pgPoolConnections.WithLabelValues("in_use").Set(float64(inUse))
}
