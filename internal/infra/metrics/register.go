package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register enqueues collectors from each metric file's init. Nothing touches
// the default registry until main calls MustRegister.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister registers every enqueued collector exactly once. Safe to call
// from tests that wire the server twice.
func MustRegister() {
	once.Do(func() {
		if len(collectors) > 0 {
			prometheus.MustRegister(collectors...)
		}
	})
}

// norm keeps label values lowercase so provider/outcome strings from
// different call sites land on one series.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
