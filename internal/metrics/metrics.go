package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "organigrama",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests broken down by route, method and status.",
		Buckets: []float64{
			0.001, 0.005, 0.01, 0.02, 0.05,
			0.1, 0.2, 0.5, 1, 2, 5,
		},
	}, []string{"route", "method", "status"})

	expansions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "organigrama",
		Subsystem: "orgchart",
		Name:      "expansions_total",
		Help:      "Node expansions broken down by the branch that produced the children.",
	}, []string{"branch"})

	rootBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "organigrama",
		Subsystem: "orgchart",
		Name:      "root_builds_total",
		Help:      "Root tree builds broken down by result.",
	}, []string{"result"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "organigrama",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts broken down by result.",
	}, []string{"result"})
)

func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	httpLatency.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func RecordExpansion(branch string) {
	expansions.WithLabelValues(branch).Inc()
}

func RecordRootBuild(result string) {
	rootBuilds.WithLabelValues(result).Inc()
}

func RecordLogin(result string) {
	logins.WithLabelValues(result).Inc()
}
