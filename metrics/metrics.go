package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StressTests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stress_tests_total",
		Help: "Stress evaluations by verdict",
	}, []string{"result"})

	StressTestErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stress_test_errors_total",
		Help: "Rejected stress evaluations by error kind",
	}, []string{"kind"})

	LastCapitalAdequacyRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stress_last_capital_adequacy_ratio",
		Help: "Unrounded CAR (%) of the most recent evaluation",
	})

	UnemploymentFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unemployment_rate_fetches_total",
		Help: "Upstream unemployment rate fetches by outcome",
	}, []string{"outcome"})

	UnemploymentFetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "unemployment_rate_fetch_seconds",
		Help:    "Time to fetch the unemployment rate from the upstream source",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by path and status code",
	}, []string{"path", "code"})
)

func init() {
	prometheus.MustRegister(
		StressTests,
		StressTestErrors,
		LastCapitalAdequacyRatio,
		UnemploymentFetches,
		UnemploymentFetchLatency,
		HTTPRequests,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
