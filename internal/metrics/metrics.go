package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scan metrics
	ScansProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigfishalert_scans_total",
			Help: "Total number of scans performed",
		},
		[]string{"kind", "status"}, // token/wallet, success/error
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bigfishalert_scan_duration_seconds",
			Help:    "Duration of scans including all upstream lookups",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"kind"},
	)

	// Score distribution, one series per component plus the composite
	Scores = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bigfishalert_scores",
			Help:    "Distribution of Big Fish Scores and their components (0-100 scale)",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"component"},
	)

	RiskLevels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigfishalert_risk_levels_total",
			Help: "Total number of scored tokens by risk level",
		},
		[]string{"level"}, // LOW, MEDIUM, HIGH
	)

	// Upstream data sources that failed and were replaced with defaults
	SourceFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigfishalert_source_fallbacks_total",
			Help: "Total number of upstream lookups that failed and fell back to defaults",
		},
		[]string{"source"},
	)

	// Alert metrics
	AlertsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigfishalert_alerts_triggered_total",
			Help: "Total number of alerts triggered",
		},
		[]string{"level"},
	)

	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigfishalert_alerts_sent_total",
			Help: "Total number of alerts sent",
		},
		[]string{"status", "type"}, // success/error, discord/smtp/telegram/log
	)

	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bigfishalert_alerts_suppressed_total",
			Help: "Total number of alerts suppressed due to cooldown",
		},
	)

	// Upstream API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigfishalert_upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"api", "endpoint", "status"}, // solana/dexscreener/rugcheck/helius/openai, endpoint, success/error
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bigfishalert_upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"api", "endpoint"},
	)

	BreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigfishalert_breaker_state_changes_total",
			Help: "Circuit breaker transitions per upstream",
		},
		[]string{"api", "to"},
	)

	// Inbound HTTP API
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigfishalert_http_requests_total",
			Help: "Total number of HTTP API requests served",
		},
		[]string{"route", "code"},
	)

	// Database metrics
	DatabaseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigfishalert_database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bigfishalert_database_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Monitor loop
	MonitorCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bigfishalert_monitor_cycles_total",
			Help: "Total number of watchlist monitor cycles",
		},
	)

	MonitorCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bigfishalert_monitor_cycle_duration_seconds",
			Help:    "Duration of a full watchlist monitor cycle",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	// System health
	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigfishalert_health_checks_total",
			Help: "Total number of health check requests",
		},
		[]string{"status"}, // healthy/unhealthy
	)
)

// RecordScan records scan metrics
func RecordScan(kind string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ScansProcessed.WithLabelValues(kind, status).Inc()
	ScanDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordScore records a composite score, its components and its risk level
func RecordScore(level string, composite int, components map[string]float64) {
	Scores.WithLabelValues("composite").Observe(float64(composite))
	for name, v := range components {
		Scores.WithLabelValues(name).Observe(v)
	}
	RiskLevels.WithLabelValues(level).Inc()
}

// RecordSourceFallback counts an upstream lookup replaced by its default
func RecordSourceFallback(source string) {
	SourceFallbacks.WithLabelValues(source).Inc()
}

// RecordAlert records alert metrics
func RecordAlert(level, sendStatus, alertType string, suppressed bool) {
	if suppressed {
		AlertsSuppressed.Inc()
		return
	}

	AlertsTriggered.WithLabelValues(level).Inc()
	AlertsSent.WithLabelValues(sendStatus, alertType).Inc()
}

// RecordAPIRequest records upstream request metrics
func RecordAPIRequest(api, endpoint string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	APIRequests.WithLabelValues(api, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(api, endpoint).Observe(duration.Seconds())
}

// RecordBreakerStateChange records a circuit breaker transition
func RecordBreakerStateChange(api, to string) {
	BreakerStateChanges.WithLabelValues(api, to).Inc()
}

// RecordHTTPRequest records a served API request
func RecordHTTPRequest(route string, code int) {
	HTTPRequests.WithLabelValues(route, httpCodeLabel(code)).Inc()
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueries.WithLabelValues(operation, status).Inc()
	DatabaseQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordMonitorCycle records one pass over the watchlist
func RecordMonitorCycle(duration time.Duration) {
	MonitorCycles.Inc()
	MonitorCycleDuration.Observe(duration.Seconds())
}

// RecordHealthCheck records health check status
func RecordHealthCheck(healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	HealthChecks.WithLabelValues(status).Inc()
}

func httpCodeLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
