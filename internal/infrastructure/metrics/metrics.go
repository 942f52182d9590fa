package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "balanceledger"

// Metrics holds all Prometheus metrics and implements usecase.MetricsRecorder.
type Metrics struct {
	// Ledger metrics
	TransactionsAppended *prometheus.CounterVec
	ChainReplays         *prometheus.CounterVec
	ChainReplayLength    *prometheus.HistogramVec
	BalanceRejections    *prometheus.CounterVec

	// Report metrics
	ReportsGenerated prometheus.Counter
	ReportAccounts   prometheus.Histogram
	ReportDuration   prometheus.Histogram

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInFlight  prometheus.Gauge
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_appended_total",
				Help:      "Total number of transactions appended, by whether they were back-dated",
			},
			[]string{"backdated"},
		),
		ChainReplays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chain_replays_total",
				Help:      "Total number of full chain replays by operation",
			},
			[]string{"operation"},
		),
		ChainReplayLength: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "chain_replay_length",
				Help:      "Number of transactions replayed per chain replay",
				Buckets:   []float64{1, 10, 100, 1000, 10000, 100000},
			},
			[]string{"operation"},
		),
		BalanceRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "balance_rejections_total",
				Help:      "Total number of mutations rejected for a negative balance",
			},
			[]string{"operation"},
		),

		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Total number of owner reports generated",
		}),
		ReportAccounts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_accounts",
			Help:      "Accounts per generated report",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		ReportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Duration of report generation",
			Buckets:   prometheus.DefBuckets,
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// TransactionAppended records one appended transaction.
func (m *Metrics) TransactionAppended(backdated bool) {
	label := "false"
	if backdated {
		label = "true"
	}
	m.TransactionsAppended.WithLabelValues(label).Inc()
}

// ChainReplayed records a replay of length transactions.
func (m *Metrics) ChainReplayed(operation string, length int) {
	m.ChainReplays.WithLabelValues(operation).Inc()
	m.ChainReplayLength.WithLabelValues(operation).Observe(float64(length))
}

// BalanceRejected records a mutation rejected for a negative balance.
func (m *Metrics) BalanceRejected(operation string) {
	m.BalanceRejections.WithLabelValues(operation).Inc()
}

// ReportGenerated records a completed report.
func (m *Metrics) ReportGenerated(accounts int, d time.Duration) {
	m.ReportsGenerated.Inc()
	m.ReportAccounts.Observe(float64(accounts))
	m.ReportDuration.Observe(d.Seconds())
}
