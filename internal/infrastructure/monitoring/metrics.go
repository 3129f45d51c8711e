package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type UnderwritingMetrics struct {
	EligibilityDecisions *prometheus.CounterVec
	LoansCreated         prometheus.Counter
	CreditScores         prometheus.Histogram
	DebtReconciled       *prometheus.CounterVec
}

type IngestionMetrics struct {
	Rows         *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	QueueBacklog prometheus.Gauge
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_engine_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Underwriting = UnderwritingMetrics{
		EligibilityDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_eligibility_decisions_total",
				Help: "Eligibility decisions by outcome and rejection reason.",
			},
			[]string{"operation", "outcome", "reason"},
		),
		LoansCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_engine_loans_created_total",
				Help: "Total number of loans persisted by the creation transaction.",
			},
		),
		CreditScores: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_engine_credit_score",
				Help:    "Distribution of computed credit scores.",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		DebtReconciled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_debt_reconciled_total",
				Help: "Customers whose current debt was reconciled, by result.",
			},
			[]string{"result"},
		),
	}

	Ingestion = IngestionMetrics{
		Rows: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_ingestion_rows_total",
				Help: "Ingested rows by table and outcome.",
			},
			[]string{"table", "outcome"},
		),
		Runs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_ingestion_runs_total",
				Help: "Finished ingestion runs by final status.",
			},
			[]string{"status"},
		),
		RunDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_engine_ingestion_run_duration_seconds",
				Help:    "Wall time of ingestion runs.",
				Buckets: []float64{.5, 1, 5, 15, 30, 60, 300, 900},
			},
		),
		QueueBacklog: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "credit_engine_ingestion_queue_backlog",
				Help: "Ingestion runs waiting for a worker.",
			},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordEligibilityDecision(operation string, approved bool, reason string) {
	outcome := "rejected"
	if approved {
		outcome = "approved"
	}
	Underwriting.EligibilityDecisions.WithLabelValues(operation, outcome, reason).Inc()
}

func RecordLoanCreated() {
	Underwriting.LoansCreated.Inc()
}

func RecordCreditScore(score int) {
	Underwriting.CreditScores.Observe(float64(score))
}

func RecordDebtReconciled(result string) {
	Underwriting.DebtReconciled.WithLabelValues(result).Inc()
}

func RecordIngestedRows(table, outcome string, n int) {
	if n <= 0 {
		return
	}
	Ingestion.Rows.WithLabelValues(table, outcome).Add(float64(n))
}

func RecordIngestionRun(status string, duration time.Duration) {
	Ingestion.Runs.WithLabelValues(status).Inc()
	Ingestion.RunDuration.Observe(duration.Seconds())
}

func SetIngestionBacklog(n int) {
	Ingestion.QueueBacklog.Set(float64(n))
}
