package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var defaultHistogramBucketsSeconds = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

// Collectors are built eagerly so recording is safe before Init (unit tests, cli commands)
var (
	once          sync.Once
	metricsRouter *chi.Mux

	// client requests are the ones sending to other service
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	contractCallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contract_call_latency_seconds",
			Help:    "Histogram of asset contract call durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"contract", "method", "status"},
	)

	remoteCallOutcomeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_call_outcome_count",
			Help: "Number of resolved remote calls split by workflow and outcome",
		},
		[]string{"kind", "outcome"},
	)

	stateTransitionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stake_state_transition_count",
			Help: "Number of committed stake ledger transitions split by target state",
		},
		[]string{"state"},
	)

	reconcileOutcomeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_outcome_count",
			Help: "Number of reconciled stake records split by the state they resolved to",
		},
		[]string{"outcome"},
	)

	// add a counter for the number of errors from the fail to push message into queue
	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	stuckStakesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stuck_stakes_count",
			Help: "Number of in-flight stake records found past the reconcile grace period",
		},
	)

	orphanedPayoutCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orphaned_reward_payout_count",
			Help: "Number of reward payouts confirmed after their claim lock was released",
		},
	)

	clockAnomalyCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reward_clock_anomaly_count",
			Help: "Number of reward computations where the clock was behind the last claim",
		},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of api request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "route", "status"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)
)

// Init registers the collectors and starts the metrics server.
func Init(metricsPort int) {
	once.Do(func() {
		registerMetrics()
		initMetricsRouter(metricsPort)
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

func registerMetrics() {
	prometheus.MustRegister(
		clientRequestDurationHistogram,
		contractCallLatency,
		remoteCallOutcomeCounter,
		stateTransitionCounter,
		reconcileOutcomeCounter,
		queueSendErrorCounter,
		pollerDurationHistogram,
		stuckStakesGauge,
		orphanedPayoutCounter,
		clockAnomalyCounter,
		apiRequestDuration,
		dbLatency,
	)
}

func statusOf(failure bool) Outcome {
	if failure {
		return Error
	}
	return Success
}

func RecordContractCallLatency(d time.Duration, contract, method string, failure bool) {
	contractCallLatency.WithLabelValues(contract, method, statusOf(failure).String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	dbLatency.WithLabelValues(method, statusOf(failure).String()).Observe(d.Seconds())
}

// RecordRemoteCallOutcome counts a resolved remote call. outcome is one of
// confirmed, failed, unconfirmed.
func RecordRemoteCallOutcome(kind, outcome string) {
	remoteCallOutcomeCounter.WithLabelValues(kind, outcome).Inc()
}

func RecordStateTransition(state string) {
	stateTransitionCounter.WithLabelValues(state).Inc()
}

// RecordReconcileOutcome counts a reconciled record. outcome is the resolved
// state, or "error" when reconciliation could not resolve it.
func RecordReconcileOutcome(outcome string) {
	reconcileOutcomeCounter.WithLabelValues(outcome).Inc()
}

func RecordStuckStakesCount(count int) {
	stuckStakesGauge.Set(float64(count))
}

func IncOrphanedPayouts() {
	orphanedPayoutCounter.Inc()
}

func IncClockAnomalies() {
	clockAnomalyCounter.Inc()
}

func RecordApiRequestDuration(d time.Duration, method, route string, statusCode int) {
	apiRequestDuration.WithLabelValues(method, route, strconv.Itoa(statusCode)).Observe(d.Seconds())
}

// StartClientRequestDurationTimer starts a timer to measure outgoing client request duration.
func StartClientRequestDurationTimer(baseUrl, method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		clientRequestDurationHistogram.WithLabelValues(
			baseUrl,
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
