package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/remindkit/remindd/internal/health"
)

var (
	// Dispatcher metrics

	RemindersFiredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remindd",
		Name:      "reminders_fired_total",
		Help:      "Total due reminders processed by the dispatcher, by outcome.",
	}, []string{"outcome"})

	DispatchCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "remindd",
		Name:      "dispatch_cycle_duration_seconds",
		Help:      "Time taken for one dispatcher cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// Sender metrics

	DeliveryPickupLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "remindd",
		Name:      "delivery_pickup_latency_seconds",
		Help:      "Time from delivery creation to a sender claiming it.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	DeliverySendDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "remindd",
		Name:      "delivery_send_duration_seconds",
		Help:      "Duration of reminder email sends.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"status"})

	DeliveriesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "remindd",
		Name:      "sender_deliveries_in_flight",
		Help:      "Number of deliveries currently being sent.",
	})

	DeliveriesCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remindd",
		Name:      "deliveries_completed_total",
		Help:      "Total deliveries finished, by outcome.",
	}, []string{"outcome"})

	// Reaper metrics

	ReaperRescuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remindd",
		Name:      "reaper_rescued_total",
		Help:      "Total stale deliveries handled by the reaper.",
	}, []string{"action"})

	ReaperCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "remindd",
		Name:      "reaper_cycle_duration_seconds",
		Help:      "Time taken for one reaper cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// Sender lifecycle

	SenderStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "remindd",
		Name:      "sender_start_time_seconds",
		Help:      "Unix timestamp when the sender started.",
	})

	SenderShutdownsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "remindd",
		Name:      "sender_shutdowns_total",
		Help:      "Number of times the sender has shut down.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "remindd",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remindd",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		RemindersFiredTotal,
		DispatchCycleDuration,
		DeliveryPickupLatency,
		DeliverySendDuration,
		DeliveriesInFlight,
		DeliveriesCompletedTotal,
		ReaperRescuedTotal,
		ReaperCycleDuration,
		SenderStartTime,
		SenderShutdownsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves /metrics plus liveness and readiness probes on its own port.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		writeHealth(w, status, result)
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, status int, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}
