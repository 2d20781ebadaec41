package metrics

import (
	"net/http"

	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the custom Prometheus metrics of the adoption service.
type Manager struct {
	Registry                 *prometheus.Registry
	RequestsSubmittedTotal   prometheus.Counter
	RequestsCancelledTotal   prometheus.Counter
	AdoptionsApprovedTotal   prometheus.Counter
	RequestsRejectedTotal    prometheus.Counter
	ApprovalConflictsTotal   prometheus.Counter
	HTTPRequestLatency       *prometheus.HistogramVec
	HTTPRequestErrorsTotal   *prometheus.CounterVec
}

func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	requestsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "adoption_requests_submitted_total",
		Help:      "Total number of adoption requests submitted.",
	})
	requestsCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "adoption_requests_cancelled_total",
		Help:      "Total number of adoption requests cancelled.",
	})
	adoptionsApproved := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "adoptions_approved_total",
		Help:      "Total number of approved adoptions.",
	})
	requestsRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "adoption_requests_rejected_total",
		Help:      "Total number of rejected adoption requests.",
	})
	approvalConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approval_conflicts_total",
		Help:      "Optimistic-lock conflicts observed on the approval path.",
	})
	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_latency_seconds",
		Help:      "Latency of HTTP requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	httpErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_errors_total",
		Help:      "Total number of HTTP errors by route and status.",
	}, []string{"route", "status"})

	registry.MustRegister(
		requestsSubmitted,
		requestsCancelled,
		adoptionsApproved,
		requestsRejected,
		approvalConflicts,
		httpLatency,
		httpErrors,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:               registry,
		RequestsSubmittedTotal: requestsSubmitted,
		RequestsCancelledTotal: requestsCancelled,
		AdoptionsApprovedTotal: adoptionsApproved,
		RequestsRejectedTotal:  requestsRejected,
		ApprovalConflictsTotal: approvalConflicts,
		HTTPRequestLatency:     httpLatency,
		HTTPRequestErrorsTotal: httpErrors,
	}
}

// StartServer exposes /metrics on its own port.
func StartServer(port string, log logger.Logger, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server failed: %v", err)
		}
	}()

	return srv
}
