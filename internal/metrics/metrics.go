package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry served at /metrics.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// OperationDuration is fed by obs.Time for every timed operation.
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "operation_duration_seconds", Help: "Duration of internal operations in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"op", "outcome"},
	)

	OrderingsEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "optimizer_orderings_evaluated_total", Help: "Stop orderings scored by the optimizer."},
	)
	ItinerariesPlanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "itineraries_planned_total", Help: "Trip planning requests by outcome."},
		[]string{"outcome"},
	)
	NarrativeFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "narrative_fallbacks_total", Help: "Itineraries whose narrative fell back to the plain description."},
	)
	WindowInferenceFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "window_inference_failures_total", Help: "Plans computed without ideal windows because inference failed."},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(OperationDuration)
		Registry.MustRegister(OrderingsEvaluated)
		Registry.MustRegister(ItinerariesPlanned)
		Registry.MustRegister(NarrativeFallbacks)
		Registry.MustRegister(WindowInferenceFailures)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
