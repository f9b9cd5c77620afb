package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "vetclinic"

var (
	once sync.Once

	rpcHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_handled_total",
			Help:      "Count of unary RPCs by method and status code.",
		},
		[]string{"method", "code"},
	)

	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Unary RPC latency by method.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method"},
	)

	appointmentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_created_total",
			Help:      "Count of appointment create attempts by outcome.",
		},
		[]string{"outcome"},
	)

	appointmentsUpdated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_updated_total",
			Help:      "Count of appointment updates by kind.",
		},
		[]string{"kind"},
	)

	availabilityDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "availability_compute_seconds",
			Help:      "Time to compute a 14 day availability window.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(rpcHandled, rpcDuration, appointmentsCreated, appointmentsUpdated, availabilityDuration)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// IncAppointmentCreated counts a create attempt. outcome is a failure kind
// name or "created".
func IncAppointmentCreated(outcome string) {
	appointmentsCreated.WithLabelValues(outcome).Inc()
}

func IncAppointmentUpdated(kind string) {
	appointmentsUpdated.WithLabelValues(kind).Inc()
}

func ObserveAvailability(d time.Duration) {
	availabilityDuration.Observe(d.Seconds())
}

func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		rpcDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		rpcHandled.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}
