package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()
}

func TestUnaryServerInterceptor_CountsByCode(t *testing.T) {
	method := "/vetclinic.v1.SchedulingService/TestMethod"
	interceptor := UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: method}

	before := testutil.ToFloat64(rpcHandled.WithLabelValues(method, codes.InvalidArgument.String()))

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.InvalidArgument, "bad")
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}

	after := testutil.ToFloat64(rpcHandled.WithLabelValues(method, codes.InvalidArgument.String()))
	if after != before+1 {
		t.Fatalf("counter = %v, want %v", after, before+1)
	}
}

func TestAppointmentCounters(t *testing.T) {
	before := testutil.ToFloat64(appointmentsCreated.WithLabelValues("created"))
	IncAppointmentCreated("created")
	if got := testutil.ToFloat64(appointmentsCreated.WithLabelValues("created")); got != before+1 {
		t.Fatalf("created = %v, want %v", got, before+1)
	}

	ObserveAvailability(5 * time.Millisecond)
	if n := testutil.CollectAndCount(availabilityDuration); n != 1 {
		t.Fatalf("histogram series = %d, want 1", n)
	}
}
