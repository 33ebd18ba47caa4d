package fabric

import (
	"context"
	"time"

	"corvusdb/internal/metrics"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// deliveryInterceptor instruments inbound Deliver RPCs. The fabric serves
// a single unary method, so there is no per-method labelling; results are
// broken out by status code only.
func deliveryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		metrics.FabricDeliveryDuration.Observe(time.Since(start).Seconds())
		metrics.FabricDeliveryResults.WithLabelValues(status.Code(err).String()).Inc()

		return resp, err
	}
}

// timeoutInterceptor bounds handler time for every inbound RPC.
func timeoutInterceptor(d time.Duration) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}
