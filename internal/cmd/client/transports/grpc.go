package transports

import (
	"context"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthTransport queries the server's grpc.health.v1 service.
type HealthTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewHealthTransport constructs a HealthTransport using the provided dialer.
func NewHealthTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *HealthTransport {
	return &HealthTransport{dial: dial}
}

// Check returns the serving status of service ("" for the whole server).
func (t *HealthTransport) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	defer func() { _ = conn.Close() }()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
