// Package grpcserver hosts an optional gRPC listener exposing the standard
// grpc.health.v1 service (and server reflection) backed by the runtime
// health check, for orchestrators that probe over gRPC.
//
// Example:
//
//	s := grpcserver.New(rt, logger)
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
