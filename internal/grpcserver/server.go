// Package grpcserver exposes the standard gRPC health service. A check pings
// the sheet store, so the answer reflects whether books can be read right now.
package grpcserver

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"readlist/internal/sheet"
)

// ServiceSheet is the named service for the sheet store. The empty name
// reports overall health, which is the same probe.
const ServiceSheet = "readlist.sheet"

const probeTimeout = 5 * time.Second

type Server struct {
	healthpb.UnimplementedHealthServer
	Store sheet.Store
}

func NewServer(store sheet.Store) *Server {
	return &Server{Store: store}
}

func (s *Server) Register(gs *grpc.Server) {
	healthpb.RegisterHealthServer(gs, s)
}

func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceSheet:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := sheet.Ping(ctx, s.Store); err != nil {
		log.Printf("[grpc] health probe failed: %v", err)
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
