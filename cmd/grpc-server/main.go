package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"readlist/internal/grpcserver"
	"readlist/internal/sheet"
	"readlist/pkg/utils"
)

// Standalone health endpoint for deployments that probe the sheet store
// without running the HTTP API.
func main() {
	appCfg, err := utils.LoadAppConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := sheet.Open(ctx, appCfg.Sheet)
	cancel()
	if err != nil {
		log.Fatalf("open sheet store: %v", err)
	}

	listener, err := net.Listen("tcp", appCfg.GrpcAddr)
	if err != nil {
		log.Fatalf("grpc listen failed: %v", err)
	}

	grpcServer := grpc.NewServer()
	grpcserver.NewServer(store).Register(grpcServer)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("shutdown signal received: %s", sig)
		grpcServer.GracefulStop()
	}()

	log.Printf("gRPC health server listening on %s (store=%s)", appCfg.GrpcAddr, appCfg.Sheet.Backend)
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatalf("grpc server stopped: %v", err)
	}
}
