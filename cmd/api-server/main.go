package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"readlist/internal/books"
	"readlist/internal/grpcserver"
	"readlist/internal/history"
	"readlist/internal/progress"
	"readlist/internal/sheet"
	synchub "readlist/internal/sync"
	"readlist/internal/web"
	"readlist/pkg/database"
	"readlist/pkg/utils"
)

func main() {
	appCfg, err := utils.LoadAppConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := sheet.Open(openCtx, appCfg.Sheet)
	cancelOpen()
	if err != nil {
		log.Fatalf("open sheet store: %v", err)
	}

	hub := synchub.NewHub()
	historyRepo := history.NewRepo(db)
	ctl := progress.New(store,
		progress.WithAllowEmptyAuthor(appCfg.AllowEmptyAuthor),
		progress.WithRecorder(historyRepo),
		progress.WithPublisher(hub),
	)

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	// Titles may contain '/', which clients send as %2F.
	router.UseRawPath = true
	router.UnescapePathValues = true

	router.GET("/ws", synchub.WSHandler(hub))
	tcpSrv := synchub.NewServer(appCfg.SyncAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": appCfg.Sheet.Backend, "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := sheet.Ping(ctx, store); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"store_error": err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"store":       "ok",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	web.NewHandler(ctl).RegisterRoutes(router.Group(""))

	api := router.Group("/api")
	books.NewHandler(ctl).RegisterRoutes(api)
	history.NewHandler(historyRepo).RegisterRoutes(api)

	httpSrv := &http.Server{
		Addr:              appCfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcLn, err := net.Listen("tcp", appCfg.GrpcAddr)
	if err != nil {
		log.Fatalf("grpc listen failed: %v", err)
	}
	grpcSrv := grpc.NewServer()
	grpcserver.NewServer(store).Register(grpcSrv)

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("gRPC health listening on %s", appCfg.GrpcAddr)
		if err := grpcSrv.Serve(grpcLn); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP server listening on %s (store=%s)", appCfg.HTTPAddr, appCfg.Sheet.Backend)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}
	hub.Close()
	grpcSrv.GracefulStop()

	wg.Wait()
	log.Println("servers stopped")
}
