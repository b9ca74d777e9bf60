package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Arnob004/FileShare/internal/core/ports"
	"github.com/Arnob004/FileShare/internal/core/services"
	httphandlers "github.com/Arnob004/FileShare/internal/handlers/http"
	"github.com/Arnob004/FileShare/internal/infrastructure/middleware"
	"github.com/Arnob004/FileShare/internal/infrastructure/monitoring"
	repositories "github.com/Arnob004/FileShare/internal/infrastructure/repositories"
	signalws "github.com/Arnob004/FileShare/internal/infrastructure/signal"
	"github.com/Arnob004/FileShare/pkg/config"
	"github.com/Arnob004/FileShare/pkg/logger"
	"github.com/Arnob004/FileShare/pkg/qr"
	"github.com/Arnob004/FileShare/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/fileshare/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error
	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		// Fallback to defaults if no config file can be loaded
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	// Tracing
	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}
	defer tp.Shutdown(context.Background())

	// Repositories (Redis presence with memory fallback)
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	peerRepo := repoFactory.CreatePeerRepository()
	requestRepo := repoFactory.CreateRequestRepository()
	roomRepo := repoFactory.CreateRoomRepository()

	// Metrics
	var metrics *monitoring.PrometheusCollector
	if cfg.Monitoring.PrometheusEnabled {
		metrics = monitoring.NewPrometheusCollector()
	}

	// The websocket server doubles as the Notifier the services push
	// through, so it is built first and bound after.
	wsServer := signalws.NewWebSocketServer(signalws.Options{
		PingInterval:      cfg.Signal.PingInterval,
		PongTimeout:       cfg.Signal.PongTimeout,
		WriteTimeout:      cfg.Signal.WriteTimeout,
		MaxMessageSize:    cfg.RateLimiting.WebSocket.MaxMessageSizeBytes,
		MessagesPerSecond: wsRate(cfg),
		MessageBurst:      cfg.RateLimiting.WebSocket.Burst,
	}, log)

	presenceService := services.NewPresenceService(peerRepo, wsServer, collector(metrics))
	wsServer.Bind(signalws.Services{
		Identity:    services.NewIdentityService(peerRepo, cfg.Presence.UIDLength),
		Presence:    presenceService,
		Negotiation: services.NewNegotiationService(peerRepo, requestRepo, wsServer, collector(metrics)),
		Rooms:       services.NewRoomService(roomRepo, wsServer, collector(metrics)),
		Relay:       services.NewRelayService(roomRepo, wsServer, collector(metrics), cfg.Relay.MaxFileSizeBytes),
	})

	// Health checks
	health := monitoring.NewHealthChecker(2 * time.Second)
	health.AddCheck("repositories", repoFactory.HealthCheck)

	// HTTP surface
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	rosterHandler := httphandlers.NewRosterHandler(presenceService, roomRepo, qr.NewCodec(), health)
	rosterHandler.SetupRoutes(router)

	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting rendezvous server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("server failed", "error", err)
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
	log.Info("server stopped")
}

func wsRate(cfg *config.Config) float64 {
	if !cfg.RateLimiting.Enabled {
		return 0
	}
	return cfg.RateLimiting.WebSocket.MessagesPerSecond
}

func collector(metrics *monitoring.PrometheusCollector) ports.MetricsCollector {
	if metrics != nil {
		return metrics
	}
	return monitoring.NopCollector{}
}
