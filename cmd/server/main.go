// Juice Shop Coach - coaching state and recommendation server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/juice-coach/internal/api"
	"github.com/ashureev/juice-coach/internal/catalog"
	"github.com/ashureev/juice-coach/internal/coach"
	"github.com/ashureev/juice-coach/internal/config"
	"github.com/ashureev/juice-coach/internal/health"
	"github.com/ashureev/juice-coach/internal/hub"
	"github.com/ashureev/juice-coach/internal/identity"
	"github.com/ashureev/juice-coach/internal/juiceshop"
	"github.com/ashureev/juice-coach/internal/middleware"
	"github.com/ashureev/juice-coach/internal/store"
	"github.com/ashureev/juice-coach/internal/worker"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "store_backend", cfg.Store.Backend, "juice_shop_url", cfg.JuiceShopURL)

	// Initialize dependencies.
	kv, err := store.Open(context.Background(), cfg.Store)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := kv.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
	}()
	slog.Info("Store connected", "backend", cfg.Store.Backend)

	installationID, err := identity.EnsureInstallationID(context.Background(), kv)
	if err != nil {
		slog.Error("Failed to load installation id", "error", err)
		os.Exit(1)
	}

	hints, err := catalog.Load(cfg.HintCatalogPath)
	if err != nil {
		slog.Error("Failed to load hint catalog", "error", err, "path", cfg.HintCatalogPath)
		os.Exit(1)
	}
	slog.Info("Hint catalog loaded", "challenges", hints.Len())

	// Initialize services.
	opts := coach.Options{InstallationID: installationID, Logger: logger}
	if notifier := juiceshop.NewResetNotifier(cfg.Remote.ResetURL, cfg.Timeout.Remote, logger); notifier != nil {
		opts.Notifier = notifier
	} else {
		slog.Info("Remote reset notification disabled (REMOTE_RESET_URL not set)")
	}
	session := coach.NewSession(context.Background(), store.NewProgressStore(kv, logger), opts)
	defer session.Close()

	stateHub := hub.New(session, cfg.AllowedOrigins, logger)
	session.Subscribe(stateHub.StateChanged)

	// Initialize handlers.
	baseHandler := api.NewHandler(session, hints, logger)
	coachHandler := api.NewCoachHandler(baseHandler)
	healthHandler := api.NewHealthHandler(kv, cfg.Timeout.HealthCheck)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware(installationID))

	// Public routes.
	healthHandler.RegisterHealth(r)
	coachHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/state", stateHub.ServeHTTP)

	// WriteTimeout stays 0 so WebSocket connections are not cut.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start refresh worker.
	source := juiceshop.NewClient(cfg.JuiceShopURL, cfg.Timeout.Remote, logger)
	if !source.CheckConnection(ctx) {
		slog.Warn("Juice Shop not reachable yet, challenges will load on a later refresh", "url", cfg.JuiceShopURL)
	}
	worker.StartRefreshWorker(ctx, source, session, worker.RefreshConfig{
		Interval:        cfg.Refresh.Interval,
		AutoResetOnWipe: cfg.Refresh.AutoResetOnWipe,
	})

	// Start gRPC health (optional).
	var grpcHealth *health.Server
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			slog.Error("Failed to listen for gRPC health", "error", err, "port", cfg.GRPCPort)
			os.Exit(1)
		}
		grpcHealth = health.NewServer(kv, logger)
		grpcHealth.Run(ctx, cfg.Refresh.Interval)
		go func() {
			slog.Info("gRPC health listening", "addr", lis.Addr().String())
			if err := grpcHealth.Serve(lis); err != nil {
				slog.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stateHub.Close()
	if grpcHealth != nil {
		grpcHealth.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
