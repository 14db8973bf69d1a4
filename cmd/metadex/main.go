package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/metadex-cloud/metadex/internal/config"
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	logpkg "github.com/metadex-cloud/metadex/internal/logger"
	"github.com/metadex-cloud/metadex/internal/metrics"
	"github.com/metadex-cloud/metadex/internal/plugins"
	"github.com/metadex-cloud/metadex/internal/store"
	storeMemory "github.com/metadex-cloud/metadex/internal/store/memory"
	storeRedis "github.com/metadex-cloud/metadex/internal/store/redis"
	"github.com/metadex-cloud/metadex/internal/taxonomy"
	chiTransport "github.com/metadex-cloud/metadex/internal/transport/chi"
	"github.com/metadex-cloud/metadex/internal/usecase/assemble"
	"github.com/metadex-cloud/metadex/internal/usecase/facets"
	healthuc "github.com/metadex-cloud/metadex/internal/usecase/health"
	organizationsuc "github.com/metadex-cloud/metadex/internal/usecase/organizations"
	"github.com/metadex-cloud/metadex/internal/usecase/prefetch"
	searchuc "github.com/metadex-cloud/metadex/internal/usecase/search"
	softwareuc "github.com/metadex-cloud/metadex/internal/usecase/software"
	"github.com/metadex-cloud/metadex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting metadex API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create entity store based on driver
	var entityStore store.Store
	switch cfg.Database.Driver {
	case "redis":
		entityStore, err = storeRedis.NewStore(storeRedis.Config{
			Addrs:     cfg.Database.Addrs,
			Password:  cfg.Database.Password,
			KeyPrefix: cfg.Storage.KeyPrefix,
		})
	case "memory":
		entityStore = storeMemory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create entity store", zap.Error(err))
	}
	defer entityStore.Close()

	// Wait for the store to be ready
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := entityStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Entity store not ready", zap.Error(err))
	}
	logger.Info("Connected to entity store")

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	// Plugin conversion table with background refresh
	pluginTable := plugins.NewTable(cfg.Plugins.MaxErrors)
	pluginSyncer := plugins.NewSyncer(
		pluginTable,
		plugins.NewStoreSource(entityStore),
		time.Duration(cfg.Plugins.SyncIntervalSec)*time.Second,
		logger,
	)
	go pluginSyncer.Run(logpkg.ContextWithLogger(ctx, logger))

	// Use case services
	resolver := taxonomy.NewGroupResolver()
	prefetcher := prefetch.New(entityStore, entity.CatalogSchema(), cfg.Prefetch.MaxHops)

	apiBase := cfg.API.Host + cfg.API.Context
	assembler := assemble.NewAssembler(
		apiBase+"/resources/details",
		assemble.NewFormatsGenerator(pluginTable, apiBase+"/execute"),
	)

	searchSvc := searchuc.NewService(
		entityStore,
		prefetcher,
		searchuc.NewPipeline(cfg.Search.Workers, cfg.Search.ParallelThreshold),
		resolver,
		assembler,
		facets.NewBuilder(resolver),
	)
	organizationsSvc := organizationsuc.NewService(entityStore, prefetcher, resolver)
	softwareSvc := softwareuc.NewService(entityStore, prefetcher)
	healthSvc := healthuc.New(entityStore, pluginTable)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, organizationsSvc, softwareSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BackofficeAuthMiddleware(cfg.Auth.BackofficeKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
