package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/silviu20/Web-App-sub001/internal/config"
	"github.com/silviu20/Web-App-sub001/internal/engine"
	apperrors "github.com/silviu20/Web-App-sub001/internal/errors"
	"github.com/silviu20/Web-App-sub001/internal/logging"
	"github.com/silviu20/Web-App-sub001/internal/metrics"
	"github.com/silviu20/Web-App-sub001/internal/server"
	"github.com/silviu20/Web-App-sub001/internal/service"
	"github.com/silviu20/Web-App-sub001/internal/store"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	serviceLogger := logger.WithFields(map[string]interface{}{
		"service": "experiment-config-server",
		"version": version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	repo, closeRepo, err := openRepo(ctx, cfg, serviceLogger)
	if err != nil {
		serviceLogger.Fatal("Failed to open store", map[string]interface{}{"error": err.Error()})
	}
	defer closeRepo()

	client, err := engine.NewClient(engine.Options{
		BaseURL:       cfg.Engine.URL,
		APIKey:        cfg.Engine.APIKey,
		Timeout:       cfg.Engine.Timeout,
		HealthTimeout: cfg.Engine.HealthTimeout,
		RateLimit:     cfg.Engine.RateLimit,
		MaxRetries:    cfg.Engine.MaxRetries,
		Metrics:       m,
	})
	if err != nil {
		serviceLogger.Fatal("Failed to create engine client", map[string]interface{}{"error": err.Error()})
	}

	svc := service.New(repo, engine.NewAPI(client, cfg.Engine.HealthTimeout), serviceLogger, m, service.Options{
		DefaultNoisy:   cfg.Synthesis.DefaultNoisy,
		ForceGPU:       cfg.Synthesis.ForceGPU,
		HealthCacheTTL: cfg.Cache.HealthCacheTTL,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(apperrors.RecoveryMiddleware(serviceLogger))
	r.Use(apperrors.ErrorHandler(serviceLogger))
	r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	// Attach a request scoped logger
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := serviceLogger.WithField("request_id", middleware.GetReqID(r.Context()))
			reqCtx := (&logging.CtxLogger{Logger: reqLogger}).WithContext(r.Context())
			next.ServeHTTP(w, r.WithContext(reqCtx))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := server.NewServer(cfg, svc, serviceLogger)
	srv.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ErrorLog:     logger.StdLog(),
	}

	go func() {
		serviceLogger.Info("Starting server", map[string]interface{}{
			"address":   httpServer.Addr,
			"engine":    cfg.Engine.URL,
			"db_driver": cfg.Database.Driver,
		})

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serviceLogger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	<-ctx.Done()
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		serviceLogger.Error("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
		return
	}

	serviceLogger.Info("server exited properly")
}

// openRepo selects the configured store and wraps it in the read cache.
func openRepo(ctx context.Context, cfg *config.Config, logger *logging.Logger) (store.Repo, func(), error) {
	var (
		repo    store.Repo
		db      *sql.DB
		err     error
		closeDB = func() {}
	)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err = store.Connect(ctx, cfg.Database.DSN, store.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return nil, nil, err
		}
		closeDB = func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close database", map[string]interface{}{"error": err.Error()})
			}
		}
		if cfg.Database.Migrate {
			if err := store.RunMigrations(ctx, db); err != nil {
				closeDB()
				return nil, nil, err
			}
			logger.Info("Database migrations applied")
		}
		repo = &store.PGRepo{DB: db}
	default:
		logger.Warn("Using in-memory store; data is lost on restart")
		repo = store.NewMemoryRepo()
	}

	if cfg.Cache.Size <= 0 {
		return repo, closeDB, nil
	}
	cached, err := store.NewCachedRepo(repo, cfg.Cache.Size)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return cached, closeDB, nil
}
