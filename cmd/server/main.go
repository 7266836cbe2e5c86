package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/copyleftdev/disperse/internal/config"
	"github.com/copyleftdev/disperse/internal/logging"
	"github.com/copyleftdev/disperse/internal/metrics"
	"github.com/copyleftdev/disperse/internal/server"
)

const (
	serviceName    = "disperse"
	serviceVersion = "1.0.0"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use standard logger as fallback if config loading fails
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize base logger
	logCfg := cfg.LoggerConfig()
	logCfg.Fields = map[string]interface{}{
		"service": serviceName,
		"version": serviceVersion,
	}
	serviceLogger, err := logging.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	collector, err := metrics.New(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)
	if err != nil {
		serviceLogger.Fatal("Failed to register metrics", map[string]interface{}{"error": err.Error()})
	}

	// Optimizers log through zap; route their output into the service logger.
	runner := cfg.Runner()
	runner.Logger = logging.NewZapLogger(serviceLogger)
	runner.Metrics = collector

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(serviceLogger, "/healthz", "/metrics"))
	r.Use(server.RecoveryMiddleware(serviceLogger))
	r.Use(server.ErrorHandler(serviceLogger))
	r.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	// Attach a request-scoped logger to every request
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := &logging.CtxLogger{Logger: serviceLogger.WithFields(map[string]interface{}{
				"request_id": middleware.GetReqID(r.Context()),
			})}
			next.ServeHTTP(w, r.WithContext(reqLogger.WithContext(r.Context())))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if l := logging.FromContext(r.Context()); l != nil {
			l.Debug("Health check")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := server.NewServer(cfg, serviceLogger, runner)
	srv.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		serviceLogger.Info("Starting server", map[string]interface{}{
			"address":     httpServer.Addr,
			"environment": cfg.Environment,
			"workers":     cfg.Optimization.WorkerCount,
		})

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	serviceLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		serviceLogger.Error("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
	}

	// Stop running optimizations, but not past the shutdown deadline.
	closed := make(chan struct{})
	go func() {
		if err := srv.Close(); err != nil {
			serviceLogger.Error("Error closing server resources", map[string]interface{}{"error": err.Error()})
		}
		close(closed)
	}()
	select {
	case <-closed:
		serviceLogger.Info("Server exited properly")
	case <-shutdownCtx.Done():
		serviceLogger.Warn("Optimizations still running at shutdown deadline")
		os.Exit(1)
	}
}
