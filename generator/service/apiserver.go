package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yaron8/dashboard-feed/generator/config"
)

// APIServer exposes health and Prometheus metrics for the running feed.
// It carries no snapshot data; that goes through the sinks.
type APIServer struct {
	config   *config.Config
	server   *http.Server
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	requests *prometheus.CounterVec
}

func NewAPIServer(config *config.Config, reg *prometheus.Registry, logger *slog.Logger) (*APIServer, error) {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	if err := reg.Register(requests); err != nil {
		return nil, fmt.Errorf("failed to register request counter: %w", err)
	}

	api := &APIServer{
		config:   config,
		logger:   logger,
		gatherer: reg,
		requests: requests,
	}
	api.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      api.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return api, nil
}

// Handler returns the routed handler wrapped in the request middleware.
func (api *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			api.logger.Error("Error writing health check response", "error", err)
		}
	})

	mux.Handle("/metrics", promhttp.HandlerFor(api.gatherer, promhttp.HandlerOpts{}))

	return api.middleware(mux)
}

// Start serves until Shutdown is called. A Shutdown that wins the race makes
// Start return nil immediately.
func (api *APIServer) Start() error {
	api.logger.Info("APIServer starting", "port", api.config.Port)

	if err := api.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		api.logger.Error("Server failed to start", "error", err, "port", api.config.Port)
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (api *APIServer) Shutdown(ctx context.Context) error {
	return api.server.Shutdown(ctx)
}
