package query

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/endorses/routefilter/internal/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter serves the metrics registry over HTTP
type Exporter struct {
	metrics *Metrics
	addr    string
	mu      sync.Mutex
	server  *http.Server
	bound   string
}

// NewExporter creates an exporter listening on addr (":9090"). Port 0 picks
// a free port.
func NewExporter(metrics *Metrics, addr string) *Exporter {
	return &Exporter{metrics: metrics, addr: addr}
}

// Handler returns the HTTP handler with /metrics and /health
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.metrics.Registry(), promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", e.healthHandler)
	return mux
}

// Start begins serving in the background
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.server != nil {
		return nil
	}
	if e.metrics == nil {
		return errors.New("metrics exporter needs metrics")
	}

	ln, err := net.Listen("tcp", e.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", e.addr, err)
	}

	e.server = &http.Server{
		Handler:      e.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	e.bound = ln.Addr().String()

	server := e.server
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("Prometheus server error", "error", err)
		}
	}()

	logger.Info("Prometheus metrics enabled", "endpoint", fmt.Sprintf("http://%s/metrics", e.bound))
	return nil
}

// Addr returns the bound address once started
func (e *Exporter) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bound
}

// Shutdown stops the server
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.server == nil {
		return nil
	}

	err := e.server.Shutdown(ctx)
	e.server = nil
	e.bound = ""
	if err != nil {
		return fmt.Errorf("error shutting down Prometheus server: %w", err)
	}
	logger.Info("Prometheus metrics disabled")
	return nil
}

func (e *Exporter) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
