package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/espegro/logtrail/internal/logger"
)

// Server handles the Prometheus metrics HTTP endpoint
type Server struct {
	server *http.Server
	port   int
	log    *logger.Logger
}

// NewServer creates a new metrics server
func NewServer(port int) *Server {
	return &Server{
		port: port,
		log:  logger.Get("metrics"),
	}
}

// Start binds the port and serves /metrics in the background.
// Bind errors are returned; serve errors after that are logged.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html>
<head><title>logtrail Metrics</title></head>
<body>
<h1>logtrail Metrics Exporter</h1>
<p><a href="/metrics">Metrics</a></p>
</body>
</html>`)
	})

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("binding metrics port %d: %w", s.port, err)
	}

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.log.Info("Metrics server listening on :%d", s.port)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Metrics server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the metrics server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	s.log.Info("Shutting down metrics server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
