package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const readHeaderTimeout = 5 * time.Second

type Server struct {
	svr    *http.Server
	logger *zap.Logger
}

// Start serves the metrics of gatherer on addr in the background.
func Start(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s := &Server{
		svr: &http.Server{
			Handler:           mux,
			Addr:              addr,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: logger,
	}

	go func() {
		logger.Info("metrics server is starting", zap.String("addr", addr))
		if err := s.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped unexpectedly", zap.Error(err))
		}
	}()

	return s
}

func (s *Server) Stop(ctx context.Context) {
	if err := s.svr.Shutdown(ctx); err != nil {
		s.logger.Error("failed to stop metrics server", zap.Error(err))
	}
}
