package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/wippyai/citadel-abi/config"
	"github.com/wippyai/citadel-abi/metrics"
	"github.com/wippyai/citadel-abi/transport"
)

const shutdownTimeout = 5 * time.Second

// newRouter serves the metrics and health endpoints.
func newRouter(store *transport.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"objects": store.Len(),
		})
	})
	return r
}

func newGRPCServer(cfg config.Config, store *transport.Store, log *zap.Logger) *grpc.Server {
	var opts []grpc.ServerOption
	if n := cfg.Transport.MaxMsgBytes; n > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(n), grpc.MaxSendMsgSize(n))
	}
	gs := grpc.NewServer(opts...)
	transport.RegisterRelayServer(gs, &transport.Server{Store: store, Logger: log.Named("relay")})
	return gs
}

// runServer serves the relay over gRPC and the metrics endpoint over HTTP
// until ctx is done or either server fails.
func runServer(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	metrics.Register()
	store := transport.NewStore()

	lis, err := net.Listen("tcp", cfg.Serve.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Serve.GRPCAddr, err)
	}
	gs := newGRPCServer(cfg, store, log)

	hs := &http.Server{
		Addr:              cfg.Serve.HTTPAddr,
		Handler:           newRouter(store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		log.Info("relay listening", zap.String("addr", lis.Addr().String()))
		errc <- gs.Serve(lis)
	}()
	go func() {
		log.Info("metrics listening", zap.String("addr", hs.Addr))
		if err := hs.ListenAndServe(); !stderrors.Is(err, http.ErrServerClosed) {
			errc <- err
			return
		}
		errc <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errc:
		log.Error("server failed", zap.Error(err))
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = hs.Shutdown(sctx)
	gs.GracefulStop()
	return err
}
