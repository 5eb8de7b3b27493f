package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	service "tg_auction/internal/domain/service/auction"
	"tg_auction/pkg/contextx"
	"tg_auction/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const httpServerReadHeaderTimeout = 5 * time.Second

// SnapshotSource is the in-memory side of the snapshot writer.
type SnapshotSource interface {
	Last() *service.Snapshot
}

// Server exposes the auction read model over HTTP for the stream overlay.
type Server struct {
	listenAddress string
	snapshots     SnapshotSource
}

func NewServer(listenAddress string, snapshots SnapshotSource) Server {
	return Server{
		listenAddress: listenAddress,
		snapshots:     snapshots,
	}
}

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/auction", s.getV1Auction)
	})
}

func (s Server) getV1Auction(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Last()
	if snap == nil {
		http.Error(w, "no auction yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logger(r.Context()).Warn("overlay response encode", logx.Error(err))
	}
}

func (s Server) Run(ctx context.Context) error {
	router := chi.NewRouter()
	s.RegisterRoutes(router)

	httpServer := &http.Server{
		//nolint:exhaustruct
		Addr:              s.listenAddress,
		Handler:           router,
		ReadHeaderTimeout: httpServerReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		if err := httpServer.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger(ctx).Error("httpServer.Shutdown", logx.Error(err))
		}
	}()

	logger(ctx).Info("overlay server started", slog.String("address", s.listenAddress))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer.ListenAndServe: %w", err)
	}

	logger(ctx).Info("overlay server stopped")

	return nil
}
