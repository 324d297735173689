package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/media"
	"github.com/indieinfra/cloudshelf/server/handler/get"
	"github.com/indieinfra/cloudshelf/server/handler/remove"
	"github.com/indieinfra/cloudshelf/server/handler/upload"
	"github.com/indieinfra/cloudshelf/server/middleware"
	"github.com/indieinfra/cloudshelf/server/state"
	mediastore "github.com/indieinfra/cloudshelf/storage/media"
	mediafactory "github.com/indieinfra/cloudshelf/storage/media/factory"
	"github.com/indieinfra/cloudshelf/storage/record"
	recordfactory "github.com/indieinfra/cloudshelf/storage/record/factory"
)

const shutdownTimeout = 10 * time.Second

// StartServer builds the stores, serves HTTP until SIGINT or SIGTERM, then
// drains in-flight requests and closes the stores.
func StartServer(cfg *config.Config, logger *zap.SugaredLogger) error {
	st, err := initializeState(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup(st)

	bindAddress := net.JoinHostPort(cfg.Server.Address, fmt.Sprint(cfg.Server.Port))
	srv := &http.Server{
		Addr:              bindAddress,
		Handler:           NewRouter(st),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		st.Logger.Infow("serving http requests", "address", bindAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		st.Logger.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

// NewRouter wires every route onto a chi router.
func NewRouter(st *state.CloudshelfState) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging(st.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: st.Cfg.Server.Cors.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", get.HandleListImages(st))
	r.Get("/getvideo", get.HandleListVideos(st))
	r.Post("/cloud", upload.HandleImageUpload(st))
	r.Post("/upload", upload.HandleVideoUpload(st))
	r.Delete("/delete", remove.HandleImageDelete(st))
	r.Delete("/deletevid", remove.HandleVideoDelete(st))

	r.Get("/health", get.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func initializeState(cfg *config.Config, logger *zap.SugaredLogger) (*state.CloudshelfState, error) {
	if logger == nil {
		logger = zap.S()
	}

	mediaStore, err := initializeMediaStore(&cfg.Media)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}

	recordStore, err := initializeRecordStore(&cfg.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}

	if err := os.MkdirAll(cfg.Server.ScratchDir, 0o700); err != nil {
		closeStore(logger, "record", recordStore)
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}

	return &state.CloudshelfState{
		Cfg:         cfg,
		Validator:   media.NewValidator(int64(cfg.Server.Limits.MaxFileSize)),
		MediaStore:  mediaStore,
		RecordStore: recordStore,
		Logger:      logger,
	}, nil
}

func initializeMediaStore(cfg *config.Media) (mediastore.MediaStore, error) {
	return mediafactory.Create(cfg)
}

func initializeRecordStore(cfg *config.Records) (record.RecordStore, error) {
	return recordfactory.Create(cfg)
}

func cleanup(st *state.CloudshelfState) {
	if st == nil {
		return
	}

	closeStore(st.Logger, "record", st.RecordStore)
	closeStore(st.Logger, "media", st.MediaStore)
}

func closeStore(logger *zap.SugaredLogger, name string, store any) {
	closer, ok := store.(io.Closer)
	if !ok {
		return
	}

	if err := closer.Close(); err != nil {
		logger.Warnw("failed to close store", "store", name, "error", err)
	}
}
