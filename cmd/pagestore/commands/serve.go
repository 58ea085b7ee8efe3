package commands

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dittokv/pagestore/internal/logger"
	"github.com/dittokv/pagestore/internal/seeds"
	"github.com/dittokv/pagestore/pkg/config"
	"github.com/dittokv/pagestore/pkg/driver"
	"github.com/dittokv/pagestore/pkg/metrics"
	"github.com/dittokv/pagestore/pkg/page"

	// Registers the Prometheus implementation of page.Metrics.
	_ "github.com/dittokv/pagestore/pkg/metrics/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the page file and serve it behind an HTTP API",
	Long: `Open the page store and run it behind a single-owner driver loop,
exposing a small HTTP API (insert/get/delete/defrag/stats) plus, when
metrics are enabled, Prometheus metrics.

Examples:
  # Serve with default configuration
  pagestore serve

  # Serve with a custom configuration file
  pagestore serve --config /etc/pagestore/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}
	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pageMetrics page.Metrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		pageMetrics = metrics.NewPageMetrics()
		logger.Info("metrics enabled")
	} else {
		logger.Info("metrics disabled")
	}

	store, err := page.Open(cfg.Page.Path, uint64(cfg.Page.Capacity),
		page.WithLogger(logger.Default()),
		page.WithMetrics(pageMetrics),
	)
	if err != nil {
		return fmt.Errorf("failed to open page store: %w", err)
	}
	defer store.Close()

	if cfg.Page.SeedsPath != "" {
		peers, err := seeds.Load(cfg.Page.SeedsPath)
		if err != nil {
			logger.Warn("failed to load seed peers", "path", cfg.Page.SeedsPath, "error", err)
		} else {
			logger.Info("seed peers loaded", "path", cfg.Page.SeedsPath, "count", len(peers))
		}
	}

	drv := driver.New(store, cfg.Driver.QueueDepth, driver.WithLogger(logger.Default()))
	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		drv.Run(ctx)
	}()

	var defragStop chan struct{}
	if cfg.Driver.AutoDefragInterval > 0 {
		defragStop = startAutoDefrag(ctx, drv, cfg.Driver.AutoDefragInterval)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.ListenPort),
		Handler: newRouter(drv, cfg),
	}

	serverDone := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serverDone <- err
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", "error", err)
	}

	if defragStop != nil {
		close(defragStop)
	}
	cancel()
	<-driverDone
	drv.Close()

	logger.Info("server stopped")
	return nil
}

// startAutoDefrag runs one Defrag step on a ticker for as long as ctx is
// alive. It returns a channel the caller can close to stop the ticker
// early, before ctx cancellation.
func startAutoDefrag(ctx context.Context, drv *driver.Driver, interval time.Duration) chan struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				if _, err := drv.Defrag(ctx); err != nil && !errors.Is(err, driver.ErrShutdown) {
					logger.Warn("auto-defrag step failed", "error", err)
				}
			}
		}
	}()
	return stop
}

func newRouter(drv *driver.Driver, cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Metrics.Enabled {
		if reg := metrics.GetRegistry(); reg != nil {
			r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		}
	}

	r.Route("/v1/entries/{key}", func(r chi.Router) {
		r.Put("/", putEntry(drv))
		r.Get("/", getEntry(drv))
		r.Delete("/", deleteEntry(drv))
	})
	r.Post("/v1/defrag", defragStep(drv))
	r.Get("/v1/stats", statsHandler(drv))

	return r
}

type putEntryRequest struct {
	Type   string `json:"type"`
	String string `json:"string,omitempty"`
	Int    uint64 `json:"integer,omitempty"`
	Blob   string `json:"blob,omitempty"` // base64
}

func putEntry(drv *driver.Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")

		var body putEntryRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		v, err := decodeValue(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		if err := drv.Insert(req.Context(), key, v); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func decodeValue(body putEntryRequest) (page.Value, error) {
	switch body.Type {
	case "string":
		return page.NewString(body.String), nil
	case "integer":
		return page.NewInteger(body.Int), nil
	case "blob":
		b, err := base64.StdEncoding.DecodeString(body.Blob)
		if err != nil {
			return page.Value{}, fmt.Errorf("invalid base64 blob: %w", err)
		}
		return page.NewBlob(b), nil
	default:
		return page.Value{}, fmt.Errorf("unknown value type %q", body.Type)
	}
}

func getEntry(drv *driver.Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		v, err := drv.Get(req.Context(), key)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, valueToJSON(v))
	}
}

func valueToJSON(v page.Value) map[string]any {
	switch v.Type() {
	case page.TypeString:
		return map[string]any{"type": "string", "string": v.StringValue()}
	case page.TypeInteger:
		return map[string]any{"type": "integer", "integer": v.IntegerValue()}
	case page.TypeBlob:
		return map[string]any{"type": "blob", "blob": base64.StdEncoding.EncodeToString(v.BlobValue())}
	default:
		return map[string]any{"type": "unknown"}
	}
}

func deleteEntry(drv *driver.Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		if err := drv.Delete(req.Context(), key); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func defragStep(drv *driver.Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reclaimed, err := drv.Defrag(req.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reclaimed": reclaimed})
	}
}

func statsHandler(drv *driver.Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		stats, err := drv.Stats(req.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, page.ErrKeyDoesNotExist):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, page.ErrKeyAlreadyExists):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, page.ErrNoSpaceLeft):
		writeError(w, http.StatusInsufficientStorage, err)
	case errors.Is(err, page.ErrInvalidDataType):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, driver.ErrShutdown):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// requestLogger logs each HTTP request at INFO, the way the server this
// CLI is modeled on logs its control-plane API.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		logger.Info("request completed",
			"request_id", middleware.GetReqID(req.Context()),
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
