package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"geosales-dashboard/internal/config"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/middleware"
	"geosales-dashboard/internal/observability"
	"geosales-dashboard/internal/server"
	"geosales-dashboard/internal/services"
	"geosales-dashboard/internal/store"
	"geosales-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	warmTimeout   = 60 * time.Second
	cacheMaxAge   = "no-cache"
)

// dashboardHandler lists the stored datasets on every render so a new
// upload shows up after a reload.
func dashboardHandler(analytics *services.Analytics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		files, err := analytics.Files(ctx)
		if err != nil {
			logger.Error("list datasets", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Cache-Control", cacheMaxAge)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Dashboard(files, r.URL.Query().Get("file")).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func openStore(cfg config.StorageConfig) (store.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLitePath)
	case "files":
		return store.NewFileStore(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func newAnalytics(cfg *config.Config, st store.Store, logger *slog.Logger) *services.Analytics {
	return services.NewAnalytics(st, services.Options{
		CacheDir:       cfg.Storage.CacheDir,
		MapParams:      geo.Params{Eps: cfg.Clustering.MapEps, MinSamples: cfg.Clustering.MapMinSamples},
		ZoneParams:     geo.Params{Eps: cfg.Clustering.ZoneEps, MinSamples: cfg.Clustering.ZoneMinSamples},
		LabelCacheSize: cfg.Clustering.LabelCacheSize,
		Logger:         logger,
	})
}

func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics, logger),
	}

	srv := server.NewServer(analytics, logger, templateHandlers, server.Options{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"storage", cfg.Storage.Backend,
		"map_params", fmt.Sprintf("eps=%g min_samples=%d", cfg.Clustering.MapEps, cfg.Clustering.MapMinSamples),
		"zone_params", fmt.Sprintf("eps=%g min_samples=%d", cfg.Clustering.ZoneEps, cfg.Clustering.ZoneMinSamples),
	)

	st, err := openStore(cfg.Storage)
	if err != nil {
		logger.Error("failed to open dataset store", "error", err)
		os.Exit(1)
	}

	analytics := newAnalytics(cfg, st, logger)

	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	start := time.Now()
	if err := analytics.Warm(ctx); err != nil {
		logger.Warn("dataset warm-up incomplete", "error", err)
	}
	cancel()
	logger.Info("datasets loaded", "duration", time.Since(start))

	var watcher *store.Watcher
	if fs, ok := st.(*store.FileStore); ok && cfg.Storage.WatchUploads {
		watcher, err = store.NewWatcher(fs.Dir(), func(name string) {
			analytics.Refresh(context.Background(), name)
		}, logger)
		if err != nil {
			logger.Warn("upload watcher disabled", "error", err)
		}
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	if watcher != nil {
		gracefulServer.RegisterShutdownHook("watcher", func(ctx context.Context) error {
			return watcher.Close()
		})
	}
	gracefulServer.RegisterShutdownHook("store", func(ctx context.Context) error {
		logger.Info("closing dataset store")
		return st.Close()
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
