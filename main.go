package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/database"
	"photo-catalog/internal/exifmeta"
	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/handlers"
	"photo-catalog/internal/indexer"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/media"
	"photo-catalog/internal/memory"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/middleware"
	"photo-catalog/internal/startup"
)

const (
	shutdownTimeout = 30 * time.Second
	metricsInterval = time.Minute
)

func main() {
	startTime := time.Now()

	configPath := flag.String("config", "", "path to the YAML configuration file (default $CONFIG_FILE or config.yaml)")
	flag.Parse()

	config, err := startup.LoadConfig(*configPath)
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	memory.Configure(config.Memory.Limit, config.Memory.Ratio)

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, runtime.Version()).Set(1)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabaseOptions())
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("Database close error: %v", err)
		}
	}()
	startup.LogDatabaseInit(db.Driver(), time.Since(dbStart))

	thumbGen := media.NewThumbnailGenerator(config.ThumbnailDir, config.ThumbnailsEnabled)
	startup.LogThumbnailInit(config.ThumbnailsEnabled)

	startup.LogIndexerInit(config.Sync)
	builder := catalog.NewBuilder(config.AllowedExtensions, exifmeta.NewExtractor())
	builder.SetWorkers(config.Sync.Workers)
	idx := indexer.New(builder, db, config.UploadDir, config.Sync.Interval)
	idx.SetOnComplete(func(result catalog.SyncResult, err error) {
		if err != nil {
			logging.Warn("Catalog sync finished with errors (%d inserted, %d failed): %v", result.Inserted, result.Failed, err)
			return
		}
		logging.Info("Catalog sync complete: %d inserted, %d already catalogued", result.Inserted, result.Skipped)
	})
	if err := idx.Start(config.Sync.OnStart); err != nil {
		startup.LogFatal("Failed to start catalog sync: %v", err)
	}
	startup.LogIndexerStarted()

	var watcher *indexer.Watcher
	if config.Sync.Watch {
		watcher = indexer.NewWatcher(config.UploadDir, config.AllowedExtensions, idx.TriggerIndex)
		watcher.SetDebounce(config.Sync.Debounce)
		if err := watcher.Start(); err != nil {
			logging.Warn("Filesystem watcher unavailable, relying on periodic sync: %v", err)
			watcher = nil
		}
	}

	collector := metrics.NewCollector(db, metricsInterval).WithCache(thumbGen)
	collector.Start()

	h := handlers.New(db, idx, thumbGen, config)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.Server.LogStaticFiles, config.Server.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.Server.LogStaticFiles
	loggingConfig.LogHealthChecks = config.Server.LogHealthChecks

	var handler http.Handler = router
	if config.App.MaxContentLength > 0 {
		handler = limitBody(handler, config.App.MaxContentLength)
	}
	handler = middleware.Logger(loggingConfig)(handler)

	srv := &http.Server{
		Addr:              config.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	servers := []*http.Server{srv}
	if config.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		servers = append(servers, &http.Server{
			Addr:              config.MetricsAddr(),
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	startup.LogServerStarted(startup.ServerStartedInfo{
		Addr:            config.Addr(),
		MetricsAddr:     config.MetricsAddr(),
		MetricsEnabled:  config.Metrics.Enabled,
		StartupDuration: time.Since(startTime),
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdown(servers, idx, watcher, collector, ctx.Err() != nil)
		return nil
	})

	if err := g.Wait(); err != nil {
		logging.Error("Server error: %v", err)
		os.Exit(1)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.RegisterRoutes(r)
	return r
}

// limitBody caps request bodies, mirroring app.max_content_length.
func limitBody(next http.Handler, n int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		next.ServeHTTP(w, r)
	})
}

func shutdown(servers []*http.Server, idx *indexer.Indexer, watcher *indexer.Watcher, collector *metrics.Collector, signaled bool) {
	reason := "server error"
	if signaled {
		reason = "signal"
	}
	sd := startup.BeginShutdown(reason)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if watcher != nil {
		sd.Step("Filesystem watcher stopped", watcher.Stop)
	}
	sd.Step("Catalog sync stopped", idx.Stop)
	sd.Step("Metrics collector stopped", collector.Stop)
	sd.Step("HTTP servers stopped", func() {
		for _, srv := range servers {
			if err := srv.Shutdown(ctx); err != nil {
				logging.Warn("Server shutdown error: %v", err)
			}
		}
	})

	sd.Done()
}
