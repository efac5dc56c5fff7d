package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"preview-generator/internal/builder"
	"preview-generator/internal/converter"
	"preview-generator/internal/filesystem"
	"preview-generator/internal/handlers"
	"preview-generator/internal/index"
	"preview-generator/internal/logging"
	"preview-generator/internal/memory"
	"preview-generator/internal/metrics"
	"preview-generator/internal/middleware"
	"preview-generator/internal/preview"
	"preview-generator/internal/startup"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Before any large allocation
	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"source": config.SourceDir,
		"cache":  config.CacheDir,
	}))

	if config.VipsEnabled {
		converter.InitVips()
	}

	// Artifact index (optional)
	var idx *index.Index
	if config.IndexEnabled {
		indexStart := time.Now()
		idx, err = index.New(context.Background(), config.DatabasePath)
		startup.LogIndexInit(time.Since(indexStart), err)
		if err != nil {
			idx = nil
		}
	}

	// Builders
	candidates := builder.DefaultCandidates(builder.Options{
		CacheDir:      config.PreviewDir,
		OfficeBinary:  config.OfficeBinary,
		OfficeTimeout: config.OfficeTimeout,
	})
	registry := builder.NewRegistry(candidates...)
	statuses := builderStatuses(candidates, registry)
	startup.LogBuilderInit(statuses, config.OfficeBinary)

	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Name)
	}
	metrics.InitializeMetrics(names)

	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()

	manager, err := preview.New(preview.Config{
		CacheDir:     config.PreviewDir,
		Registry:     registry,
		Index:        idx,
		DefaultSize:  config.PreviewSize,
		Backpressure: memMonitor,
	})
	if err != nil {
		startup.LogFatal("Failed to initialize preview manager: %v", err)
	}

	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(manager, time.Minute)
		collector.Start()
	}

	h := handlers.New(manager, config)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)
	compressed := middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)
	handler := middleware.CORS(config.CORSOrigins)(compressed)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Office conversions can take as long as OFFICE_TIMEOUT.
		WriteTimeout: config.OfficeTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	shutdownDone := make(chan struct{})
	go handleShutdown(shutdownDone, shutdownTargets{
		srv:         srv,
		metricsSrv:  metricsSrv,
		handlers:    h,
		collector:   collector,
		memMonitor:  memMonitor,
		idx:         idx,
		vipsEnabled: config.VipsEnabled,
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.RegisterRoutes(r)
	return r
}

// builderStatuses reports which candidates made it into the registry.
func builderStatuses(candidates []builder.Builder, registry *builder.Registry) []startup.BuilderStatus {
	registered := make(map[string]bool)
	for _, b := range registry.Builders() {
		registered[b.Name()] = true
	}

	statuses := make([]startup.BuilderStatus, 0, len(candidates))
	for _, b := range candidates {
		statuses = append(statuses, startup.BuilderStatus{
			Name:       b.Name(),
			Registered: registered[b.Name()],
			MimeTypes:  len(b.MimeTypes()),
			Kinds:      b.Capabilities().String(),
		})
	}
	return statuses
}

// shutdownTargets are the components stopped on SIGINT/SIGTERM, in order.
type shutdownTargets struct {
	srv         *http.Server
	metricsSrv  *http.Server
	handlers    *handlers.Handlers
	collector   *metrics.Collector
	memMonitor  *memory.Monitor
	idx         *index.Index
	vipsEnabled bool
}

func handleShutdown(done chan<- struct{}, t shutdownTargets) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := t.srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping background warm")
	t.handlers.Shutdown()
	startup.LogShutdownStepComplete("Background warm stopped")

	if t.metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := t.metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	if t.collector != nil {
		t.collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}
	t.memMonitor.Stop()

	if t.idx != nil {
		startup.LogShutdownStep("Closing index")
		if err := t.idx.Close(); err != nil {
			logging.Warn("Index close error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Index closed")
		}
	}

	if t.vipsEnabled {
		converter.ShutdownVips()
		startup.LogShutdownStepComplete("libvips shut down")
	}

	startup.LogShutdownComplete()
}
