package cmd

import (
	"context"
	"fmt"
	"image/color"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/presence/internal/adapters/camera"
	"github.com/okian/presence/internal/adapters/http/api"
	"github.com/okian/presence/internal/adapters/persistence"
	"github.com/okian/presence/internal/adapters/pipeline"
	"github.com/okian/presence/internal/adapters/vision"
	app "github.com/okian/presence/internal/app"
	"github.com/okian/presence/internal/config"
	"github.com/okian/presence/pkg/logger"
	"github.com/okian/presence/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the presence server",
	Long: `Run the recognition server: HTTP API, MJPEG stream, and the
camera pipeline. Configuration is layered from defaults, an optional YAML
file (PRESENCE_CONFIG), and PRESENCE_* environment variables.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	recorder, err := persistence.NewCSVRecorder(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("creating attendance recorder: %w", err)
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithBackend(backend),
		app.WithStore(store),
		app.WithRecorder(recorder),
		app.WithSourceFactory(newSourceFactory(cfg)),
		app.WithThreshold(cfg.Threshold),
		app.WithTopK(cfg.TopK),
		app.WithConfidenceFloor(cfg.ConfidenceFloor),
		app.WithFaceSize(cfg.FaceSize),
		app.WithPipelineOptions(
			pipeline.WithQueueCapacity(cfg.QueueSize),
			pipeline.WithMaxWidth(cfg.MaxFrameWidth),
			pipeline.WithJPEGQuality(cfg.JPEGQuality),
			pipeline.WithFrameInterval(time.Duration(cfg.FrameIntervalMS)*time.Millisecond),
			pipeline.WithDisplayDuration(time.Duration(cfg.DisplayMS)*time.Millisecond),
		),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	defer svc.Stop(context.Background())

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc).Router(),
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if serr := srv.ListenAndServe(); serr != nil && serr != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + serr.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newStore selects the roster store from configuration.
func newStore(ctx context.Context, cfg *config.Config) (persistence.Store, error) {
	switch cfg.StoreBackend {
	case "postgres":
		store, err := persistence.NewPgStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		return store, nil
	default:
		store, err := persistence.NewFileStore(filepath.Join(cfg.DataDir, "roster.gob"))
		if err != nil {
			return nil, fmt.Errorf("creating file store: %w", err)
		}
		return store, nil
	}
}

// newBackend selects the vision backend from configuration.
func newBackend(cfg *config.Config) (vision.Backend, error) {
	if cfg.SyntheticCamera {
		return vision.NewStubBackend(), nil
	}
	backend, err := vision.NewDlibBackend(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("creating vision backend: %w", err)
	}
	return backend, nil
}

// newSourceFactory selects how camera sources are opened from configuration.
func newSourceFactory(cfg *config.Config) app.SourceFactory {
	if cfg.SyntheticCamera {
		return func(ctx context.Context) (camera.Source, error) {
			// Two fixed colors stand in for two people. Enroll them with
			// solid-color images to see recognition end to end.
			return camera.NewSynthetic(
				color.RGBA{R: 220, A: 255},
				color.RGBA{B: 220, A: 255},
			), nil
		}
	}
	return func(ctx context.Context) (camera.Source, error) {
		return camera.OpenWebcam(cfg.CameraDevice)
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
