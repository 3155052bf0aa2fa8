package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidstego/auth"
	"vidstego/config"
	"vidstego/failures"
	"vidstego/job"
	"vidstego/logger"
	"vidstego/payload"
	"vidstego/routes"
	"vidstego/storage"
	"vidstego/success"
	"vidstego/taskqueue"
	"vidstego/video"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (defaults to $VIDSTEGO_CONFIG)")
	flag.Parse()

	if err := config.Load(*configPath); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := setupLogging(); err != nil {
		logger.Fatalf("Failed to set up logging: %v", err)
	}
	defer logger.Close()

	logger.Info("Starting vidstego server initialization")

	if err := video.Register(); err != nil {
		logger.Errorf("Media tools unavailable, jobs will fail until fixed: %v", err)
	}

	if err := os.MkdirAll(config.GetDataDir(), 0755); err != nil {
		logger.Fatalf("Failed to create data directory: %v", err)
	}

	logger.Debug("Initializing payload database")
	if err := payload.Init(config.GetPayloadDBPath()); err != nil {
		logger.Fatalf("Failed to initialize payload store: %v", err)
	}
	defer payload.Close()

	logger.Debug("Initializing failures database")
	if err := failures.Init(config.GetFailuresDBPath()); err != nil {
		logger.Fatalf("Failed to initialize failure store: %v", err)
	}
	defer failures.Close()

	logger.Debug("Initializing success database")
	if err := success.Init(config.GetSuccessDBPath()); err != nil {
		logger.Fatalf("Failed to initialize success store: %v", err)
	}
	defer success.Close()
	logger.Info("Databases initialized successfully")

	mgr, err := storage.NewManager(config.GetUploadDir(), config.GetProcessedDir())
	if err != nil {
		logger.Fatalf("Failed to prepare storage: %v", err)
	}

	disp := taskqueue.NewDispatcher(config.GetWorkers())
	defer disp.Close()

	proc := job.NewProcessor(mgr, disp, job.Options{
		FallbackFPS: config.GetFallbackFPS(),
		Targets:     config.GetPublishTargets(),
	})

	api := &routes.API{
		Storage:        mgr,
		Processor:      proc,
		Dispatcher:     disp,
		MaxUploadBytes: config.GetMaxUploadBytes(),
		QueueTimeout:   config.GetQueueTimeout(),
	}
	if secret := config.GetAuthSecret(); secret != "" {
		api.Auth = &auth.VerifyConfig{
			SecretKey:      []byte(secret),
			ExpectedIssuer: config.GetAuthIssuer(),
			ClockSkew:      time.Minute,
		}
		logger.Info("Bearer token authentication enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cleanupRoutine(ctx, mgr, config.GetRetentionInterval(), config.GetRetentionMaxAge())

	srv := &http.Server{
		Addr:              config.GetListenAddr(),
		Handler:           routes.NewRouter(api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("vidstego server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown timed out, waiting for running jobs: %v", err)
	}
	// deferred store Close calls must not run under a live handler
	api.Wait()
	logger.Info("All requests finished")
}

func setupLogging() error {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if file := config.GetLogFile(); file != "" {
		return logger.Init(file, true)
	}
	return nil
}

// cleanupRoutine applies the retention policy to processed outputs and to
// every record store.
func cleanupRoutine(ctx context.Context, mgr *storage.Manager, interval, maxAge time.Duration) {
	logger.Infof("Cleanup routine started - every %v, max age %v", interval, maxAge)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup routine stopped due to context cancellation")
			return
		case <-ticker.C:
			runCleanup(mgr, maxAge)
		}
	}
}

func runCleanup(mgr *storage.Manager, maxAge time.Duration) {
	logger.Debugf("Running scheduled cleanup of entries older than %v", maxAge)

	if n, err := mgr.Sweep(maxAge); err != nil {
		logger.Errorf("Failed to sweep processed outputs: %v", err)
	} else if n > 0 {
		logger.Infof("Removed %d expired processed outputs", n)
	}
	if n, err := payload.CleanupOldRecords(maxAge); err != nil {
		logger.Errorf("Failed to cleanup old payloads: %v", err)
	} else if n > 0 {
		logger.Infof("Removed %d expired payload keys", n)
	}
	if err := success.CleanupOldRecords(maxAge); err != nil {
		logger.Errorf("Failed to cleanup old success records: %v", err)
	}
	if err := failures.CleanupOldRecords(maxAge); err != nil {
		logger.Errorf("Failed to cleanup old failure records: %v", err)
	}
}
