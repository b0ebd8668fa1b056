package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orrn/printbridge/internal/api"
	"github.com/orrn/printbridge/internal/bridge"
	"github.com/orrn/printbridge/internal/config"
	"github.com/orrn/printbridge/internal/db"
	"github.com/orrn/printbridge/internal/platform"
	"github.com/orrn/printbridge/internal/server"
)

var version = "1.2.0"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("printbridged", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("daemon failed")
	}
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	debugDir := ""
	if cfg.Bridge.SaveDebugCopy {
		debugDir = cfg.Bridge.SaveOutputDir
	}
	temp, err := platform.NewTempFiles(debugDir)
	if err != nil {
		return err
	}

	saver, err := platform.NewDirSaver(cfg.Bridge.SaveOutputDir)
	if err != nil {
		return err
	}

	enumerator := platform.NewEnumerator()
	submitter := platform.NewSubmitter(temp, cfg.Print.RawPrinterPort, cfg.Print.SubmitTimeout)

	tracker := bridge.NewTracker(db.Jobs, platform.JobLogger{})
	executor := bridge.NewExecutor(enumerator, submitter, tracker, cfg.Print.FallbackToDefault)

	registry := server.NewRegistry(platform.NewConnLogger(db.Connections))

	router := server.NewRouter()
	server.NewHandlers(enumerator, executor, tracker, saver, temp).Register(router)

	srv := server.New(cfg.Bridge, router, registry, version)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	var adminSrv *http.Server
	if cfg.Admin.Enabled {
		engine, err := api.NewRouter(version, srv.Port, registry, enumerator)
		if err != nil {
			return fmt.Errorf("failed to build admin router: %w", err)
		}
		adminSrv = &http.Server{
			Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Admin.Port),
			Handler: engine,
		}
		go func() {
			log.Info().Str("addr", adminSrv.Addr).Msg("admin API listening")
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("admin API failed")
			}
		}()
	}

	go sweepTempFiles(ctx, temp)

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if adminSrv != nil {
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("admin API shutdown failed")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("bridge shutdown incomplete")
	}
	return nil
}

func sweepTempFiles(ctx context.Context, temp *platform.TempFiles) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			temp.Cleanup(24 * time.Hour)
		}
	}
}
