package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medialoom/socialpick/internal/api"
	"github.com/medialoom/socialpick/internal/api/handler"
	"github.com/medialoom/socialpick/internal/config"
	"github.com/medialoom/socialpick/internal/extractor"
	"github.com/medialoom/socialpick/internal/fetch"
	"github.com/medialoom/socialpick/internal/hooks"
	"github.com/medialoom/socialpick/internal/remux"
	"github.com/medialoom/socialpick/pkg/viewer"
	"github.com/medialoom/socialpick/pkg/ytdlp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("socialpick %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting socialpick",
		"version", Version,
		"build_time", BuildTime,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Storage.TempPath, 0755); err != nil {
		logger.Error("failed to create temp directory", "error", err)
		os.Exit(1)
	}

	fetchClient, err := fetch.NewClient(cfg.Proxy, logger)
	if err != nil {
		logger.Error("failed to create http client", "error", err)
		os.Exit(1)
	}

	remuxer, err := remux.New(cfg.Tools, cfg.Storage, fetchClient, logger)
	if err != nil {
		logger.Error("failed to initialize remuxer", "error", err)
		os.Exit(1)
	}

	var proxyAddr string
	if cfg.Proxy.Enabled() {
		proxyAddr = cfg.Proxy.Addr()
	}
	ytdlpClient := ytdlp.NewClient(cfg.Tools.YtdlpPath, proxyAddr, cfg.Tools.ExecTimeout, logger)

	registry := hooks.NewRegistry(cfg.Storage.HookTTL, logger)

	extractors := extractor.NewSet(extractor.Deps{
		Fetch:  fetchClient,
		Remux:  remuxer,
		Ytdlp:  ytdlpClient,
		Viewer: viewer.New(cfg.Viewer.URLTemplate),
		Tools:  cfg.Tools,
		Tokens: cfg.Tokens,
		Logger: logger,
	})

	resolveHandler := handler.NewResolveHandler(extractors, registry, logger)
	healthHandler := handler.NewHealthHandler(registry)

	router := api.NewRouter(resolveHandler, healthHandler, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Fire remaining release hooks so no temp files outlive the process.
	registry.Close()

	logger.Info("shutdown complete")
}
