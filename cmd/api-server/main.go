package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/eea-wise/waterdata-api/internal/config"
	"github.com/eea-wise/waterdata-api/internal/dremio"
	"github.com/eea-wise/waterdata-api/internal/httpclient"
	"github.com/eea-wise/waterdata-api/internal/items"
	"github.com/eea-wise/waterdata-api/internal/logger"
	"github.com/eea-wise/waterdata-api/internal/metrics"
	"github.com/eea-wise/waterdata-api/internal/observability"
	"github.com/eea-wise/waterdata-api/internal/ogc"
	"github.com/eea-wise/waterdata-api/internal/resultcache"
	"github.com/eea-wise/waterdata-api/internal/server"
	"github.com/eea-wise/waterdata-api/internal/waterbase"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// overriding listen address via flag
	addrFlag := flag.String("addr", "", "listen address")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "api-server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting api-server",
		"addr", cfg.Addr,
		"version", Version,
		"dremio", cfg.Dremio.Server,
		"result_cache", cfg.ResultCache.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dremioClient, err := dremio.New(dremio.Config{
		Server:     cfg.Dremio.Server,
		AuthServer: cfg.Dremio.AuthServer,
		Username:   cfg.Dremio.Username,
		Password:   cfg.Dremio.Password,
	}, httpclient.NewOutbound(cfg.Dremio.Timeout), appLog)
	if err != nil {
		appLog.Error("dremio client setup failed", "err", err)
		return 1
	}

	var cache waterbase.Cache
	if cfg.ResultCache.Enabled {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rc, err := resultcache.New(connectCtx, cfg.ResultCache.RedisAddr, cfg.ResultCache.TTL,
			resultcache.WithOpTimeout(cfg.ResultCache.OpTimeout))
		cancel()
		if err != nil {
			appLog.Error("result cache setup failed", "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		cache = rc
	}

	source := waterbase.NewSource(dremioClient, cache, appLog)

	coords, err := waterbase.NewCoordinateService(dremioClient, cfg.CoordCacheSz, appLog)
	if err != nil {
		appLog.Error("coordinate service setup failed", "err", err)
		return 1
	}

	registry := ogc.NewRegistry(time.Now().UTC())
	composer := items.NewComposer(registry, source, cfg.BaseURL)

	if cfg.Metrics.Enabled {
		p := metrics.Init(metrics.Config{
			Addr: cfg.Metrics.Addr,
			Path: cfg.Metrics.Path,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, p.Handler())
		msrv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		go func() {
			log.Printf("metrics: listening on %s%s", cfg.Metrics.Addr, cfg.Metrics.Path)
			if err := msrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server exited: %v", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := msrv.Shutdown(shutdownCtx); err != nil {
				log.Printf("metrics: shutdown error: %v", err)
			}
		}()
	}

	srv := server.New(cfg.BaseURL, appLog, registry, composer, source, coords, dremioClient)
	if err := server.Run(ctx, cfg.Addr, appLog, srv.Router()); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
