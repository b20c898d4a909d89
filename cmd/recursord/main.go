package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dnsscience/recursord/internal/cache"
	"github.com/dnsscience/recursord/internal/config"
	"github.com/dnsscience/recursord/internal/metrics"
	"github.com/dnsscience/recursord/internal/resolver"
	"github.com/dnsscience/recursord/internal/server"
)

var (
	configPath  = flag.String("config", "", "Path to YAML config file (optional)")
	metricsAddr = flag.String("metrics", "", "Prometheus metrics listen address (optional)")
	upstream    = flag.String("upstream", "", "Upstream-facing UDP bind address (overrides config)")
	stats       = flag.Bool("stats", true, "Print statistics periodically")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: recursord [flags] <bind-address>")
		os.Exit(1)
	}
	bindAddr := flag.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	cfg.ClientAddr = bindAddr
	if *upstream != "" {
		cfg.UpstreamAddr = *upstream
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	var cacheBackend cache.Cache
	switch cfg.CacheBackend {
	case config.BackendSharded:
		cacheBackend = cache.NewSharded(cfg.ShardCount)
	default:
		cacheBackend = cache.NewMap()
	}

	upstreamConn, err := resolver.NewConn(cfg.UpstreamAddr, cfg.UpstreamRPS, cfg.UpstreamBurst)
	if err != nil {
		logger.Error("failed to bind upstream socket", "addr", cfg.UpstreamAddr, "error", err)
		os.Exit(1)
	}

	res := resolver.NewResolver(resolver.Config{
		Cache:        cacheBackend,
		Upstream:     upstreamConn,
		QueryTimeout: time.Duration(cfg.QueryTimeoutSeconds) * time.Second,
		MaxDepth:     cfg.MaxDepth,
	})

	srv, err := server.New(server.Config{
		ClientAddr: cfg.ClientAddr,
		Resolver:   res,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to bind client socket", "addr", cfg.ClientAddr, "error", err)
		os.Exit(1)
	}

	logger.Info("recursord starting",
		"client_addr", cfg.ClientAddr,
		"upstream_addr", cfg.UpstreamAddr,
		"cache_backend", cfg.CacheBackend,
	)

	ctx, cancel := context.WithCancel(context.Background())

	metricsErrCh := make(chan error, 1)
	go func() { metricsErrCh <- metrics.Serve(ctx, cfg.MetricsAddr) }()

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- srv.Run(ctx) }()

	if *stats {
		go printStats(ctx, srv)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-runErrCh:
		if err != nil {
			logger.Error("server loop exited unexpectedly", "error", err)
			cancel()
			os.Exit(1)
		}
	}

	cancel()

	if err := srv.Stop(); err != nil {
		logger.Error("error during shutdown", "error", err)
		os.Exit(1)
	}
	if err := res.Close(); err != nil {
		logger.Error("error closing resolver", "error", err)
	}
}

func printStats(ctx context.Context, srv *server.Server) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	lastQueries := uint64(0)
	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := srv.GetStats()
			now := time.Now()
			elapsed := now.Sub(lastTime).Seconds()
			qps := float64(s.Queries-lastQueries) / elapsed

			slog.Info("stats",
				"queries", s.Queries,
				"qps", qps,
				"answered", s.Answered,
				"nxdomain", s.NXDomain,
				"servfail", s.ServFail,
				"formerr", s.FormErr,
				"notimp", s.NotImp,
				"dropped", s.Dropped,
			)

			lastQueries = s.Queries
			lastTime = now
		}
	}
}
