package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"PriceDesk/internal/config"
	"PriceDesk/internal/prices"
	"PriceDesk/pkg/kit"
)

func main() {
	service := "prices"

	cfg, err := config.Load(getenv("PRICES_CONFIG", "prices.toml"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("open prices store failed", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := prices.NewService(ctx, store, log, prices.WithMetrics(prices.NewMetrics(reg)))
	if err != nil {
		log.Fatal("load prices failed", zap.String("backend", cfg.Backend), zap.Error(err))
	}

	if fs, ok := store.(*prices.FileStore); ok && cfg.WatchFile {
		go func() {
			if err := prices.Watch(ctx, fs.Path(), svc, log); err != nil {
				log.Warn("prices watcher stopped", zap.Error(err))
			}
		}()
	}

	s := &prices.Server{
		Service:   svc,
		Log:       log,
		StaticDir: cfg.StaticDir,
		Limiter:   kit.NewIPRateLimiter(cfg.MutationLimitPerMin, time.Minute),
	}
	h := prices.NewHandler(s, prices.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	log.Info("prices catalog ready",
		zap.String("backend", cfg.Backend),
		zap.String("source", svc.GetAll().Source("demo-prices")),
	)

	if err := kit.RunHTTPServer(ctx, cfg.Addr(), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (prices.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := prices.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		s := prices.NewPostgresStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, func() { _ = db.Close() }, nil

	case config.BackendS3:
		s, err := prices.NewS3Store(ctx, prices.S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Key:             cfg.S3.Key,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UseSSL:          cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil

	default:
		return prices.NewFileStore(cfg.PricesFile), func() {}, nil
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
