package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-realtime-storefront/internal/config"
	"github.com/ariefcatur/go-realtime-storefront/internal/intake"
	kafkax "github.com/ariefcatur/go-realtime-storefront/internal/kafka"
	"github.com/ariefcatur/go-realtime-storefront/internal/logx"
	"github.com/ariefcatur/go-realtime-storefront/internal/notifications"
	"github.com/ariefcatur/go-realtime-storefront/internal/orders"
	"github.com/ariefcatur/go-realtime-storefront/internal/postgres"
	"github.com/ariefcatur/go-realtime-storefront/internal/realtime"
	"github.com/ariefcatur/go-realtime-storefront/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logx.New(cfg.Production(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("notifier exited", zap.Error(err))
	}
	logger.Info("notifier stopped")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	// the notifier shares state with the api, so in-process backends are useless here
	if cfg.StoreBackend != "postgres" {
		return errors.New("notifier requires STORE_BACKEND=postgres")
	}
	if cfg.RealtimeBackend == "local" {
		return errors.New("notifier requires REALTIME_BACKEND=redis or kafka")
	}

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	var (
		bus      realtime.Bus
		producer *kafkax.Producer
	)
	switch cfg.RealtimeBackend {
	case "redis":
		bus = &realtime.RedisBus{Redis: rdb}
	case "kafka":
		producer = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicRealtimeEvents, 1024, logger)
		producer.Start()
		defer producer.Close()
		bus = &realtime.KafkaBus{Producer: producer}
	}

	svc := &intake.Service{
		Orders:   &orders.CachedStore{Store: &orders.Repo{DB: db}, Redis: rdb},
		Notifier: notifications.NewFanout(&notifications.Repo{DB: db}, bus, logger),
		Dedup:    &redisx.Dedup{Client: rdb, Service: cfg.ServiceName + "-notifier", TTL: redisx.TTLDedup},
		Logger:   logger,
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicOrderCreated, cfg.NotifierWorkers, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("notifier consumer started",
			zap.String("group", cfg.NotifierGroup),
			zap.String("topic", orders.TopicOrderCreated),
			zap.Int("workers", cfg.NotifierWorkers),
			zap.String("realtime", cfg.RealtimeBackend))
		return cons.Start(gctx, svc.HandleOrderCreated)
	})
	return g.Wait()
}
