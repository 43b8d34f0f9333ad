package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-realtime-storefront/internal/authz"
	"github.com/ariefcatur/go-realtime-storefront/internal/cart"
	"github.com/ariefcatur/go-realtime-storefront/internal/config"
	"github.com/ariefcatur/go-realtime-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-realtime-storefront/internal/kafka"
	"github.com/ariefcatur/go-realtime-storefront/internal/logx"
	"github.com/ariefcatur/go-realtime-storefront/internal/notifications"
	"github.com/ariefcatur/go-realtime-storefront/internal/orders"
	"github.com/ariefcatur/go-realtime-storefront/internal/postgres"
	"github.com/ariefcatur/go-realtime-storefront/internal/realtime"
	"github.com/ariefcatur/go-realtime-storefront/internal/redisx"
	"github.com/ariefcatur/go-realtime-storefront/internal/seed"
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
		logger.Fatal("api exited", zap.Error(err))
	}
	logger.Info("api stopped")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	var (
		rdb     *redis.Client
		store   orders.Store
		finder  httpx.OrderFinder
		lister  httpx.OrderLister
		members authz.MembershipSource
		notes   notifications.Store
		kv      cart.KV
	)

	needRedis := cfg.StoreBackend == "postgres" || cfg.RealtimeBackend == "redis"
	if needRedis {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		kv = &redisx.KV{Client: rdb, TTL: redisx.TTLCart}
	} else {
		kv = cart.NewMemoryKV()
	}

	switch cfg.StoreBackend {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		repo := &orders.Repo{DB: db}
		cached := &orders.CachedStore{Store: repo, Redis: rdb}
		// lifecycle decisions read the row, display reads may use the cache
		store, finder, lister = cached.Fresh(), cached, repo
		members = &authz.PGMembership{DB: db}
		notes = &notifications.Repo{DB: db}
	case "memory":
		mem := orders.NewMemoryStore()
		static := authz.NewStaticMembership()
		if cfg.SeedFile != "" {
			fx, err := seed.Load(cfg.SeedFile)
			if err != nil {
				return err
			}
			if err := seed.Apply(fx, mem, static, time.Now()); err != nil {
				return err
			}
			logger.Info("seeded in-memory stores",
				zap.String("file", cfg.SeedFile),
				zap.Int("orders", len(fx.Orders)),
				zap.Int("organizations", len(fx.Members)))
		}
		store, finder, lister = mem, mem, mem
		members = static
		notes = notifications.NewMemoryStore()
		logger.Warn("running with in-memory stores, data is lost on exit")
	}

	var (
		bus        realtime.Bus
		subscriber realtime.Subscriber
		producer   *kafkax.Producer
	)
	switch cfg.RealtimeBackend {
	case "redis":
		rb := &realtime.RedisBus{Redis: rdb}
		bus, subscriber = rb, rb
	case "kafka":
		producer = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicRealtimeEvents, 1024, logger)
		producer.Start()
		bus = &realtime.KafkaBus{Producer: producer}
	case "local":
		lb := realtime.NewLocalBus(64, logger)
		bus, subscriber = lb, lb
	}

	checker := authz.NewChecker(members)
	fanout := notifications.NewFanout(notes, bus, logger)
	svc := orders.NewService(store, checker, fanout, logger)

	oh := &httpx.OrdersHandler{Service: svc, Orders: finder, Lister: lister, Authz: checker, Logger: logger}
	nh := &httpx.NotificationsHandler{Service: notifications.NewService(notes), Subscriber: subscriber, Authz: checker, Logger: logger}
	ch := &httpx.CartHandler{Carts: cart.NewContainer(kv), Logger: logger}

	router := httpx.NewRouter(logger)
	router.Group(func(r chi.Router) {
		r.Use(httpx.RequireActor)
		if subscriber != nil {
			nh.RegisterStream(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(15 * time.Second))
			oh.Register(r)
			nh.Register(r)
			ch.Register(r)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreBackend),
			zap.String("realtime", cfg.RealtimeBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// handlers are drained, nothing publishes any more
		if producer != nil {
			producer.Close()
		}
		return err
	})
	return g.Wait()
}
