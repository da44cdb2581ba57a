package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ManboyFxx/odelivery/internal/api"
	"github.com/ManboyFxx/odelivery/internal/config"
	"github.com/ManboyFxx/odelivery/internal/events"
	"github.com/ManboyFxx/odelivery/internal/handlers"
	"github.com/ManboyFxx/odelivery/internal/messaging"
	"github.com/ManboyFxx/odelivery/internal/messaging/noop"
	"github.com/ManboyFxx/odelivery/internal/pollcache"
	"github.com/ManboyFxx/odelivery/internal/realtime"
	"github.com/ManboyFxx/odelivery/internal/storage"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal("ping postgres", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("ping redis", zap.Error(err))
	}

	var gateway messaging.Gateway = noop.Gateway{}
	if len(cfg.KafkaBrokers) > 0 {
		kg := messaging.NewKafkaGateway(cfg.KafkaBrokers, cfg.NotificationsTopic)
		defer kg.Close()
		gateway = kg
	} else {
		log.Warn("KAFKA_BROKERS not set, notifications disabled")
	}

	var publisher realtime.Publisher = realtime.NoopPublisher{}
	if cfg.RealtimeEnabled {
		publisher = realtime.NewRedisPublisher(rdb)
	} else {
		log.Warn("REALTIME_ENABLED=false, broadcasts disabled, polling clients only")
	}

	orders := storage.NewOrderRepository(pool)
	ledger := storage.NewLoyaltyLedger(pool)
	pollStore := pollcache.NewRedisStore(rdb)

	notifier := handlers.NewMessagingNotifier(gateway, log)
	broadcaster := handlers.NewRealtimeBroadcaster(publisher, log)
	awarder := handlers.NewLoyaltyAwarder(ledger, orders, log)
	toucher := handlers.NewPollCacheToucher(pollStore, log)

	dispatcher := events.NewDispatcher(
		[]events.Handler{toucher},
		[]events.Handler{notifier, broadcaster, awarder},
		cfg.QueueSize,
		cfg.HandlerTimeout,
		log,
	)
	dispatcher.Start(cfg.WorkerCount)
	defer dispatcher.Close()

	server := api.NewServer(orders, dispatcher, toucher, broadcaster, pollStore, ledger, log)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: server.Routes()}

	// Shutdown must finish draining in-flight requests before the deferred
	// dispatcher.Close runs; ListenAndServe returns as soon as shutdown
	// starts, so the sequencing needs its own signal.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	log.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("serve", zap.Error(err))
	}
	stop()
	<-shutdownDone
}
