package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/and161185/gamewallet/internal/approval"
	"github.com/and161185/gamewallet/internal/config"
	"github.com/and161185/gamewallet/internal/deps"
	"github.com/and161185/gamewallet/internal/events"
	"github.com/and161185/gamewallet/internal/server"
	"github.com/and161185/gamewallet/internal/storage"
	"github.com/and161185/gamewallet/internal/telegram"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type walletStore interface {
	approval.Store
	approval.BotDirectory
	server.Storage
	events.EventSaver
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	d := deps.NewDependencies(cfg.SecretKey)
	logger := d.Logger
	defer logger.Sync()

	store, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer closeStore()

	var tg *telegram.Client
	if cfg.TelegramBotToken != "" {
		tg, err = telegram.NewClient(cfg.TelegramBotToken)
		if err != nil {
			logger.Fatal(err)
		}
	}

	sinks, closeSinks := buildSinks(ctx, cfg, store, tg, logger)
	defer closeSinks()

	dispatcher := events.NewDispatcher(events.NewMulti(logger, d.Metrics, sinks...), cfg.EventWorkers, logger, d.Metrics)
	dispatcher.Start(ctx)

	svc := approval.NewService(store, store, dispatcher, logger,
		approval.WithMetrics(d.Metrics),
		approval.WithTimeout(cfg.DecisionTimeout),
	)

	var answerer server.CallbackAnswerer
	if tg != nil {
		answerer = tg
	}

	srv := server.NewServer(svc, store, store, answerer, cfg, d)
	logger.Infof("listening on %s", cfg.RunAddress)
	if err := srv.Run(ctx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}

	dispatcher.Close()
	logger.Info("event queue drained")
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (walletStore, func(), error) {
	if cfg.DatabaseURI == "" {
		logger.Warn("DATABASE_URI is empty, using in-memory storage")
		return storage.NewMemoryStorage(), func() {}, nil
	}

	pg, err := storage.NewPostgreStorage(ctx, cfg.DatabaseURI)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	return pg, pg.Close, nil
}

func buildSinks(ctx context.Context, cfg *config.Config, store events.EventSaver, tg *telegram.Client, logger *zap.SugaredLogger) ([]events.Sink, func()) {
	sinks := []events.Sink{events.NewStoreSink(store)}
	var closers []func() error

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warnf("redis %s unreachable: %v", cfg.RedisAddr, err)
		}
		cancel()
		sinks = append(sinks, events.NewRedisPublisher(rdb, cfg.RedisChannel))
		closers = append(closers, rdb.Close)
	}

	if len(cfg.KafkaBrokers) > 0 {
		writer := &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				logger.Errorf("kafka: "+msg, args...)
			}),
		}
		sinks = append(sinks, events.NewKafkaPublisher(writer))
		closers = append(closers, writer.Close)
	}

	if tg != nil && cfg.TelegramAdminChatID != 0 {
		sinks = append(sinks, events.NewTelegramNotifier(tg, cfg.TelegramAdminChatID))
	}

	for _, s := range sinks {
		logger.Infof("event sink enabled: %s", s.Name())
	}

	return sinks, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warnf("close sink: %v", err)
			}
		}
	}
}
