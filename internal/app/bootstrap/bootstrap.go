package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"inkwell/internal/platform/config"
	"inkwell/internal/platform/db"
	"inkwell/internal/platform/dedup"
	"inkwell/internal/platform/httpserver"
	"inkwell/internal/platform/logging"
	"inkwell/internal/platform/messaging"
	"inkwell/internal/shared/events"
	"inkwell/internal/shared/outbox"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const bootstrapModule = "internal/app/bootstrap"

type APIApp struct {
	server  *httpserver.Server
	relay   *outbox.Relay
	cfg     config.Config
	closers []func() error
	logger  *slog.Logger
}

type WorkerApp struct {
	consumer consumer
	relay    *outbox.Relay
	waiter   waiter
	cfg      config.Config
	closers  []func() error
	logger   *slog.Logger
}

type consumer interface {
	Start(ctx context.Context) error
}

type waiter interface {
	Wait()
}

// runtime holds what API and worker processes of one service share.
type runtime struct {
	cfg       config.Config
	logger    *slog.Logger
	database  *db.Database
	publisher events.Publisher
	broker    *messaging.Memory
	closers   []func() error
}

func BuildAPI() (*APIApp, error) {
	rt, err := newRuntime("api")
	if err != nil {
		return nil, err
	}
	svc, err := buildService(context.Background(), rt)
	if err != nil {
		rt.close()
		return nil, err
	}
	return &APIApp{
		server:  httpserver.New(svc.modules, rt.logger, normalizeAddr(rt.cfg.HTTPPort)),
		relay:   svc.relay,
		cfg:     rt.cfg,
		closers: rt.closers,
		logger:  rt.logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	rt, err := newRuntime("worker")
	if err != nil {
		return nil, err
	}
	svc, err := buildService(context.Background(), rt)
	if err != nil {
		rt.close()
		return nil, err
	}

	subscriber, wait, err := rt.subscriber()
	if err != nil {
		rt.close()
		return nil, err
	}
	guard, purger, err := rt.guard(context.Background(), svc.dedupTable)
	if err != nil {
		rt.close()
		return nil, err
	}
	if purger != nil {
		svc.relay.Purgers = append(svc.relay.Purgers, purger)
	}
	return &WorkerApp{
		consumer: svc.consumer(subscriber, guard, rt.cfg.ConsumerGroup),
		relay:    svc.relay,
		waiter:   wait,
		cfg:      rt.cfg,
		closers:  rt.closers,
		logger:   rt.logger,
	}, nil
}

func newRuntime(process string) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName, process)
	slog.SetDefault(logger)

	dsn := cfg.PostgresDSN
	if cfg.DatabaseDriver == "sqlite" {
		dsn = cfg.SQLitePath
	}
	database, err := db.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		database: database,
		closers:  []func() error{database.Close},
	}
	switch cfg.MessagingDriver {
	case "memory":
		rt.broker = messaging.NewMemory(0, rt.retryPolicy(), logger)
		rt.publisher = rt.broker
	default:
		publisher := messaging.NewKafkaPublisher(cfg.KafkaBrokers, logger)
		rt.publisher = publisher
		rt.closers = append(rt.closers, publisher.Close)
	}
	return rt, nil
}

func (rt *runtime) retryPolicy() messaging.RetryPolicy {
	policy := messaging.DefaultRetryPolicy()
	if rt.cfg.ConsumerMaxAttempts > 0 {
		policy.MaxAttempts = rt.cfg.ConsumerMaxAttempts
	}
	if rt.cfg.ConsumerRetryWait > 0 {
		policy.InitialWait = rt.cfg.ConsumerRetryWait
	}
	return policy
}

func (rt *runtime) subscriber() (events.Subscriber, waiter, error) {
	if rt.broker != nil {
		return rt.broker, rt.broker, nil
	}
	if len(rt.cfg.KafkaBrokers) == 0 {
		return nil, nil, errors.New("KAFKA_BROKERS is required")
	}
	subscriber := messaging.NewKafkaSubscriber(rt.cfg.KafkaBrokers, rt.cfg.ConsumerWorkers, rt.retryPolicy(), rt.logger)
	return subscriber, subscriber, nil
}

// guard builds the idempotency guard on Redis when REDIS_ADDR is set and on
// the service database otherwise. The database store comes back as a purger
// for the relay; Redis expires its keys itself.
func (rt *runtime) guard(ctx context.Context, table string) (*events.Guard, outbox.Purger, error) {
	if rt.cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: rt.cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", rt.cfg.RedisAddr, err)
		}
		rt.closers = append(rt.closers, client.Close)
		store := dedup.NewRedis(client, rt.cfg.ServiceName)
		return events.NewGuard(store, rt.cfg.DedupTTL, rt.logger), nil, nil
	}
	store := dedup.NewGorm(rt.database.DB, table)
	if rt.cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return nil, nil, err
		}
	}
	return events.NewGuard(store, rt.cfg.DedupTTL, rt.logger), store, nil
}

func (rt *runtime) newRelay(store outbox.Store, module string) *outbox.Relay {
	relay := outbox.NewRelay(store, rt.publisher, module, rt.logger)
	relay.BatchSize = rt.cfg.OutboxBatchSize
	relay.Retention = rt.cfg.OutboxRetention
	return relay
}

func (rt *runtime) close() {
	_ = closeAll(rt.closers)
}

// Run serves HTTP and forwards this service's outbox until ctx is cancelled.
func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", bootstrapModule,
		"layer", "platform",
		"service", a.cfg.ServiceName,
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.server.Start(groupCtx)
	})
	group.Go(func() error {
		return a.relay.Run(groupCtx, a.cfg.OutboxPollInterval)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	return closeAll(a.closers)
}

// Run starts the consumers and the outbox relay. On cancellation it waits
// for in-flight handlers before returning.
func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.consumer.Start(ctx); err != nil {
		return err
	}
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", bootstrapModule,
		"layer", "platform",
		"service", w.cfg.ServiceName,
		"consumer_group", w.cfg.ConsumerGroup,
		"poll_interval", w.cfg.OutboxPollInterval.String(),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return w.relay.Run(groupCtx, w.cfg.OutboxPollInterval)
	})
	err := group.Wait()
	w.waiter.Wait()
	w.logger.Info("worker app stopped",
		"event", "bootstrap_worker_stopped",
		"module", bootstrapModule,
		"layer", "platform",
	)
	return err
}

func (w *WorkerApp) Close() error {
	return closeAll(w.closers)
}

// closeAll closes in reverse order of acquisition.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
