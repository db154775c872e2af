package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"PaperDesk/internal/domain/repository"
	"PaperDesk/internal/handler/api"
	internalrepo "PaperDesk/internal/repository"
	"PaperDesk/internal/usecase"
	"PaperDesk/internal/ws"
	"PaperDesk/pkg/cache"
	pkgch "PaperDesk/pkg/clickhouse"
	"PaperDesk/pkg/config"
	pkgkafka "PaperDesk/pkg/kafka"
	"PaperDesk/pkg/logger"
	"PaperDesk/pkg/metrics"
	"PaperDesk/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return logger.New(&logger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideAccountCache creates the cache backend for account records.
func ProvideAccountCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Accounts.Backend != "redis" {
		return cache.NewMemoryCache(), nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Accounts.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("accounts.redis.addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("accounts.redis.addr port: %w", err)
	}

	c, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Accounts.Redis.Password),
		cache.WithRedisDB(cfg.Accounts.Redis.DB),
		cache.WithRedisPrefix("paperdesk"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideAccountStore creates the account store over the cache backend.
func ProvideAccountStore(c cache.Service) repository.AccountStore {
	return internalrepo.NewCacheAccountStore(c)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideTickArchive creates the ClickHouse tick archive, or nil when the
// archive is disabled.
func ProvideTickArchive(chClient *pkgch.Client, cfg *config.Config) (repository.TickArchive, error) {
	if chClient == nil {
		return nil, nil
	}

	archive := internalrepo.NewClickHouseTickArchive(chClient.DB(), cfg.Archive.TickTable, cfg.Archive.TradeTable)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		return nil, fmt.Errorf("tick archive: %w", err)
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when events are
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher creates the Kafka event publisher, or nil when
// events are disabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Topic)
}

// ProvideMetrics creates a Prometheus metrics recorder, or nil when
// metrics are disabled.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New()
}

// ProvideHub creates the WebSocket hub.
func ProvideHub(log *logger.Logger) *ws.Hub {
	return ws.NewHub(log)
}

// ProvideSessionConfig maps the YAML config onto the session tuning,
// falling back to the reference tuning for unset values.
func ProvideSessionConfig(cfg *config.Config) usecase.SessionConfig {
	sc := usecase.DefaultSessionConfig()

	if cfg.Engine.StartPrice > 0 {
		sc.StartPrice = cfg.Engine.StartPrice
	}
	if cfg.Engine.TickMin > 0 && cfg.Engine.TickMax > cfg.Engine.TickMin {
		sc.TickMin = cfg.Engine.TickMin
		sc.TickMax = cfg.Engine.TickMax
	}
	if cfg.Engine.ArchiveBatch > 0 {
		sc.ArchiveBatch = cfg.Engine.ArchiveBatch
	}
	if cfg.Ledger.SettleDelay > 0 {
		sc.SettleDelay = cfg.Ledger.SettleDelay
	}
	if cfg.Wager.AscendWinProb > 0 {
		sc.Ascend.WinProb = cfg.Wager.AscendWinProb
	}
	if cfg.Wager.AscendPayoutRate > 0 {
		sc.Ascend.PayoutRate = cfg.Wager.AscendPayoutRate
	}
	if cfg.Wager.AscendDuration > 0 {
		sc.Ascend.Duration = cfg.Wager.AscendDuration
	}
	if cfg.Wager.CrashPreRoll > 0 {
		sc.Crash.PreRoll = cfg.Wager.CrashPreRoll
	}
	if cfg.Wager.CrashTickEvery > 0 {
		sc.Crash.TickEvery = cfg.Wager.CrashTickEvery
	}
	if cfg.Wager.CrashTurboProb > 0 {
		sc.Crash.TurboProb = cfg.Wager.CrashTurboProb
	}
	return sc
}

// ProvideDesk creates the trading desk.
func ProvideDesk(
	sc usecase.SessionConfig,
	store repository.AccountStore,
	archive repository.TickArchive,
	publisher repository.EventPublisher,
	hub *ws.Hub,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Desk {
	return usecase.NewDesk(sc, usecase.SessionDeps{
		Store:     store,
		Archive:   archive,
		Publisher: publisher,
		Hub:       hub,
		Metrics:   m,
		Log:       log,
	})
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(log *logger.Logger, desk *usecase.Desk, hub *ws.Hub, archive repository.TickArchive) *api.DeskEchoHandler {
	return api.NewDeskEchoHandler(log, desk, hub, archive)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	desk *usecase.Desk,
	handler *api.DeskEchoHandler,
	hub *ws.Hub,
	store repository.AccountStore,
	archive repository.TickArchive,
	publisher repository.EventPublisher,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, log, desk, handler, hub, store, archive, publisher, chClient)
}
