package di

import (
	"context"
	"fmt"
	"time"

	"SignalFusion/internal/domain/repository"
	"SignalFusion/internal/handler/api"
	internalrepo "SignalFusion/internal/repository"
	"SignalFusion/internal/service/ratelimit"
	"SignalFusion/internal/services/adversarial"
	"SignalFusion/internal/services/anomaly"
	"SignalFusion/internal/services/council"
	"SignalFusion/internal/services/edge"
	"SignalFusion/internal/services/ledger"
	"SignalFusion/internal/services/messenger"
	"SignalFusion/internal/services/patterns"
	"SignalFusion/internal/usecase"
	"SignalFusion/pkg/breaker"
	"SignalFusion/pkg/cache"
	pkgch "SignalFusion/pkg/clickhouse"
	"SignalFusion/pkg/config"
	xhttp "SignalFusion/pkg/http"
	pkgkafka "SignalFusion/pkg/kafka"
	xlogger "SignalFusion/pkg/logger"
	"SignalFusion/pkg/metrics"
	"SignalFusion/pkg/postgres"
	"SignalFusion/pkg/server"
)

const schemaTimeout = 10 * time.Second

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	l, err := xlogger.New(&xlogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(xlogger.String("service", "signalfusion"), xlogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideLedgerStorage opens the configured ledger backend. Durable backends
// are wrapped with retry and a circuit breaker.
func ProvideLedgerStorage(cfg *config.Config, l *xlogger.Logger) (repository.LedgerStorage, func(), error) {
	l = l.With(xlogger.String("ledger_backend", cfg.Ledger.Backend))

	var (
		inner   repository.LedgerStorage
		cleanup = func() {}
	)
	switch cfg.Ledger.Backend {
	case "memory":
		return internalrepo.NewMemoryLedgerStorage(), cleanup, nil

	case "redis":
		client, err := cache.NewRedisClient(
			cache.WithRedisAddress(cfg.Redis.Host, cfg.Redis.Port),
			cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
			cache.WithRedisPool(cfg.Redis.PoolSize, 2, 0),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis client: %w", err)
		}
		inner = internalrepo.NewRedisLedgerStorage(client, cfg.Ledger.Key)
		cleanup = func() {
			if err := client.Close(); err != nil {
				l.Warn("redis close error", xlogger.Error(err))
			}
		}

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		table := cfg.ClickHouse.Database + "." + cfg.Ledger.Table
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.ClickHouseLedgerSchema(table)); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		inner = internalrepo.NewClickHouseLedgerStorage(client.DB(), table, l)
		cleanup = func() {
			if err := client.Close(); err != nil {
				l.Warn("clickhouse close error", xlogger.Error(err))
			}
		}

	case "postgres":
		db, err := postgres.Open(
			postgres.WithDSN(cfg.Postgres.DSN),
			postgres.WithPool(cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns, 30*time.Minute),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := postgres.InitSchema(ctx, db, internalrepo.PostgresLedgerSchema(cfg.Ledger.Table)); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		inner = internalrepo.NewPostgresLedgerStorage(db, cfg.Ledger.Table, cfg.Postgres.QueryTimeout)
		cleanup = func() {
			if err := db.Close(); err != nil {
				l.Warn("postgres close error", xlogger.Error(err))
			}
		}

	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	cb := breaker.New("ledger-"+cfg.Ledger.Backend,
		breaker.WithConsecutiveFailures(cfg.Ledger.Breaker.Failures),
		breaker.WithTimeout(cfg.Ledger.Breaker.Timeout),
		breaker.WithStateChange(func(name, from, to string) {
			l.Warn("breaker state changed",
				xlogger.String("breaker", name),
				xlogger.String("from", from),
				xlogger.String("to", to),
			)
		}),
	)
	storage := internalrepo.NewResilientLedgerStorage(inner, l,
		internalrepo.WithRetry(cfg.Ledger.Retry.Max, cfg.Ledger.Retry.Initial),
		internalrepo.WithBreaker(cb),
	)
	return storage, cleanup, nil
}

// ProvidePublisher creates the decisions publisher. Without brokers every
// decision is dropped.
func ProvidePublisher(cfg *config.Config, l *xlogger.Logger) (repository.Publisher, func(), error) {
	if !cfg.KafkaEnabled() {
		return internalrepo.NopPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithAutoCreateTopics(cfg.Kafka.AutoCreate),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.DecisionsTopic)
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", xlogger.Error(err))
		}
	}, nil
}

// ProvideKafkaConsumer creates the outcome consumer, or nil without brokers.
func ProvideKafkaConsumer(cfg *config.Config, l *xlogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.KafkaEnabled() {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvidePatternStore(l *xlogger.Logger) *patterns.Store {
	return patterns.NewStore(l, patterns.DefaultLibrary())
}

func ProvideDetector(cfg *config.Config, l *xlogger.Logger) *anomaly.Detector {
	return anomaly.NewDetector(l,
		anomaly.WithOutlierWindow(cfg.Engine.OutlierWindow),
		anomaly.WithOutlierThreshold(cfg.Engine.OutlierThreshold),
	)
}

func ProvideValidator(l *xlogger.Logger) (*adversarial.Validator, error) {
	return adversarial.NewValidator(l)
}

func ProvideEdgeCalculator(l *xlogger.Logger) *edge.Calculator {
	return edge.NewCalculator(l)
}

func ProvideCouncil(cfg *config.Config, l *xlogger.Logger) *council.Council {
	return council.New(l, council.WithWorkers(cfg.Engine.CouncilWorkers))
}

func ProvideMessenger(cfg *config.Config, l *xlogger.Logger) *messenger.Messenger {
	return messenger.New(l, cfg.Engine.Version)
}

// ProvideLedger wires the ledger's outcome path back into the pattern store.
func ProvideLedger(storage repository.LedgerStorage, store *patterns.Store, m repository.Metrics, l *xlogger.Logger) *ledger.Ledger {
	return ledger.New(storage, l,
		ledger.WithPatternRecorder(store),
		ledger.WithMetrics(m),
	)
}

func ProvideDecayTracker(m repository.Metrics, l *xlogger.Logger) *ledger.DecayTracker {
	return ledger.NewDecayTracker(l, m, nil)
}

// ProvideFusionUseCase assembles the analysis pipeline.
func ProvideFusionUseCase(
	cfg *config.Config,
	detector *anomaly.Detector,
	store *patterns.Store,
	validator *adversarial.Validator,
	calc *edge.Calculator,
	cncl *council.Council,
	msg *messenger.Messenger,
	led *ledger.Ledger,
	decay *ledger.DecayTracker,
	pub repository.Publisher,
	m repository.Metrics,
	l *xlogger.Logger,
) *usecase.FusionUseCase {
	return usecase.NewFusionUseCase(detector, store, validator, calc, cncl, msg, led, decay, l,
		usecase.WithPublisher(pub),
		usecase.WithMetrics(m),
		usecase.WithRecordAll(cfg.Engine.RecordDecisions),
	)
}

// ProvideOutcomeHandler consumes outcome reports from the outcomes topic.
func ProvideOutcomeHandler(cfg *config.Config, uc *usecase.FusionUseCase, m repository.Metrics, l *xlogger.Logger) *usecase.OutcomeHandler {
	return usecase.NewOutcomeHandler(cfg.Kafka.OutcomesTopic, uc, m, l)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

func ProvideFusionHandler(l *xlogger.Logger, uc *usecase.FusionUseCase, rl *ratelimit.Limiter) *api.FusionHandler {
	return api.NewFusionHandler(l, uc, rl)
}

// ProvideHTTPServer builds the Echo server with every route registered.
func ProvideHTTPServer(cfg *config.Config, l *xlogger.Logger, h *api.FusionHandler) *xhttp.Server {
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(cfg.Metrics.Enabled),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *xlogger.Logger,
	uc *usecase.FusionUseCase,
	decay *ledger.DecayTracker,
	rl *ratelimit.Limiter,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	oh *usecase.OutcomeHandler,
) *server.App {
	return server.New(cfg, l, uc, decay, rl, srv, consumer, oh)
}
