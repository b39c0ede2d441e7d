package di

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"labeltree/application/commands"
	"labeltree/application/commands/bus"
	"labeltree/application/ports"
	"labeltree/application/queries"
	querybus "labeltree/application/queries/bus"
	"labeltree/application/services"
	"labeltree/infrastructure/config"
	"labeltree/infrastructure/messaging"
	"labeltree/infrastructure/messaging/eventbridge"
	"labeltree/infrastructure/persistence/dynamodb"
	"labeltree/infrastructure/persistence/memory"
	"labeltree/infrastructure/persistence/resilience"
	"labeltree/infrastructure/persistence/sqlite"
	"labeltree/pkg/observability"
)

const serviceName = "labeltree"

// ProvideLogLevel parses the configured level into an atomic level the
// config watcher can adjust at runtime
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level: %w", err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, func(), error) {
	var zapCfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With(zap.String("service", serviceName))

	cleanup := func() {
		_ = logger.Sync()
	}
	return logger, cleanup, nil
}

// ProvideAWSConfig creates AWS configuration. Nothing is loaded when neither
// DynamoDB nor EventBridge is in use.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	if cfg.StoreDriver != config.DriverDynamoDB && cfg.EventBusName == "" {
		return aws.Config{}, nil
	}
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client for the dynamodb driver
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	if cfg.StoreDriver != config.DriverDynamoDB {
		return nil
	}
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client when an event bus is configured
func ProvideEventBridgeClient(awsCfg aws.Config, cfg *config.Config) *awseventbridge.Client {
	if cfg.EventBusName == "" {
		return nil
	}
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideNodeStore opens the row store selected by STORE_DRIVER and, when
// enabled, guards it with a circuit breaker
func ProvideNodeStore(
	cfg *config.Config,
	client *awsdynamodb.Client,
	logger *zap.Logger,
) (ports.NodeStore, func(), error) {
	var (
		store   ports.NodeStore
		cleanup = func() {}
	)

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.DBPath, logger)
		if err != nil {
			return nil, nil, err
		}
		store = db
	case config.DriverMemory:
		store = memory.NewStore()
		logger.Info("Persistence layer ready", zap.String("driver", cfg.StoreDriver))
	case config.DriverDynamoDB:
		store = dynamodb.NewNodeStore(client, cfg.DynamoDBTable, logger)
		logger.Info("Persistence layer ready",
			zap.String("driver", cfg.StoreDriver),
			zap.String("table", cfg.DynamoDBTable),
		)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.EnableCircuitBreaker {
		cb := cfg.CircuitBreaker
		store = resilience.NewBreakerStore(store, resilience.BreakerConfig{
			Name:             "node-store",
			MaxRequests:      cb.MaxRequests,
			Interval:         cb.Interval,
			Timeout:          cb.Timeout,
			FailureThreshold: cb.FailureRatio,
			MinRequests:      cb.MinRequests,
		}, logger)
	}

	if closer, ok := store.(io.Closer); ok {
		cleanup = func() {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close store", zap.Error(err))
			}
		}
	}

	return store, cleanup, nil
}

// ProvideHealthChecker exposes the store's Ping for readiness checks
func ProvideHealthChecker(store ports.NodeStore) ports.HealthChecker {
	if hc, ok := store.(ports.HealthChecker); ok {
		return hc
	}
	return nil
}

// ProvideEventPublisher creates the EventBridge publisher, or a no-op one
// when no event bus is configured
func ProvideEventPublisher(
	client *awseventbridge.Client,
	cfg *config.Config,
	logger *zap.Logger,
) ports.EventPublisher {
	if client == nil {
		return messaging.NewNoopPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideTracerProvider installs the OTLP tracer provider when tracing is enabled
func ProvideTracerProvider(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.TracingEndpoint,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down tracer provider", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideTreeService creates the tree service
func ProvideTreeService(store ports.NodeStore) *services.TreeService {
	return services.NewTreeService(store)
}

// ProvideCommandBus creates and configures the command bus
func ProvideCommandBus(
	trees *services.TreeService,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()
	commandBus.Use(
		bus.TracingMiddleware(serviceName+"/commands"),
		bus.LoggingMiddleware(&zapLoggerAdapter{logger: logger.Sugar()}),
		bus.MetricsMiddleware(&commandMetricsAdapter{collector: metrics}),
	)

	createHandler := commands.NewCreateNodeHandler(trees, publisher, metrics, logger)
	if err := commandBus.Register(commands.CreateNodeCommand{}, createHandler); err != nil {
		return nil, err
	}

	return commandBus, nil
}

// ProvideQueryBus creates and configures the query bus
func ProvideQueryBus(
	trees *services.TreeService,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	queryBus.Use(
		querybus.NewTracingMiddleware(serviceName+"/queries"),
		querybus.NewLoggingMiddleware(&zapLoggerAdapter{logger: logger.Sugar()}),
		querybus.NewMetricsMiddleware(&queryMetricsAdapter{collector: metrics}),
	)

	if err := queryBus.Register(queries.ListForestQuery{}, queries.NewListForestHandler(trees)); err != nil {
		return nil, err
	}

	return queryBus, nil
}

// ProvideConfigWatcher watches the config file and applies log level changes
func ProvideConfigWatcher(
	cfg *config.Config,
	level zap.AtomicLevel,
	logger *zap.Logger,
) (*config.ConfigWatcher, func(), error) {
	watcher, err := config.NewConfigWatcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	watcher.OnChange(func(updated *config.Config) {
		newLevel, err := zapcore.ParseLevel(updated.LogLevel)
		if err != nil {
			return
		}
		if newLevel != level.Level() {
			level.SetLevel(newLevel)
			logger.Info("Log level changed", zap.String("level", newLevel.String()))
		}
	})

	return watcher, watcher.Stop, nil
}

// zapLoggerAdapter adapts zap to the bus Logger interfaces
type zapLoggerAdapter struct {
	logger *zap.SugaredLogger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Infow(msg, keysAndValues...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Errorw(msg, keysAndValues...)
}

// commandMetricsAdapter and queryMetricsAdapter bridge the collector to the
// Metrics interface each bus declares
type commandMetricsAdapter struct {
	collector *observability.Collector
}

func (a *commandMetricsAdapter) StartTimer(metric, label string) bus.Timer {
	return a.collector.StartBusTimer(metric, label)
}

func (a *commandMetricsAdapter) Increment(metric, label string) {
	a.collector.Increment(metric, label)
}

type queryMetricsAdapter struct {
	collector *observability.Collector
}

func (a *queryMetricsAdapter) StartTimer(metric, label string) querybus.Timer {
	return a.collector.StartBusTimer(metric, label)
}

func (a *queryMetricsAdapter) Increment(metric, label string) {
	a.collector.Increment(metric, label)
}
