package di

import (
    "context"
    "fmt"
    "net"
    "strconv"
    "time"

    "HemoWatch/internal/domain/repository"
    mid "HemoWatch/internal/middleware"
    internalrepo "HemoWatch/internal/repository"
    svccache "HemoWatch/internal/service/cache"
    "HemoWatch/internal/service/gateway"
    "HemoWatch/internal/usecase"
    pkgcache "HemoWatch/pkg/cache"
    pkgch "HemoWatch/pkg/clickhouse"
    "HemoWatch/pkg/config"
    pkgkafka "HemoWatch/pkg/kafka"
    applogger "HemoWatch/pkg/logger"
    "HemoWatch/pkg/metrics"
    "HemoWatch/pkg/server"
)

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS hemowatch",
		"CREATE TABLE IF NOT EXISTS hemowatch.rt_samples_raw (ts DateTime, patient_id String, value Float64, accepted UInt8, source String, event_id String, seq UInt64) ENGINE=ReplacingMergeTree(seq) ORDER BY (patient_id, ts, event_id)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
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

// ProvideRedisCache creates the Redis client used for detector checkpoints.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	addr := cfg.Monitor.Redis.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Monitor.Redis.Password),
		pkgcache.WithRedisDB(cfg.Monitor.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideSampleStorage creates ClickHouse storage repository.
func ProvideSampleStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".rt_samples_raw")
}

// ProvideSeriesStore creates the ClickHouse series reader.
func ProvideSeriesStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.SeriesStore {
	store := internalrepo.NewCHSeriesStore(chClient, cfg.ClickHouse.Database+".rt_samples_raw")
	store.SetLogger(l)
	return store
}

// ProvideSamplePublisher creates Kafka publisher repository.
func ProvideSamplePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideAlarmPublisher creates the Kafka alarm publisher.
func ProvideAlarmPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AlarmPublisher {
	topic := cfg.Kafka.AlarmTopic
	if topic == "" {
		topic = "hemowatch.alarms"
	}
	return internalrepo.NewKafkaAlarmPublisher(producer, topic)
}

// ProvideStateStore creates the Redis detector checkpoint store.
func ProvideStateStore(c *pkgcache.RedisCache) repository.StateStore {
	return internalrepo.NewRedisStateStore(c)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaSamplesHandler registers handler for the samples topic.
func ProvideKafkaSamplesHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaSamplesHandler {
	return usecase.NewKafkaSamplesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideGatewayStream creates the sensor gateway WebSocket stream.
func ProvideGatewayStream(cfg *config.Config) repository.SessionStream {
	return gateway.New(
		cfg.Gateway.APIKey,
		cfg.Gateway.WebSocketURL,
		cfg.Gateway.Patients,
		cfg.Gateway.ReconnectDelay,
		cfg.Gateway.PingInterval,
	)
}

// ProvideBackfillClient creates the gateway REST backfill client.
func ProvideBackfillClient(cfg *config.Config) *gateway.BackfillClient {
	return gateway.NewBackfillClient(cfg.Gateway.BackfillURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
}

// ProvideSampleProcessor creates sample processor use case.
func ProvideSampleProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.SampleProcessor {
	return usecase.NewSampleProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideMonitorUseCase creates the per-session monitoring path.
func ProvideMonitorUseCase(
	series repository.SeriesStore,
	states repository.StateStore,
	alarms repository.AlarmPublisher,
	proc *usecase.SampleProcessor,
	metrics repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.MonitorUseCase {
	return usecase.NewMonitorUseCase(series, states, alarms, proc, metrics, usecase.MonitorConfig{
		Drift:          cfg.Monitor.Drift,
		ScreenAlpha:    cfg.ScreenAlpha(),
		BaselineWindow: cfg.BaselineWindow(),
		MinBaseline:    cfg.MinBaseline(),
		Blanking:       cfg.Blanking(),
		Quantize:       cfg.Quantize(),
	}, l)
}

// ProvideSeriesUseCase creates the series reader use case.
func ProvideSeriesUseCase(store repository.SeriesStore) *usecase.SeriesUseCase {
	return usecase.NewSeriesUseCase(store)
}

// ProvideDriftReportUseCase creates the batch drift replay use case.
func ProvideDriftReportUseCase(store repository.SeriesStore, cfg *config.Config, l *applogger.Logger) *usecase.DriftReportUseCase {
	var reportCache svccache.BytesCache
	if cfg.Monitor.Redis.Enabled {
		reportCache = svccache.NewRedisCache(svccache.RedisConfig{
			Addr:     cfg.Monitor.Redis.Addr,
			Password: cfg.Monitor.Redis.Password,
			DB:       cfg.Monitor.Redis.DB,
		})
	} else {
		reportCache = svccache.NewTTLCache()
	}
	return usecase.NewDriftReportUseCase(store, reportCache, cfg.Monitor.Drift, cfg.Monitor.ReportTTL, l)
}

// ProvideSessionCollector creates the session collector use case.
func ProvideSessionCollector(
    stream repository.SessionStream,
    monitor *usecase.MonitorUseCase,
    metrics repository.Metrics,
    cfg *config.Config,
) *usecase.SessionCollector {
    // Build middleware pipeline between the gateway stream and the monitor
    rate := cfg.Monitor.MaxSessionRate
    if rate <= 0 {
        rate = 5
    }
    pipe := mid.NewRealtimePipeline(monitor, metrics,
        mid.WithMaxRPS(rate),
        mid.WithBufferSize(2000),
    )
    return usecase.NewSessionCollector(stream, monitor, metrics, pipe)
}

// ProvideReplayJob creates the backfill replay job.
func ProvideReplayJob(backfill *gateway.BackfillClient, monitor *usecase.MonitorUseCase, l *applogger.Logger) *usecase.ReplayJob {
	return usecase.NewReplayJob(backfill, monitor, l)
}

// ProvideApp creates the application server.
func ProvideApp(
    cfg *config.Config,
    collector *usecase.SessionCollector,
    consumer *pkgkafka.Consumer,
    kh *usecase.KafkaSamplesHandler,
    chClient *pkgch.Client,
    redisCache *pkgcache.RedisCache,
    monitor *usecase.MonitorUseCase,
    series *usecase.SeriesUseCase,
    driftReport *usecase.DriftReportUseCase,
    replay *usecase.ReplayJob,
    proc *usecase.SampleProcessor,
    l *applogger.Logger,
) *server.App {
    // Attach hook to consumer: example NoopHook for now; can be replaced via config
    if consumer != nil {
        consumer.WithConsumerHook(pkgkafka.NoopHook{})
    }
    app := server.New(cfg, collector, consumer, kh, chClient, redisCache, l)
    app.Monitor = monitor
    app.Series = series
    app.DriftReport = driftReport
    app.Replay = replay
    app.SampleProc = proc
    return app
}
