package di

import (
	"context"
	"fmt"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
	domsvc "github.com/aayeshatech/SYMBOLASTRO/internal/domain/service"
	"github.com/aayeshatech/SYMBOLASTRO/internal/handler/api"
	internalrepo "github.com/aayeshatech/SYMBOLASTRO/internal/repository"
	"github.com/aayeshatech/SYMBOLASTRO/internal/service/notify"
	"github.com/aayeshatech/SYMBOLASTRO/internal/service/ratelimit"
	"github.com/aayeshatech/SYMBOLASTRO/internal/services/astro"
	"github.com/aayeshatech/SYMBOLASTRO/internal/usecase"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/cache"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/config"
	xhttp "github.com/aayeshatech/SYMBOLASTRO/pkg/http"
	pkgkafka "github.com/aayeshatech/SYMBOLASTRO/pkg/kafka"
	applogger "github.com/aayeshatech/SYMBOLASTRO/pkg/logger"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/metrics"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "symbolastro",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideCache creates the cache backend selected by cache.backend. The
// cleanup closes it.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	svc, err := newCache(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := svc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return svc, cleanup, nil
}

func newCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Backend == "memory" {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if cfg.Cache.Backend == "layered" {
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			cache.WithLayeredMemoryTTL(cfg.Analysis.CacheTTL),
		), nil
	}
	return rc, nil
}

// ProvideAnalysisCache stores results in the cache backend.
func ProvideAnalysisCache(svc cache.Service, cfg *config.Config) repository.AnalysisCache {
	return internalrepo.NewCachedAnalyses(svc, cfg.Analysis.CacheTTL)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
// The cleanup flushes and closes it.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	cleanup := func() {
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return producer, cleanup, nil
}

// ProvideResultPublisher publishes to the results topic when Kafka is enabled.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ResultsTopic)
}

// ProvideNotifier creates the webhook notifier when enabled.
func ProvideNotifier(cfg *config.Config) repository.Notifier {
	if !cfg.Notify.Enabled {
		return notify.Nop{}
	}
	return notify.NewWebhook(notify.Config{
		URL:     cfg.Notify.WebhookURL,
		ChatID:  cfg.Notify.ChatID,
		Labels:  cfg.Notify.Labels,
		Timeout: cfg.Notify.Timeout,
	}, xhttp.NewClient(
		xhttp.WithTimeout(cfg.Notify.Timeout),
		xhttp.WithUserAgent(cfg.Notify.UserAgent),
	))
}

// ProvideAnalyzer creates the transit scoring engine.
func ProvideAnalyzer() domsvc.Analyzer {
	return astro.NewEngine()
}

// ProvideAnalysisUseCase wires the analysis use case.
func ProvideAnalysisUseCase(
	analyzer domsvc.Analyzer,
	ac repository.AnalysisCache,
	pub repository.ResultPublisher,
	notifier repository.Notifier,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(usecase.AnalysisDeps{
		Analyzer:  analyzer,
		Cache:     ac,
		Publisher: pub,
		Notifier:  notifier,
		Metrics:   m,
		Logger:    l.With(applogger.String("component", "analysis")),
		Symbols:   cfg.Analysis.Symbols,
	})
}

// ProvideRateLimiter creates the per-client limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideAnalysisHandler creates the HTTP handler.
func ProvideAnalysisHandler(l *applogger.Logger, uc *usecase.AnalysisUseCase, limiter *ratelimit.Limiter) *api.AnalysisEchoHandler {
	return api.NewAnalysisEchoHandler(l, uc, limiter)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when Kafka is
// disabled or no requests topic is configured. App stops it during
// shutdown; the cleanup covers the case where the app never ran.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, func(), error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.RequestsTopic == "" {
		return nil, func() {}, nil
	}
	opts := []pkgkafka.ConsumerOption{
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerLogger(l.With(applogger.String("component", "kafka-consumer"))),
	}
	if cfg.Kafka.Consumer.DLQTopic != "" {
		opts = append(opts, pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic))
	}
	consumer, err := pkgkafka.NewConsumer(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka consumer: %w", err)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	return consumer, cleanup, nil
}

// ProvideAnalysisRequestHandler handles the requests topic.
func ProvideAnalysisRequestHandler(cfg *config.Config, uc *usecase.AnalysisUseCase, l *applogger.Logger) *usecase.AnalysisRequestHandler {
	return usecase.NewAnalysisRequestHandler(cfg.Kafka.RequestsTopic, uc, l)
}

// ProvideApp creates the application server. When Kafka and a logs topic
// are configured, error logs are aggregated and shipped there.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	h *api.AnalysisEchoHandler,
	uc *usecase.AnalysisUseCase,
	consumer *pkgkafka.Consumer,
	kh *usecase.AnalysisRequestHandler,
	producer *pkgkafka.Producer,
) *server.App {
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			Topic:     cfg.Kafka.LogsTopic,
			Publisher: producer,
		})
	}

	d := server.Deps{
		HTTPHandler: h,
		Analysis:    uc,
	}
	if consumer != nil {
		d.Consumer = consumer
		d.Handler = kh
	}
	return server.New(cfg, l, d)
}
