package di

import (
	"fmt"

	"IntelliMarket/internal/domain/repository"
	"IntelliMarket/internal/domain/service"
	"IntelliMarket/internal/handler/api"
	internalrepo "IntelliMarket/internal/repository"
	"IntelliMarket/internal/service/progress"
	"IntelliMarket/internal/service/ratelimit"
	"IntelliMarket/internal/services/backend"
	"IntelliMarket/internal/usecase"
	"IntelliMarket/pkg/cache"
	"IntelliMarket/pkg/config"
	xhttp "IntelliMarket/pkg/http"
	pkgkafka "IntelliMarket/pkg/kafka"
	"IntelliMarket/pkg/logger"
	"IntelliMarket/pkg/metrics"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, p.MaxAttempts, p.WriteTimeout),
		pkgkafka.WithBatching(p.BatchSize, p.BatchBytes, p.Linger),
		pkgkafka.WithAsync(p.Async),
		pkgkafka.WithKeyedPartitioning(),
	)
	if err != nil {
		return nil, nil, err
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger. With Kafka enabled, warnings
// and errors are aggregated and shipped to the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer == nil {
		return l, func() {}, nil
	}
	l.AddCollector(&logger.CollectionConfig{
		Topic:     cfg.Kafka.LogTopic,
		Publisher: producer,
	})
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NopMetrics{}
	}
	return metrics.New()
}

// ProvideEventPublisher publishes analysis events to Kafka when enabled.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideHistoryCache opens the keyed blob store selected by history.store.
// Redis is fronted by an in-memory layer.
func ProvideHistoryCache(cfg *config.Config) (cache.Service, func(), error) {
	var store cache.Service
	switch cfg.History.Store {
	case "memory":
		store = cache.NewMemoryCache(cache.WithMemoryMaxSize(16))
	case "sqlite":
		c, err := cache.NewSQLiteCache(cfg.History.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("history store: %w", err)
		}
		store = c
	case "redis":
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Addr),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("history store: %w", err)
		}
		store = cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(16))
	default:
		return nil, nil, fmt.Errorf("history store: unknown store %q", cfg.History.Store)
	}
	return store, func() { _ = store.Close() }, nil
}

// ProvideHistory creates the recent-history repository.
func ProvideHistory(cfg *config.Config, store cache.Service, l *logger.Logger, m repository.Metrics) repository.HistoryStore {
	return internalrepo.NewRecentHistory(store, cfg.History.Key, l, m)
}

// ProvideAnalyzer creates the backend client.
func ProvideAnalyzer(cfg *config.Config, l *logger.Logger, m repository.Metrics) service.Analyzer {
	return backend.NewClient(cfg, l, m)
}

// ProvideTracker creates the progress tracker.
func ProvideTracker(cfg *config.Config) *progress.Tracker {
	return progress.New(
		progress.WithInterval(cfg.Progress.Interval),
		progress.WithHideDelay(cfg.Progress.HideDelay),
	)
}

// ProvideLimiter creates the per-client limiter for analyze endpoints.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(float64(cfg.Server.RateLimit.Capacity), cfg.Server.RateLimit.RefillPerSec)
}

// ProvideHandler registers every display-server route.
func ProvideHandler(cfg *config.Config, l *logger.Logger, ctrl *usecase.Controller, limiter *ratelimit.Limiter) xhttp.Handler {
	return xhttp.Handlers{
		api.NewPageHandler(l, ctrl),
		api.NewAnalysisHandler(l, ctrl, limiter),
		api.NewValidateHandler(l, ctrl, cfg.Validation.Debounce),
		api.NewProgressStream(l, ctrl, cfg.Server.CORSOrigins),
	}
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *logger.Logger) *xhttp.Server {
	path := cfg.Metrics.Path
	if !cfg.Metrics.Enabled {
		path = ""
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		xhttp.WithMetricsPath(path),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins...),
		xhttp.WithLogger(l),
	)
}
