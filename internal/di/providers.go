package di

import (
	"fmt"
	"net/http"
	"net/url"

	drepo "ETFScraper/internal/domain/repository"
	dservice "ETFScraper/internal/domain/service"
	"ETFScraper/internal/handler/api"
	internalrepo "ETFScraper/internal/repository"
	"ETFScraper/internal/service/etfcom"
	"ETFScraper/internal/usecase"
	"ETFScraper/pkg/config"
	xhttp "ETFScraper/pkg/http"
	pkgkafka "ETFScraper/pkg/kafka"
	applogger "ETFScraper/pkg/logger"
	"ETFScraper/pkg/metrics"
	"ETFScraper/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger creates the application logger. Error logs are aggregated
// and shipped to Kafka when a log topic is configured.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			Topic:     cfg.Kafka.LogTopic,
			Publisher: producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideEventPublisher publishes fetch events to Kafka, or drops them when
// Kafka is disabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideUpstreamHTTPClient creates the HTTP client used for etf.com. It
// presents a browser TLS fingerprint unless fingerprinting is set to none.
// An explicit upstream proxy replaces the environment proxy settings.
func ProvideUpstreamHTTPClient(cfg *config.Config) (*xhttp.Client, error) {
	proxy := http.ProxyFromEnvironment
	if cfg.Upstream.Proxy != "" {
		u, err := url.Parse(cfg.Upstream.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse upstream proxy: %w", err)
		}
		proxy = http.ProxyURL(u)
	}

	opts := []xhttp.ClientOption{xhttp.WithTimeout(cfg.Upstream.Timeout)}
	if hello, ok := xhttp.BrowserFingerprint(cfg.Upstream.Fingerprint); ok {
		opts = append(opts, xhttp.WithTransport(xhttp.NewBrowserTransport(hello, xhttp.WithProxy(proxy))))
	} else {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.Proxy = proxy
		opts = append(opts, xhttp.WithTransport(tr))
	}
	return xhttp.NewClient(opts...), nil
}

// ProvideFundDetailsSource creates the etf.com client.
func ProvideFundDetailsSource(
	cfg *config.Config,
	hc *xhttp.Client,
	m drepo.Metrics,
	l *applogger.Logger,
) drepo.FundDetailsSource {
	return etfcom.New(
		etfcom.WithURL(cfg.Upstream.URL),
		etfcom.WithUserAgent(cfg.Upstream.UserAgent),
		etfcom.WithHTTPClient(hc),
		etfcom.WithMetrics(m),
		etfcom.WithLogger(l),
	)
}

// ProvideNormalizer creates the holdings normalizer.
func ProvideNormalizer(l *applogger.Logger) *usecase.Normalizer {
	return usecase.NewNormalizer(l)
}

// ProvideHoldingsService creates the holdings use case.
func ProvideHoldingsService(
	source drepo.FundDetailsSource,
	normalizer *usecase.Normalizer,
	events drepo.EventPublisher,
	m drepo.Metrics,
	l *applogger.Logger,
) dservice.HoldingsService {
	return usecase.NewHoldingsFetcher(source, normalizer, events, m, l)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(l *applogger.Logger, svc dservice.HoldingsService) xhttp.Handler {
	return api.NewHoldingsEchoHandler(l, svc)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	events drepo.EventPublisher,
) *server.App {
	return server.New(cfg, l, handler, events)
}
