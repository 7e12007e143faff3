package usecase

import (
	"context"
	"strings"
	"time"

	"ETFScraper/internal/domain/models"
	drepo "ETFScraper/internal/domain/repository"
	dservice "ETFScraper/internal/domain/service"
	applogger "ETFScraper/pkg/logger"
)

// HoldingsFetcher fetches fund details and normalizes them into holdings.
type HoldingsFetcher struct {
	source     drepo.FundDetailsSource
	normalizer *Normalizer
	events     drepo.EventPublisher
	metrics    drepo.Metrics
	log        *applogger.Logger
}

// NewHoldingsFetcher creates a HoldingsFetcher. events and metrics may be nil.
func NewHoldingsFetcher(
	source drepo.FundDetailsSource,
	normalizer *Normalizer,
	events drepo.EventPublisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *HoldingsFetcher {
	if l == nil {
		l = applogger.Nop()
	}
	if normalizer == nil {
		normalizer = NewNormalizer(l)
	}
	return &HoldingsFetcher{
		source:     source,
		normalizer: normalizer,
		events:     events,
		metrics:    metrics,
		log:        l.Component("holdings"),
	}
}

var _ dservice.HoldingsService = (*HoldingsFetcher)(nil)

// GetETFHoldings returns the holdings of symbol. It never returns an error;
// failures are reported through the result's Failed, Error and Status.
func (f *HoldingsFetcher) GetETFHoldings(ctx context.Context, symbol string) models.FetchResult {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	start := time.Now()
	f.log.Info("fetching holdings", applogger.String("symbol", symbol))

	var (
		res     models.FetchResult
		skipped int
	)
	doc, err := f.source.Fetch(ctx, symbol)
	if err != nil {
		kind := models.ErrorKindOf(err)
		f.log.Warn("upstream fetch failed",
			applogger.String("symbol", symbol),
			applogger.String("kind", string(kind)),
			applogger.Error(err),
		)
		res = models.UpstreamFailure(kind)
	} else {
		res, skipped = f.normalizer.Extract(doc)
		f.log.Info("extracted holdings",
			applogger.String("symbol", symbol),
			applogger.Int("holdings", len(res.Holdings)),
			applogger.String("status", string(res.Status)),
		)
	}

	elapsed := time.Since(start)
	f.record(res, skipped, elapsed)
	f.publish(ctx, symbol, res, skipped, elapsed)
	return res
}

func (f *HoldingsFetcher) record(res models.FetchResult, skipped int, elapsed time.Duration) {
	if f.metrics == nil {
		return
	}
	f.metrics.RecordFetchResult(string(res.Status), string(res.ErrorKindValue()), len(res.Holdings))
	f.metrics.RecordHoldingsSkipped(skipped)
	f.metrics.RecordLatency("get_etf_holdings", elapsed.Seconds())
}

// publish is best effort; a publishing failure never changes the result.
func (f *HoldingsFetcher) publish(ctx context.Context, symbol string, res models.FetchResult, skipped int, elapsed time.Duration) {
	if f.events == nil {
		return
	}
	ev := models.FetchEvent{
		Type:       models.FetchEventType,
		Symbol:     symbol,
		Status:     res.Status,
		Failed:     res.Failed,
		Error:      res.ErrorKindValue(),
		Holdings:   len(res.Holdings),
		Skipped:    skipped,
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if err := f.events.PublishFetch(ctx, ev); err != nil {
		f.log.Warn("publish fetch event failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
}
