package repository

import (
	"context"

	"ETFScraper/internal/domain/models"
)

// FundDetailsSource fetches the raw fund-details document for a ticker.
// Errors are *models.FetchError.
type FundDetailsSource interface {
	Fetch(ctx context.Context, ticker string) (models.RawDocument, error)
}

// EventPublisher publishes fetch outcomes. Implementations must not block
// the caller for long and must tolerate being called after Close.
type EventPublisher interface {
	PublishFetch(ctx context.Context, ev models.FetchEvent) error
	Close() error
}

type Metrics interface {
	RecordUpstreamAttempt(query, outcome string)
	RecordFetchResult(status, kind string, holdings int)
	RecordHoldingsSkipped(n int)
	RecordLatency(op string, seconds float64)
}
