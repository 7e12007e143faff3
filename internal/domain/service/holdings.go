package service

import (
	"context"

	"ETFScraper/internal/domain/models"
)

// HoldingsService returns the normalized holdings of an ETF.
type HoldingsService interface {
	GetETFHoldings(ctx context.Context, symbol string) models.FetchResult
}
