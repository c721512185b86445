package provider

import (
	"context"

	"fxrates/internal/rates"
)

// RatesProvider fetches the latest daily rate snapshot from an upstream feed.
type RatesProvider interface {
	FetchRates(ctx context.Context) (*rates.RateSet, error)
}
