package domain

import "context"

// PriceSource is the remote quote endpoint collaborator. One
// call yields one USD-per-troy-ounce quote for a single metal.
type PriceSource interface {
	FetchQuote(ctx context.Context, metal Metal) (float64, error)
}

// OracleSink is the on-chain price oracle collaborator. All
// five values are published atomically as integer micro-units.
type OracleSink interface {
	SetPriceWithMetals(ctx context.Context, indexE6, xauE6, xagE6, xptE6, xpdE6 uint64) (txID string, err error)
	GetPricePerOzE6(ctx context.Context) (uint64, error)
	LastUpdateAt(ctx context.Context) (int64, error)
	MinUpdateInterval(ctx context.Context) (int64, error)
}
