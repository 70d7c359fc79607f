package common

import "context"

// Gateway abstracts a trading venue: public market data plus the signed
// account/order surface. All calls honor ctx deadlines.
type Gateway interface {
	// Venue identifies the backend.
	Venue() Venue
	// Price returns the latest traded price for pair.
	Price(ctx context.Context, pair string) (float64, error)
	// PriceHistory returns up to n closes for pair at interval, ordered
	// oldest first (most recent last).
	PriceHistory(ctx context.Context, pair, interval string, n int) ([]float64, error)
	// Balance returns the free balance for an asset.
	Balance(ctx context.Context, asset string) (float64, error)
	// PlaceOrder submits a market order. Venue-side rejections wrap
	// ErrOrderRejected.
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}
