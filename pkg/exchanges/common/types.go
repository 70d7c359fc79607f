package common

import "errors"

// Side denotes order side.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Venue names a concrete exchange backend.
type Venue string

const (
	VenueBinance Venue = "binance"
	VenueLuno    Venue = "luno"
)

// ErrOrderRejected marks a venue-side rejection (bad pair, insufficient
// exchange balance, filters). Transport and auth failures are plain errors.
var ErrOrderRejected = errors.New("order rejected by exchange")

// OrderRequest captures a market order intent.
type OrderRequest struct {
	Pair     string
	Side     Side
	Amount   float64 // quote-currency value to spend/receive
	ClientID string  // optional client order id
}

// OrderResult returns the exchange ack.
type OrderResult struct {
	OrderID string
	Pair    string
	Side    Side
}
