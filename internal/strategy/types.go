package strategy

import (
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// Snapshot is the market data visible to one strategy evaluation. It is
// rebuilt every cycle and never persisted.
type Snapshot struct {
	Venue   common.Venue
	Pair    string
	Price   float64
	History []float64 // closes, oldest first, most recent last

	// Cross-venue fields, populated only for the arbitrage check.
	BinancePrice float64 // quoted in USDT
	LunoPrice    float64 // quoted in ZAR
	FiatRate     float64 // USDT -> ZAR
}

// Decision is an ephemeral trade proposal. Amount is filled in by the risk
// gate after approval; strategies only pick venue, pair and side.
type Decision struct {
	Strategy string
	Venue    common.Venue
	Pair     string
	Side     common.Side
	Amount   float64
	Note     string
}

// Strategy is a pure decision procedure over one snapshot. A nil or empty
// decision slice means no-op for the cycle. Arbitrage returns a two-leg
// pair that the executor treats as all-or-failed.
type Strategy interface {
	Name() string
	Evaluate(snap Snapshot, user *db.User) ([]Decision, error)
}

// Default trading pairs per venue.
const (
	BinancePair = "BTCUSDT"
	LunoPair    = "XBTZAR"
)

// ForExchange returns the strategy subset bound to a user's venue. New
// variants slot in here without touching the runner.
func ForExchange(ex db.Exchange, defaults Defaults) []Strategy {
	switch ex {
	case db.ExchangeBinance:
		return []Strategy{
			NewMomentum(defaults.MomentumLookback),
			NewTrendFollow(),
			NewDipBuyer(defaults.DipWindow),
		}
	case db.ExchangeLuno:
		return []Strategy{
			NewMeanReversion(defaults.MeanRevertWindow, defaults.MeanRevertThresholdPct),
			NewRangeRSI(defaults.RSIPeriod),
		}
	default:
		return nil
	}
}

// PairFor returns the default trading pair for a venue.
func PairFor(venue common.Venue) string {
	if venue == common.VenueLuno {
		return LunoPair
	}
	return BinancePair
}
