package strategy

import (
	"fmt"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// Arbitrage compares Binance (USDT) and Luno (ZAR) prices after converting
// to a common currency. A spread beyond the minimum yields a two-leg pair:
// buy the cheap venue, sell the other. The executor treats both legs as
// all-or-failed; a filled single leg is a reportable failure, not a no-op.
type Arbitrage struct {
	minSpreadPct float64
}

func NewArbitrage(minSpreadPct float64) *Arbitrage {
	if minSpreadPct <= 0 {
		minSpreadPct = 0.5
	}
	return &Arbitrage{minSpreadPct: minSpreadPct}
}

func (s *Arbitrage) Name() string { return "arbitrage" }

func (s *Arbitrage) Evaluate(snap Snapshot, user *db.User) ([]Decision, error) {
	if snap.BinancePrice <= 0 || snap.LunoPrice <= 0 {
		return nil, fmt.Errorf("arbitrage: missing venue prices")
	}
	if snap.FiatRate <= 0 {
		return nil, fmt.Errorf("arbitrage: missing fiat conversion rate")
	}

	binanceUSD := snap.BinancePrice
	lunoUSD := snap.LunoPrice / snap.FiatRate

	cheap, rich := binanceUSD, lunoUSD
	buyVenue, sellVenue := common.VenueBinance, common.VenueLuno
	if lunoUSD < binanceUSD {
		cheap, rich = lunoUSD, binanceUSD
		buyVenue, sellVenue = common.VenueLuno, common.VenueBinance
	}

	spreadPct := (rich - cheap) / cheap * 100
	if spreadPct <= s.minSpreadPct {
		return nil, nil
	}

	note := fmt.Sprintf("spread %.2f%% (binance %.2f vs luno %.2f USD)", spreadPct, binanceUSD, lunoUSD)
	return []Decision{
		{Strategy: s.Name(), Venue: buyVenue, Pair: PairFor(buyVenue), Side: common.SideBuy, Note: note},
		{Strategy: s.Name(), Venue: sellVenue, Pair: PairFor(sellVenue), Side: common.SideSell, Note: note},
	}, nil
}
