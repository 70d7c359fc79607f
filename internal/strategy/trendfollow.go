package strategy

import (
	"fmt"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/indicators"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// TrendFollow rides the prevailing trend using two moving averages from the
// user's profile (20/50 by default): an uptrend with price above the short
// MA buys, the mirror image sells.
type TrendFollow struct{}

func NewTrendFollow() *TrendFollow { return &TrendFollow{} }

func (s *TrendFollow) Name() string { return "trend_follow" }

func (s *TrendFollow) Evaluate(snap Snapshot, user *db.User) ([]Decision, error) {
	short := user.MAShort
	if short <= 0 {
		short = 20
	}
	long := user.MALong
	if long <= short {
		long = 50
	}
	if len(snap.History) < long {
		return nil, fmt.Errorf("trend_follow: need %d samples, have %d", long, len(snap.History))
	}

	maShort := indicators.SMA(snap.History, short)
	maLong := indicators.SMA(snap.History, long)
	price := snap.Price
	if price == 0 {
		price = snap.History[len(snap.History)-1]
	}

	var side common.Side
	switch {
	case maShort > maLong && price > maShort:
		side = common.SideBuy
	case maShort < maLong && price < maShort:
		side = common.SideSell
	default:
		return nil, nil
	}

	return []Decision{{
		Strategy: s.Name(),
		Venue:    snap.Venue,
		Pair:     snap.Pair,
		Side:     side,
		Note:     fmt.Sprintf("MA%d %.2f vs MA%d %.2f, price %.2f", short, maShort, long, maLong, price),
	}}, nil
}
