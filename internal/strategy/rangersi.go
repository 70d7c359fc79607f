package strategy

import (
	"fmt"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/indicators"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// RangeRSI buys oversold and sells overbought conditions against the user's
// configured RSI bounds.
type RangeRSI struct {
	period int
}

func NewRangeRSI(period int) *RangeRSI {
	if period <= 0 {
		period = 14
	}
	return &RangeRSI{period: period}
}

func (s *RangeRSI) Name() string { return "range_rsi" }

func (s *RangeRSI) Evaluate(snap Snapshot, user *db.User) ([]Decision, error) {
	if len(snap.History) < s.period+1 {
		return nil, fmt.Errorf("range_rsi: need %d samples, have %d", s.period+1, len(snap.History))
	}

	oversold := user.RSIOversold
	if oversold <= 0 {
		oversold = 30
	}
	overbought := user.RSIOverbought
	if overbought <= 0 {
		overbought = 70
	}

	rsi := indicators.RSI(snap.History, s.period)

	var side common.Side
	switch {
	case rsi < oversold:
		side = common.SideBuy
	case rsi > overbought:
		side = common.SideSell
	default:
		return nil, nil
	}

	return []Decision{{
		Strategy: s.Name(),
		Venue:    snap.Venue,
		Pair:     snap.Pair,
		Side:     side,
		Note:     fmt.Sprintf("RSI %.2f (bounds %.0f/%.0f)", rsi, oversold, overbought),
	}}, nil
}
