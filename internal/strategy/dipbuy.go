package strategy

import (
	"fmt"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/indicators"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// DipBuyer buys when the percentage move over its window (one-minute closes,
// 15 by default) is at or below the user's dip threshold. It never sells.
type DipBuyer struct {
	window int
}

func NewDipBuyer(window int) *DipBuyer {
	if window < 2 {
		window = 15
	}
	return &DipBuyer{window: window}
}

func (s *DipBuyer) Name() string { return "dip_buyer" }

func (s *DipBuyer) Evaluate(snap Snapshot, user *db.User) ([]Decision, error) {
	if len(snap.History) < s.window {
		return nil, fmt.Errorf("dip_buyer: need %d samples, have %d", s.window, len(snap.History))
	}
	window := snap.History[len(snap.History)-s.window:]

	threshold := user.DipThreshold
	if threshold >= 0 {
		threshold = -3
	}

	changePct := indicators.PercentChange(window)
	if changePct > threshold {
		return nil, nil
	}

	return []Decision{{
		Strategy: s.Name(),
		Venue:    snap.Venue,
		Pair:     snap.Pair,
		Side:     common.SideBuy,
		Note:     fmt.Sprintf("dip %.2f%% <= %.2f%%", changePct, threshold),
	}}, nil
}
