package strategy

import (
	"fmt"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// Momentum signals on a strictly monotonic price run: every step up over the
// lookback window is a buy, every step down a sell. Mixed sequences are a
// no-op.
type Momentum struct {
	lookback int
}

func NewMomentum(lookback int) *Momentum {
	if lookback < 2 {
		lookback = 5
	}
	return &Momentum{lookback: lookback}
}

func (s *Momentum) Name() string { return "momentum" }

func (s *Momentum) Evaluate(snap Snapshot, user *db.User) ([]Decision, error) {
	if len(snap.History) < s.lookback {
		return nil, fmt.Errorf("momentum: need %d samples, have %d", s.lookback, len(snap.History))
	}
	window := snap.History[len(snap.History)-s.lookback:]

	rising, falling := true, true
	for i := 1; i < len(window); i++ {
		if window[i] <= window[i-1] {
			rising = false
		}
		if window[i] >= window[i-1] {
			falling = false
		}
	}

	var side common.Side
	switch {
	case rising:
		side = common.SideBuy
	case falling:
		side = common.SideSell
	default:
		return nil, nil
	}

	return []Decision{{
		Strategy: s.Name(),
		Venue:    snap.Venue,
		Pair:     snap.Pair,
		Side:     side,
		Note:     fmt.Sprintf("monotonic run over %d samples", s.lookback),
	}}, nil
}
