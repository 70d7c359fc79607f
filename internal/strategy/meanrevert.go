package strategy

import (
	"fmt"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/indicators"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// MeanReversion compares the latest price against the mean of the preceding
// window-1 samples. Deviation beyond the threshold fades the move: rich
// prices are sold, cheap ones bought.
type MeanReversion struct {
	window       int
	thresholdPct float64
}

func NewMeanReversion(window int, thresholdPct float64) *MeanReversion {
	if window < 2 {
		window = 10
	}
	if thresholdPct <= 0 {
		thresholdPct = 1
	}
	return &MeanReversion{window: window, thresholdPct: thresholdPct}
}

func (s *MeanReversion) Name() string { return "mean_reversion" }

func (s *MeanReversion) Evaluate(snap Snapshot, user *db.User) ([]Decision, error) {
	if len(snap.History) < s.window {
		return nil, fmt.Errorf("mean_reversion: need %d samples, have %d", s.window, len(snap.History))
	}
	window := snap.History[len(snap.History)-s.window:]
	latest := window[len(window)-1]

	mean := indicators.SMA(window[:len(window)-1], len(window)-1)
	if mean == 0 {
		return nil, nil
	}
	deviationPct := (latest - mean) / mean * 100

	var side common.Side
	switch {
	case deviationPct > s.thresholdPct:
		side = common.SideSell
	case deviationPct < -s.thresholdPct:
		side = common.SideBuy
	default:
		return nil, nil
	}

	return []Decision{{
		Strategy: s.Name(),
		Venue:    snap.Venue,
		Pair:     snap.Pair,
		Side:     side,
		Note:     fmt.Sprintf("deviation %.2f%% from mean %.2f", deviationPct, mean),
	}}, nil
}
