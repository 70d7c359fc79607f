package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults carries strategy parameters that are not per-user. They ship with
// sensible values and can be overridden by a YAML file.
type Defaults struct {
	MomentumLookback       int     `yaml:"momentum_lookback"`
	MeanRevertWindow       int     `yaml:"mean_revert_window"`
	MeanRevertThresholdPct float64 `yaml:"mean_revert_threshold_pct"`
	DipWindow              int     `yaml:"dip_window"`
	RSIPeriod              int     `yaml:"rsi_period"`
	MinArbSpreadPct        float64 `yaml:"min_arb_spread_pct"`
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Defaults {
	return Defaults{
		MomentumLookback:       5,
		MeanRevertWindow:       10,
		MeanRevertThresholdPct: 1,
		DipWindow:              15,
		RSIPeriod:              14,
		MinArbSpreadPct:        0.5,
	}
}

// LoadDefaults reads overrides from a YAML file; zero-valued fields keep the
// reference parameters. An empty path returns DefaultConfig unchanged.
func LoadDefaults(path string) (Defaults, error) {
	def := DefaultConfig()
	if path == "" {
		return def, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("read strategy defaults: %w", err)
	}

	var file Defaults
	if err := yaml.Unmarshal(data, &file); err != nil {
		return def, fmt.Errorf("parse strategy defaults: %w", err)
	}

	if file.MomentumLookback > 0 {
		def.MomentumLookback = file.MomentumLookback
	}
	if file.MeanRevertWindow > 0 {
		def.MeanRevertWindow = file.MeanRevertWindow
	}
	if file.MeanRevertThresholdPct > 0 {
		def.MeanRevertThresholdPct = file.MeanRevertThresholdPct
	}
	if file.DipWindow > 0 {
		def.DipWindow = file.DipWindow
	}
	if file.RSIPeriod > 0 {
		def.RSIPeriod = file.RSIPeriod
	}
	if file.MinArbSpreadPct > 0 {
		def.MinArbSpreadPct = file.MinArbSpreadPct
	}
	return def, nil
}
