package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

func testUser() *db.User {
	return &db.User{
		ID:            "u-test",
		Exchange:      db.ExchangeBinance,
		RiskTolerance: 0.02,
		ProfitTarget:  50,
		DipThreshold:  -3,
		RSIOversold:   30,
		RSIOverbought: 70,
		MAShort:       20,
		MALong:        50,
	}
}

func snap(history []float64) Snapshot {
	price := 0.0
	if len(history) > 0 {
		price = history[len(history)-1]
	}
	return Snapshot{
		Venue:   common.VenueBinance,
		Pair:    BinancePair,
		Price:   price,
		History: history,
	}
}

func TestMomentum(t *testing.T) {
	tests := []struct {
		name    string
		history []float64
		want    common.Side
		none    bool
	}{
		{name: "strictly rising buys", history: []float64{100, 101, 102, 103, 104}, want: common.SideBuy},
		{name: "strictly falling sells", history: []float64{104, 103, 102, 101, 100}, want: common.SideSell},
		{name: "mixed is a no-op", history: []float64{100, 101, 100, 102, 101}, none: true},
		{name: "flat step breaks the run", history: []float64{100, 101, 101, 102, 103}, none: true},
	}

	s := NewMomentum(5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Evaluate(snap(tt.history), testUser())
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if tt.none {
				if len(got) != 0 {
					t.Fatalf("expected no decision, got %+v", got)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 decision, got %d", len(got))
			}
			if got[0].Side != tt.want {
				t.Errorf("side = %s, want %s", got[0].Side, tt.want)
			}
		})
	}
}

func TestMomentumShortHistory(t *testing.T) {
	s := NewMomentum(5)
	if _, err := s.Evaluate(snap([]float64{100, 101}), testUser()); err == nil {
		t.Fatal("expected error for short history")
	}
}

func TestMeanReversion(t *testing.T) {
	base := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100}

	tests := []struct {
		name   string
		latest float64
		want   common.Side
		none   bool
	}{
		{name: "rich price sells", latest: 102, want: common.SideSell},
		{name: "cheap price buys", latest: 98, want: common.SideBuy},
		{name: "within threshold is a no-op", latest: 100.5, none: true},
	}

	s := NewMeanReversion(10, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := append(append([]float64{}, base...), tt.latest)
			got, err := s.Evaluate(snap(history), testUser())
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if tt.none {
				if len(got) != 0 {
					t.Fatalf("expected no decision, got %+v", got)
				}
				return
			}
			if len(got) != 1 || got[0].Side != tt.want {
				t.Fatalf("got %+v, want side %s", got, tt.want)
			}
		})
	}
}

func TestRangeRSI(t *testing.T) {
	rising := make([]float64, 0, 20)
	falling := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		rising = append(rising, 100+float64(i))
		falling = append(falling, 120-float64(i))
	}
	// Alternating gains and losses of equal size keep RSI near 50.
	balanced := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			balanced = append(balanced, 100)
		} else {
			balanced = append(balanced, 101)
		}
	}

	tests := []struct {
		name    string
		history []float64
		want    common.Side
		none    bool
	}{
		{name: "overbought sells", history: rising, want: common.SideSell},
		{name: "oversold buys", history: falling, want: common.SideBuy},
		{name: "mid-range is a no-op", history: balanced, none: true},
	}

	s := NewRangeRSI(14)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Evaluate(snap(tt.history), testUser())
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if tt.none {
				if len(got) != 0 {
					t.Fatalf("expected no decision, got %+v", got)
				}
				return
			}
			if len(got) != 1 || got[0].Side != tt.want {
				t.Fatalf("got %+v, want side %s", got, tt.want)
			}
		})
	}
}

func TestDipBuyer(t *testing.T) {
	s := NewDipBuyer(15)

	dip := make([]float64, 15)
	for i := range dip {
		dip[i] = 100 - float64(i)*0.3 // ends at -4.2%
	}
	got, err := s.Evaluate(snap(dip), testUser())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 1 || got[0].Side != common.SideBuy {
		t.Fatalf("expected buy on dip, got %+v", got)
	}

	flat := make([]float64, 15)
	for i := range flat {
		flat[i] = 100
	}
	got, err = s.Evaluate(snap(flat), testUser())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no decision on flat market, got %+v", got)
	}
}

func TestTrendFollow(t *testing.T) {
	s := NewTrendFollow()
	user := testUser()

	uptrend := make([]float64, 50)
	for i := range uptrend {
		uptrend[i] = 100 + float64(i)
	}
	got, err := s.Evaluate(snap(uptrend), user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 1 || got[0].Side != common.SideBuy {
		t.Fatalf("expected buy in uptrend, got %+v", got)
	}

	downtrend := make([]float64, 50)
	for i := range downtrend {
		downtrend[i] = 200 - float64(i)
	}
	got, err = s.Evaluate(snap(downtrend), user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 1 || got[0].Side != common.SideSell {
		t.Fatalf("expected sell in downtrend, got %+v", got)
	}
}

func TestArbitrage(t *testing.T) {
	s := NewArbitrage(0.5)

	tests := []struct {
		name     string
		binance  float64
		luno     float64 // ZAR
		fiat     float64
		buyVenue common.Venue
		none     bool
		wantErr  bool
	}{
		{name: "luno rich buys binance", binance: 100000, luno: 1868500, fiat: 18.5, buyVenue: common.VenueBinance},
		{name: "binance rich buys luno", binance: 101500, luno: 1850000, fiat: 18.5, buyVenue: common.VenueLuno},
		{name: "thin spread is a no-op", binance: 100000, luno: 1850100, fiat: 18.5, none: true},
		{name: "missing fiat rate errors", binance: 100000, luno: 1850000, wantErr: true},
		{name: "missing venue price errors", luno: 1850000, fiat: 18.5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Evaluate(Snapshot{
				BinancePrice: tt.binance,
				LunoPrice:    tt.luno,
				FiatRate:     tt.fiat,
			}, testUser())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if tt.none {
				if len(got) != 0 {
					t.Fatalf("expected no decision, got %+v", got)
				}
				return
			}
			if len(got) != 2 {
				t.Fatalf("expected two legs, got %d", len(got))
			}
			if got[0].Side != common.SideBuy || got[0].Venue != tt.buyVenue {
				t.Errorf("buy leg = %s on %s, want buy on %s", got[0].Side, got[0].Venue, tt.buyVenue)
			}
			if got[1].Side != common.SideSell || got[1].Venue == tt.buyVenue {
				t.Errorf("sell leg = %s on %s, want sell on the other venue", got[1].Side, got[1].Venue)
			}
			if got[0].Pair != PairFor(got[0].Venue) || got[1].Pair != PairFor(got[1].Venue) {
				t.Errorf("pairs = %s/%s, want venue defaults", got[0].Pair, got[1].Pair)
			}
		})
	}
}

func TestForExchange(t *testing.T) {
	defaults := DefaultConfig()

	binance := ForExchange(db.ExchangeBinance, defaults)
	if len(binance) != 3 {
		t.Fatalf("binance subset = %d strategies, want 3", len(binance))
	}
	luno := ForExchange(db.ExchangeLuno, defaults)
	if len(luno) != 2 {
		t.Fatalf("luno subset = %d strategies, want 2", len(luno))
	}
	if got := ForExchange(db.ExchangeBoth, defaults); got != nil {
		t.Fatalf("both is resolved by the runner, want nil subset, got %d", len(got))
	}
}

func TestLoadDefaults(t *testing.T) {
	def, err := LoadDefaults("")
	if err != nil {
		t.Fatalf("LoadDefaults empty path: %v", err)
	}
	if def != DefaultConfig() {
		t.Fatalf("empty path should return reference defaults, got %+v", def)
	}

	path := filepath.Join(t.TempDir(), "strategies.yaml")
	content := "momentum_lookback: 8\nrsi_period: 21\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	def, err = LoadDefaults(path)
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if def.MomentumLookback != 8 || def.RSIPeriod != 21 {
		t.Errorf("overrides not applied: %+v", def)
	}
	if def.MeanRevertWindow != 10 || def.MinArbSpreadPct != 0.5 {
		t.Errorf("unset fields should keep reference values: %+v", def)
	}
}
