package risk

import (
	"testing"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		balance    float64
		risk       float64
		wantAmount float64
		wantDenial Denial
	}{
		{name: "approved", balance: 5000, risk: 0.02, wantAmount: 100, wantDenial: DenyNone},
		{name: "approved at exact floors", balance: 2500, risk: 0.02, wantAmount: 50, wantDenial: DenyNone},
		{name: "balance below floor", balance: 99.99, risk: 0.5, wantDenial: DenyLowBalance},
		{name: "zero balance", balance: 0, risk: 0.02, wantDenial: DenyLowBalance},
		{name: "trade value below floor", balance: 1000, risk: 0.02, wantDenial: DenyMinTrade},
		{name: "balance floor wins over trade floor", balance: 50, risk: 0.001, wantDenial: DenyLowBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, denial := Check(tt.balance, tt.risk)
			if denial != tt.wantDenial {
				t.Fatalf("denial = %v, want %v", denial, tt.wantDenial)
			}
			if amount != tt.wantAmount {
				t.Errorf("amount = %v, want %v", amount, tt.wantAmount)
			}
		})
	}
}

func TestDenialOutcome(t *testing.T) {
	if got := DenyLowBalance.Outcome(); got != db.OutcomeLowBalance {
		t.Errorf("DenyLowBalance.Outcome() = %s", got)
	}
	if got := DenyMinTrade.Outcome(); got != db.OutcomeMinTrade {
		t.Errorf("DenyMinTrade.Outcome() = %s", got)
	}
	if got := DenyNone.Outcome(); got != db.OutcomeNone {
		t.Errorf("DenyNone.Outcome() = %s", got)
	}
}
