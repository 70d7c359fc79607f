package risk

import "github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"

// Balance and trade-size floors, in the account's quote currency.
const (
	MinBalance    = 100
	MinTradeValue = 50
)

// Denial names why the gate refused a trade. DenyNone means approved.
type Denial int

const (
	DenyNone Denial = iota
	DenyLowBalance
	DenyMinTrade
)

// Outcome maps a denial to its recorded outcome code.
func (d Denial) Outcome() db.Outcome {
	switch d {
	case DenyLowBalance:
		return db.OutcomeLowBalance
	case DenyMinTrade:
		return db.OutcomeMinTrade
	default:
		return db.OutcomeNone
	}
}

// Check sizes a candidate trade and applies both floors. It is a pure
// predicate shared by every strategy path; an approved trade returns the
// amount to commit (balance scaled by the user's risk fraction) and
// DenyNone.
func Check(balance, riskTolerance float64) (float64, Denial) {
	if balance < MinBalance {
		return 0, DenyLowBalance
	}
	amount := balance * riskTolerance
	if amount < MinTradeValue {
		return 0, DenyMinTrade
	}
	return amount, DenyNone
}
