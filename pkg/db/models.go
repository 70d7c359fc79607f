package db

import "time"

// Exchange selects which venue(s) a user's autobot trades on.
type Exchange string

const (
	ExchangeBinance Exchange = "binance"
	ExchangeLuno    Exchange = "luno"
	ExchangeBoth    Exchange = "both"
)

// Outcome is the terminal classification of one strategy evaluation cycle.
// It is persisted in trades.outcome and users.last_trade_result.
type Outcome string

const (
	OutcomeProfit     Outcome = "profit"
	OutcomeFailed     Outcome = "failed"
	OutcomeError      Outcome = "error"
	OutcomeNone       Outcome = "none"
	OutcomeLowBalance Outcome = "low_balance"
	OutcomeMinTrade   Outcome = "min_trade_not_met"
)

// User is a trading profile row. The runner that owns the user is the only
// writer of daily_profit and last_trade_result while it is alive.
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	TelegramChatID string
	Exchange       Exchange
	Active         bool
	AutobotEnabled bool

	RiskTolerance float64 // fraction of balance per trade
	ProfitTarget  float64 // currency units credited on a successful order
	DipThreshold  float64 // percent, negative
	RSIOversold   float64
	RSIOverbought float64
	MAShort       int
	MALong        int

	DailyProfit     float64
	LastTradeResult string

	BinanceAPIKey    string // ciphertext at rest
	BinanceAPISecret string
	LunoAPIKeyID     string
	LunoAPISecret    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Trade is one recorded strategy execution.
type Trade struct {
	ID          string
	UserID      string
	Strategy    string
	Venue       string
	Pair        string
	Side        string
	Amount      float64
	Outcome     string
	ProfitDelta float64
	CreatedAt   time.Time
}

// BotEvent is an append-only lifecycle/outcome log row.
type BotEvent struct {
	ID        string
	UserID    string
	EventType string
	Message   string
	Status    string
	Error     string
	CreatedAt time.Time
}

// LeaderboardEntry is the reporting view over daily_profit.
type LeaderboardEntry struct {
	UserID      string
	Email       string
	DailyProfit float64
	LastResult  string
}
