package events

// Event enumerates high-level topics inside the autobot core.
type Event string

const (
	EventRunnerStarted  Event = "autobot.runner_started"
	EventRunnerStopped  Event = "autobot.runner_stopped"
	EventTradeOutcome   Event = "autobot.trade_outcome"
	EventSchedulerError Event = "autobot.scheduler_error"
)

// OutcomePayload travels on EventTradeOutcome.
type OutcomePayload struct {
	UserID      string  `json:"user_id"`
	Strategy    string  `json:"strategy"`
	Venue       string  `json:"venue"`
	Pair        string  `json:"pair"`
	Side        string  `json:"side"`
	Outcome     string  `json:"outcome"`
	ProfitDelta float64 `json:"profit_delta"`
	Detail      string  `json:"detail,omitempty"`
}

// LifecyclePayload travels on runner start/stop events.
type LifecyclePayload struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason,omitempty"`
}
