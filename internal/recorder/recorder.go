package recorder

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/events"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
)

// Entry is one cycle outcome to persist for a user.
type Entry struct {
	UserID      string
	Strategy    string
	Venue       string
	Pair        string
	Side        string
	Amount      float64
	Outcome     db.Outcome
	ProfitDelta float64
	Detail      string
}

// Recorder applies outcomes to the registry with single-writer semantics.
// The scheduler guarantees one runner per user, so the per-user lock only
// serializes the read-modify-write against the store's latency.
type Recorder struct {
	store *db.Database
	bus   *events.Bus

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store *db.Database, bus *events.Bus) *Recorder {
	return &Recorder{
		store: store,
		bus:   bus,
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *Recorder) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	return l
}

// Record updates the user's daily_profit and last_trade_result, appends a
// trade row when an order was attempted (the entry carries a pair), and
// publishes the outcome on the bus.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	l := r.userLock(e.UserID)
	l.Lock()
	defer l.Unlock()

	if err := r.store.RecordOutcome(ctx, e.UserID, e.Outcome, e.ProfitDelta); err != nil {
		return fmt.Errorf("record outcome for %s: %w", e.UserID, err)
	}

	if e.Pair != "" {
		trade := db.Trade{
			ID:          uuid.NewString(),
			UserID:      e.UserID,
			Strategy:    e.Strategy,
			Venue:       e.Venue,
			Pair:        e.Pair,
			Side:        e.Side,
			Amount:      e.Amount,
			Outcome:     string(e.Outcome),
			ProfitDelta: e.ProfitDelta,
		}
		if err := r.store.RecordTrade(ctx, trade); err != nil {
			return fmt.Errorf("record trade for %s: %w", e.UserID, err)
		}
	}

	r.publish(e)
	return nil
}

// ResetDailyProfits zeroes every user's running total for a new day. It
// takes every user section it knows about first, so an in-flight Record
// cannot write a stale total back over the reset.
func (r *Recorder) ResetDailyProfits(ctx context.Context) error {
	r.mu.Lock()
	locks := make([]*sync.Mutex, 0, len(r.locks))
	for _, l := range r.locks {
		locks = append(locks, l)
	}
	r.mu.Unlock()

	for _, l := range locks {
		l.Lock()
	}
	defer func() {
		for _, l := range locks {
			l.Unlock()
		}
	}()
	return r.store.ResetDailyProfits(ctx)
}

func (r *Recorder) publish(e Entry) {
	r.bus.Publish(events.EventTradeOutcome, events.OutcomePayload{
		UserID:      e.UserID,
		Strategy:    e.Strategy,
		Venue:       e.Venue,
		Pair:        e.Pair,
		Side:        e.Side,
		Outcome:     string(e.Outcome),
		ProfitDelta: e.ProfitDelta,
		Detail:      e.Detail,
	})
}
