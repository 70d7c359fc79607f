package recorder

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/events"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
)

// Journal persists bus traffic into the append-only bot_events log.
// Best-effort: a write failure is logged and dropped.
type Journal struct {
	store *db.Database
	bus   *events.Bus
}

func NewJournal(store *db.Database, bus *events.Bus) *Journal {
	return &Journal{store: store, bus: bus}
}

// Run consumes lifecycle and outcome events until ctx is canceled.
func (j *Journal) Run(ctx context.Context) {
	outcomes, unsubOutcomes := j.bus.Subscribe(events.EventTradeOutcome, 64)
	defer unsubOutcomes()
	started, unsubStarted := j.bus.Subscribe(events.EventRunnerStarted, 16)
	defer unsubStarted()
	stopped, unsubStopped := j.bus.Subscribe(events.EventRunnerStopped, 16)
	defer unsubStopped()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-outcomes:
			if p, ok := msg.(events.OutcomePayload); ok {
				j.append(ctx, db.BotEvent{
					UserID:    p.UserID,
					EventType: string(events.EventTradeOutcome),
					Message:   p.Strategy,
					Status:    p.Outcome,
					Error:     p.Detail,
				})
			}
		case msg := <-started:
			if p, ok := msg.(events.LifecyclePayload); ok {
				j.append(ctx, db.BotEvent{
					UserID:    p.UserID,
					EventType: string(events.EventRunnerStarted),
					Message:   p.Reason,
					Status:    "ok",
				})
			}
		case msg := <-stopped:
			if p, ok := msg.(events.LifecyclePayload); ok {
				j.append(ctx, db.BotEvent{
					UserID:    p.UserID,
					EventType: string(events.EventRunnerStopped),
					Message:   p.Reason,
					Status:    "ok",
				})
			}
		}
	}
}

func (j *Journal) append(ctx context.Context, e db.BotEvent) {
	e.ID = uuid.NewString()
	if err := j.store.AppendEvent(ctx, e); err != nil {
		log.Printf("journal: append %s for %s: %v", e.EventType, e.UserID, err)
	}
}
