package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/events"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
)

// Dispatcher turns bus events into user notifications. Delivery is
// fire-and-forget: a failed or slow send never blocks a runner.
type Dispatcher struct {
	store    *db.Database
	bus      *events.Bus
	notifier Notifier
}

func NewDispatcher(store *db.Database, bus *events.Bus, notifier Notifier) *Dispatcher {
	return &Dispatcher{store: store, bus: bus, notifier: notifier}
}

// Run consumes trade outcomes until ctx is canceled. Only order attempts
// are forwarded; the routine no-op and gate-denial outcomes would flood a
// chat channel every cycle.
func (d *Dispatcher) Run(ctx context.Context) {
	ch, unsub := d.bus.Subscribe(events.EventTradeOutcome, 64)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			payload, ok := msg.(events.OutcomePayload)
			if !ok {
				continue
			}
			if !notable(db.Outcome(payload.Outcome)) {
				continue
			}
			go d.send(ctx, payload)
		}
	}
}

func notable(o db.Outcome) bool {
	switch o {
	case db.OutcomeProfit, db.OutcomeFailed, db.OutcomeError:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) send(ctx context.Context, p events.OutcomePayload) {
	user, err := d.store.GetUser(ctx, p.UserID)
	if err != nil {
		log.Printf("notify: lookup user %s: %v", p.UserID, err)
		return
	}
	if user.TelegramChatID == "" {
		return
	}

	if err := d.notifier.Notify(ctx, user.TelegramChatID, format(p)); err != nil {
		log.Printf("notify: user %s: %v", p.UserID, err)
	}
}

func format(p events.OutcomePayload) string {
	switch db.Outcome(p.Outcome) {
	case db.OutcomeProfit:
		return fmt.Sprintf("%s %s %s on %s filled, +%.2f", p.Strategy, p.Side, p.Pair, p.Venue, p.ProfitDelta)
	case db.OutcomeFailed:
		return fmt.Sprintf("%s trade on %s failed: %s", p.Strategy, p.Venue, p.Detail)
	default:
		return fmt.Sprintf("%s cycle error: %s", p.Strategy, p.Detail)
	}
}
