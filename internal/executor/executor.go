package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/strategy"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// Executor submits approved decisions to the venue gateways and classifies
// the result into a terminal outcome. It never retries within a cycle.
type Executor struct {
	gateways map[common.Venue]common.Gateway
	timeout  time.Duration
}

func New(gateways map[common.Venue]common.Gateway, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Executor{gateways: gateways, timeout: timeout}
}

// Result is the classified end state of an execution attempt.
type Result struct {
	Outcome     db.Outcome
	ProfitDelta float64
	Detail      string
}

// Execute places the given legs sequentially, each under its own deadline.
// All legs filled yields OutcomeProfit crediting profitTarget. A venue
// rejection maps to OutcomeFailed, any other error (timeouts included) to
// OutcomeError. For a multi-leg set, a failure after the first fill is a
// partial execution and always reports OutcomeFailed; there is no unwind of
// the filled leg.
func (e *Executor) Execute(ctx context.Context, decisions []strategy.Decision, profitTarget float64) Result {
	if len(decisions) == 0 {
		return Result{Outcome: db.OutcomeNone}
	}

	filled := 0
	for _, d := range decisions {
		gw, ok := e.gateways[d.Venue]
		if !ok {
			return Result{
				Outcome: db.OutcomeError,
				Detail:  fmt.Sprintf("no gateway for venue %s", d.Venue),
			}
		}

		if _, err := e.placeOrder(ctx, gw, d); err != nil {
			if filled > 0 {
				return Result{
					Outcome: db.OutcomeFailed,
					Detail:  fmt.Sprintf("partial execution: %d of %d legs filled, %s leg: %v", filled, len(decisions), d.Venue, err),
				}
			}
			if errors.Is(err, common.ErrOrderRejected) {
				return Result{Outcome: db.OutcomeFailed, Detail: err.Error()}
			}
			return Result{Outcome: db.OutcomeError, Detail: err.Error()}
		}
		filled++
	}

	return Result{
		Outcome:     db.OutcomeProfit,
		ProfitDelta: profitTarget,
		Detail:      decisions[0].Note,
	}
}

func (e *Executor) placeOrder(ctx context.Context, gw common.Gateway, d strategy.Decision) (common.OrderResult, error) {
	// The deadline is the only way out of a placement call. Runner
	// cancellation must not truncate an order already in flight.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	return gw.PlaceOrder(callCtx, common.OrderRequest{
		Pair:     d.Pair,
		Side:     d.Side,
		Amount:   d.Amount,
		ClientID: uuid.NewString(),
	})
}
