package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/strategy"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/mock"
)

func newTestExecutor() (*Executor, *mock.Gateway, *mock.Gateway) {
	binance := mock.New(common.VenueBinance)
	luno := mock.New(common.VenueLuno)
	e := New(map[common.Venue]common.Gateway{
		common.VenueBinance: binance,
		common.VenueLuno:    luno,
	}, time.Second)
	return e, binance, luno
}

func buyDecision(venue common.Venue) strategy.Decision {
	return strategy.Decision{
		Strategy: "momentum",
		Venue:    venue,
		Pair:     strategy.PairFor(venue),
		Side:     common.SideBuy,
		Amount:   100,
	}
}

func TestExecuteSingleLeg(t *testing.T) {
	e, binance, _ := newTestExecutor()

	res := e.Execute(context.Background(), []strategy.Decision{buyDecision(common.VenueBinance)}, 50)
	if res.Outcome != db.OutcomeProfit {
		t.Fatalf("outcome = %s, want profit (%s)", res.Outcome, res.Detail)
	}
	if res.ProfitDelta != 50 {
		t.Errorf("profit delta = %v, want 50", res.ProfitDelta)
	}

	orders := binance.Orders()
	if len(orders) != 1 {
		t.Fatalf("placed %d orders, want 1", len(orders))
	}
	if orders[0].ClientID == "" {
		t.Error("order placed without a client id")
	}
	if orders[0].Amount != 100 {
		t.Errorf("order amount = %v, want 100", orders[0].Amount)
	}
}

func TestExecuteClassification(t *testing.T) {
	tests := []struct {
		name     string
		orderErr error
		want     db.Outcome
	}{
		{name: "rejection is failed", orderErr: fmt.Errorf("status 400: %w", common.ErrOrderRejected), want: db.OutcomeFailed},
		{name: "transport error is error", orderErr: errors.New("connection reset"), want: db.OutcomeError},
		{name: "deadline is error", orderErr: context.DeadlineExceeded, want: db.OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, binance, _ := newTestExecutor()
			binance.OrderErr = tt.orderErr

			res := e.Execute(context.Background(), []strategy.Decision{buyDecision(common.VenueBinance)}, 50)
			if res.Outcome != tt.want {
				t.Fatalf("outcome = %s, want %s", res.Outcome, tt.want)
			}
			if res.ProfitDelta != 0 {
				t.Errorf("profit delta = %v, want 0", res.ProfitDelta)
			}
		})
	}
}

func TestExecuteArbitragePair(t *testing.T) {
	legs := []strategy.Decision{
		{Strategy: "arbitrage", Venue: common.VenueBinance, Pair: strategy.BinancePair, Side: common.SideBuy, Amount: 100},
		{Strategy: "arbitrage", Venue: common.VenueLuno, Pair: strategy.LunoPair, Side: common.SideSell, Amount: 100},
	}

	t.Run("both legs fill", func(t *testing.T) {
		e, binance, luno := newTestExecutor()
		res := e.Execute(context.Background(), legs, 50)
		if res.Outcome != db.OutcomeProfit {
			t.Fatalf("outcome = %s, want profit (%s)", res.Outcome, res.Detail)
		}
		if len(binance.Orders()) != 1 || len(luno.Orders()) != 1 {
			t.Errorf("orders = %d binance / %d luno, want 1 each", len(binance.Orders()), len(luno.Orders()))
		}
	})

	t.Run("second leg failure is a partial execution", func(t *testing.T) {
		e, binance, luno := newTestExecutor()
		luno.OrderErr = errors.New("luno unreachable")

		res := e.Execute(context.Background(), legs, 50)
		if res.Outcome != db.OutcomeFailed {
			t.Fatalf("outcome = %s, want failed", res.Outcome)
		}
		if len(binance.Orders()) != 1 {
			t.Errorf("first leg orders = %d, want 1", len(binance.Orders()))
		}
	})

	t.Run("first leg rejection fails cleanly", func(t *testing.T) {
		e, binance, luno := newTestExecutor()
		binance.OrderErr = common.ErrOrderRejected

		res := e.Execute(context.Background(), legs, 50)
		if res.Outcome != db.OutcomeFailed {
			t.Fatalf("outcome = %s, want failed", res.Outcome)
		}
		if len(luno.Orders()) != 0 {
			t.Errorf("second leg placed %d orders after first-leg rejection", len(luno.Orders()))
		}
	})
}

func TestExecuteFinishesOrderAfterCancel(t *testing.T) {
	e, binance, _ := newTestExecutor()
	binance.OrderHold = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan Result, 1)
	go func() {
		results <- e.Execute(ctx, []strategy.Decision{buyDecision(common.VenueBinance)}, 50)
	}()

	// Cancel while the placement call is outstanding; the venue answers
	// afterwards and the order must still complete.
	time.Sleep(10 * time.Millisecond)
	cancel()
	close(binance.OrderHold)

	res := <-results
	if res.Outcome != db.OutcomeProfit {
		t.Fatalf("outcome = %s, want profit (%s)", res.Outcome, res.Detail)
	}
	if len(binance.Orders()) != 1 {
		t.Fatalf("placed %d orders, want 1", len(binance.Orders()))
	}
}

func TestExecuteUnknownVenue(t *testing.T) {
	e := New(map[common.Venue]common.Gateway{}, time.Second)
	res := e.Execute(context.Background(), []strategy.Decision{buyDecision(common.VenueBinance)}, 50)
	if res.Outcome != db.OutcomeError {
		t.Fatalf("outcome = %s, want error", res.Outcome)
	}
}

func TestExecuteNoDecisions(t *testing.T) {
	e, _, _ := newTestExecutor()
	res := e.Execute(context.Background(), nil, 50)
	if res.Outcome != db.OutcomeNone {
		t.Fatalf("outcome = %s, want none", res.Outcome)
	}
}
