package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/events"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
)

func newTestRecorder(t *testing.T) (*Recorder, *db.Database, *events.Bus) {
	t.Helper()
	store, err := db.NewMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(store); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	user := &db.User{
		ID:       "u1",
		Email:    "u1@example.com",
		Exchange: db.ExchangeBinance,
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	bus := events.NewBus()
	return New(store, bus), store, bus
}

func TestRecordProfitAccumulates(t *testing.T) {
	r, store, _ := newTestRecorder(t)
	ctx := context.Background()

	// Seed an existing running total.
	if err := store.RecordOutcome(ctx, "u1", db.OutcomeNone, 10); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := r.Record(ctx, Entry{
		UserID:      "u1",
		Strategy:    "momentum",
		Venue:       "binance",
		Pair:        "BTCUSDT",
		Side:        "BUY",
		Amount:      100,
		Outcome:     db.OutcomeProfit,
		ProfitDelta: 50,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	u, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.DailyProfit != 60 {
		t.Errorf("daily_profit = %v, want 60", u.DailyProfit)
	}
	if u.LastTradeResult != "profit" {
		t.Errorf("last_trade_result = %q, want profit", u.LastTradeResult)
	}

	trades, err := store.ListTradesByUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list trades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("trade rows = %d, want 1", len(trades))
	}
	if trades[0].Outcome != "profit" || trades[0].ProfitDelta != 50 {
		t.Errorf("trade row = %+v", trades[0])
	}
}

func TestRecordErrorLeavesProfitUnchanged(t *testing.T) {
	r, store, _ := newTestRecorder(t)
	ctx := context.Background()

	if err := store.RecordOutcome(ctx, "u1", db.OutcomeNone, 10); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := r.Record(ctx, Entry{
		UserID:  "u1",
		Outcome: db.OutcomeError,
		Detail:  "exchange unreachable",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	u, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.DailyProfit != 10 {
		t.Errorf("daily_profit = %v, want 10", u.DailyProfit)
	}
	if u.LastTradeResult != "error" {
		t.Errorf("last_trade_result = %q, want error", u.LastTradeResult)
	}

	// No pair, no order attempted, no trade row.
	trades, err := store.ListTradesByUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list trades: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("trade rows = %d, want 0", len(trades))
	}
}

func TestResetWaitsForUserSections(t *testing.T) {
	r, store, _ := newTestRecorder(t)
	ctx := context.Background()

	err := r.Record(ctx, Entry{UserID: "u1", Outcome: db.OutcomeProfit, ProfitDelta: 50})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Hold u1's section as an in-flight Record would; the reset must not
	// slip in between its read and write.
	l := r.userLock("u1")
	l.Lock()

	done := make(chan error, 1)
	go func() { done <- r.ResetDailyProfits(ctx) }()

	select {
	case <-done:
		t.Fatal("reset completed while a user section was held")
	case <-time.After(30 * time.Millisecond):
	}

	l.Unlock()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ResetDailyProfits: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reset did not complete after the section was released")
	}

	u, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.DailyProfit != 0 {
		t.Errorf("daily_profit = %v after reset, want 0", u.DailyProfit)
	}
}

func TestRecordPublishesOutcome(t *testing.T) {
	r, _, bus := newTestRecorder(t)
	ch, unsub := bus.Subscribe(events.EventTradeOutcome, 1)
	defer unsub()

	err := r.Record(context.Background(), Entry{
		UserID:      "u1",
		Strategy:    "range_rsi",
		Venue:       "luno",
		Pair:        "XBTZAR",
		Side:        "SELL",
		Outcome:     db.OutcomeFailed,
		ProfitDelta: 0,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	select {
	case msg := <-ch:
		payload, ok := msg.(events.OutcomePayload)
		if !ok {
			t.Fatalf("payload type %T", msg)
		}
		if payload.UserID != "u1" || payload.Outcome != "failed" || payload.Strategy != "range_rsi" {
			t.Errorf("payload = %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no outcome event published")
	}
}
