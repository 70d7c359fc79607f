package runner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/executor"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/recorder"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/risk"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/strategy"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// GatewayFactory builds the venue gateways for one user, typically from the
// user's decrypted API credentials. Called once per cycle so credential
// changes take effect without a restart.
type GatewayFactory func(user *db.User) (map[common.Venue]common.Gateway, error)

// Config carries the per-cycle timing and arbitrage parameters.
type Config struct {
	Sleep              time.Duration // pause between cycles
	InterStrategyDelay time.Duration // spacing inside a venue subset
	AdapterTimeout     time.Duration // per adapter call
	FiatRate           float64       // USDT -> ZAR for the arbitrage check
	MinArbSpreadPct    float64
	Defaults           strategy.Defaults

	// PublicGateways serve the arbitrage price check. It needs no
	// credentials and runs for every user, whatever their venue.
	PublicGateways map[common.Venue]common.Gateway
}

// Runner owns one user's trading loop. It is the only writer of that user's
// trading state while alive; the scheduler guarantees at most one per user.
type Runner struct {
	userID  string
	store   *db.Database
	rec     *recorder.Recorder
	factory GatewayFactory
	cfg     Config

	arb *strategy.Arbitrage
}

func New(userID string, store *db.Database, rec *recorder.Recorder, factory GatewayFactory, cfg Config) *Runner {
	if cfg.Sleep <= 0 {
		cfg.Sleep = 20 * time.Second
	}
	if cfg.InterStrategyDelay <= 0 {
		cfg.InterStrategyDelay = 5 * time.Second
	}
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 10 * time.Second
	}
	if cfg.FiatRate <= 0 {
		cfg.FiatRate = 18.5
	}
	return &Runner{
		userID:  userID,
		store:   store,
		rec:     rec,
		factory: factory,
		cfg:     cfg,
		arb:     strategy.NewArbitrage(cfg.MinArbSpreadPct),
	}
}

// Run loops until ctx is canceled. Cancellation is observed only at the
// sleep and inter-strategy boundaries, never while an adapter call is
// outstanding.
func (r *Runner) Run(ctx context.Context) {
	log.Printf("runner %s: started", r.userID)
	defer log.Printf("runner %s: stopped", r.userID)

	for {
		r.cycle(ctx)
		if !r.pause(ctx, r.cfg.Sleep) {
			return
		}
	}
}

// cycle runs one full evaluation: flags, arbitrage, then the venue subsets.
// Every failure inside is contained here; nothing propagates to the caller.
func (r *Runner) cycle(ctx context.Context) {
	user, err := r.store.GetUser(ctx, r.userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("runner %s: user vanished from registry", r.userID)
			return
		}
		log.Printf("runner %s: read profile: %v", r.userID, err)
		return
	}
	if !user.Active || !user.AutobotEnabled {
		// Flags flipped since the last reconciliation. Keep polling;
		// the scheduler cancels this runner on its next pass.
		return
	}

	gateways, err := r.factory(user)
	if err != nil {
		r.record(ctx, recorder.Entry{
			UserID:  r.userID,
			Outcome: db.OutcomeError,
			Detail:  fmt.Sprintf("gateway setup: %v", err),
		})
		return
	}

	// Cross-venue arbitrage runs before any single-venue strategy.
	r.runArbitrage(ctx, user, gateways)

	switch user.Exchange {
	case db.ExchangeBoth:
		done := make(chan struct{}, 2)
		for _, venue := range []common.Venue{common.VenueBinance, common.VenueLuno} {
			go func(v common.Venue) {
				defer func() { done <- struct{}{} }()
				r.runSubset(ctx, user, v, gateways[v])
			}(venue)
		}
		<-done
		<-done
	case db.ExchangeBinance:
		r.runSubset(ctx, user, common.VenueBinance, gateways[common.VenueBinance])
	case db.ExchangeLuno:
		r.runSubset(ctx, user, common.VenueLuno, gateways[common.VenueLuno])
	default:
		r.record(ctx, recorder.Entry{
			UserID:  r.userID,
			Outcome: db.OutcomeError,
			Detail:  fmt.Sprintf("unsupported exchange %q", user.Exchange),
		})
	}
}

// runSubset evaluates one venue's strategy set sequentially. The risk gate
// runs first so a denied cycle never fetches market data or computes a
// signal.
func (r *Runner) runSubset(ctx context.Context, user *db.User, venue common.Venue, gw common.Gateway) {
	if gw == nil {
		r.record(ctx, recorder.Entry{
			UserID:  r.userID,
			Venue:   string(venue),
			Outcome: db.OutcomeError,
			Detail:  fmt.Sprintf("no gateway for venue %s", venue),
		})
		return
	}

	strategies := strategy.ForExchange(db.Exchange(venue), r.cfg.Defaults)

	balance, err := r.balance(ctx, gw, venue)
	if err != nil {
		r.record(ctx, recorder.Entry{
			UserID:  r.userID,
			Venue:   string(venue),
			Outcome: db.OutcomeError,
			Detail:  fmt.Sprintf("balance: %v", err),
		})
		return
	}

	amount, denial := risk.Check(balance, user.RiskTolerance)
	if denial != risk.DenyNone {
		for _, s := range strategies {
			r.record(ctx, recorder.Entry{
				UserID:   r.userID,
				Strategy: s.Name(),
				Venue:    string(venue),
				Outcome:  denial.Outcome(),
			})
		}
		return
	}

	snap, err := r.snapshot(ctx, gw, venue, user)
	if err != nil {
		r.record(ctx, recorder.Entry{
			UserID:  r.userID,
			Venue:   string(venue),
			Outcome: db.OutcomeError,
			Detail:  fmt.Sprintf("market data: %v", err),
		})
		return
	}

	for i, s := range strategies {
		if i > 0 && !r.pause(ctx, r.cfg.InterStrategyDelay) {
			return
		}
		r.evaluateAndExecute(ctx, user, s, snap, map[common.Venue]common.Gateway{venue: gw}, amount)
	}
}

// runArbitrage prices both venues from the public endpoints, gates both
// legs on their own venue balances and executes the value-matched pair
// through the user's gateways. A missing gateway for a leg is a
// configuration error for this cycle only.
func (r *Runner) runArbitrage(ctx context.Context, user *db.User, gws map[common.Venue]common.Gateway) {
	pub := r.cfg.PublicGateways
	if pub[common.VenueBinance] == nil || pub[common.VenueLuno] == nil {
		return
	}

	binancePrice, err1 := r.price(ctx, pub[common.VenueBinance], strategy.BinancePair)
	lunoPrice, err2 := r.price(ctx, pub[common.VenueLuno], strategy.LunoPair)
	if err := errors.Join(err1, err2); err != nil {
		r.record(ctx, recorder.Entry{
			UserID:   r.userID,
			Strategy: r.arb.Name(),
			Outcome:  db.OutcomeError,
			Detail:   fmt.Sprintf("price check: %v", err),
		})
		return
	}

	snap := strategy.Snapshot{
		BinancePrice: binancePrice,
		LunoPrice:    lunoPrice,
		FiatRate:     r.cfg.FiatRate,
	}

	decisions, err := r.evaluate(r.arb, snap, user)
	if err != nil {
		r.record(ctx, recorder.Entry{
			UserID:   r.userID,
			Strategy: r.arb.Name(),
			Outcome:  db.OutcomeError,
			Detail:   err.Error(),
		})
		return
	}
	if len(decisions) == 0 {
		r.record(ctx, recorder.Entry{
			UserID:   r.userID,
			Strategy: r.arb.Name(),
			Outcome:  db.OutcomeNone,
		})
		return
	}

	buyVenue := decisions[0].Venue
	sellVenue := decisions[1].Venue
	if gws[buyVenue] == nil || gws[sellVenue] == nil {
		r.record(ctx, recorder.Entry{
			UserID:   r.userID,
			Strategy: r.arb.Name(),
			Outcome:  db.OutcomeError,
			Detail:   "arbitrage needs credentials for both venues",
		})
		return
	}

	buyBal, err1 := r.balance(ctx, gws[buyVenue], buyVenue)
	sellBal, err2 := r.balance(ctx, gws[sellVenue], sellVenue)
	if err := errors.Join(err1, err2); err != nil {
		r.record(ctx, recorder.Entry{
			UserID:   r.userID,
			Strategy: r.arb.Name(),
			Outcome:  db.OutcomeError,
			Detail:   fmt.Sprintf("balance: %v", err),
		})
		return
	}

	// Both legs pass the gate; a starved account on either venue denies
	// the pair.
	buyAmount, denial := risk.Check(buyBal, user.RiskTolerance)
	if denial == risk.DenyNone {
		var sellAmount float64
		sellAmount, denial = risk.Check(sellBal, user.RiskTolerance)
		if denial == risk.DenyNone {
			// The venues quote in different currencies. Match the legs
			// on traded value: the smaller gated amount in USDT terms,
			// re-expressed in each venue's own quote currency.
			value := min(r.usdtValue(buyAmount, buyVenue), r.usdtValue(sellAmount, sellVenue))
			decisions[0].Amount = r.quoteAmount(value, buyVenue)
			decisions[1].Amount = r.quoteAmount(value, sellVenue)
		}
	}
	if denial != risk.DenyNone {
		r.record(ctx, recorder.Entry{
			UserID:   r.userID,
			Strategy: r.arb.Name(),
			Outcome:  denial.Outcome(),
		})
		return
	}

	exec := executor.New(gws, r.cfg.AdapterTimeout)
	res := exec.Execute(ctx, decisions, user.ProfitTarget)
	r.record(ctx, recorder.Entry{
		UserID:      r.userID,
		Strategy:    r.arb.Name(),
		Venue:       string(buyVenue),
		Pair:        decisions[0].Pair,
		Side:        string(decisions[0].Side),
		Amount:      decisions[0].Amount,
		Outcome:     res.Outcome,
		ProfitDelta: res.ProfitDelta,
		Detail:      res.Detail,
	})
}

// usdtValue expresses a venue-quoted amount in USDT terms.
func (r *Runner) usdtValue(amount float64, venue common.Venue) float64 {
	if venue == common.VenueLuno {
		return amount / r.cfg.FiatRate
	}
	return amount
}

// quoteAmount expresses a USDT value in the venue's quote currency.
func (r *Runner) quoteAmount(value float64, venue common.Venue) float64 {
	if venue == common.VenueLuno {
		return value * r.cfg.FiatRate
	}
	return value
}

func (r *Runner) evaluateAndExecute(ctx context.Context, user *db.User, s strategy.Strategy, snap strategy.Snapshot, gws map[common.Venue]common.Gateway, amount float64) {
	decisions, err := r.evaluate(s, snap, user)
	if err != nil {
		r.record(ctx, recorder.Entry{
			UserID:   r.userID,
			Strategy: s.Name(),
			Venue:    string(snap.Venue),
			Outcome:  db.OutcomeError,
			Detail:   err.Error(),
		})
		return
	}
	if len(decisions) == 0 {
		r.record(ctx, recorder.Entry{
			UserID:   r.userID,
			Strategy: s.Name(),
			Venue:    string(snap.Venue),
			Outcome:  db.OutcomeNone,
		})
		return
	}

	for i := range decisions {
		decisions[i].Amount = amount
	}

	exec := executor.New(gws, r.cfg.AdapterTimeout)
	res := exec.Execute(ctx, decisions, user.ProfitTarget)
	r.record(ctx, recorder.Entry{
		UserID:      r.userID,
		Strategy:    s.Name(),
		Venue:       string(decisions[0].Venue),
		Pair:        decisions[0].Pair,
		Side:        string(decisions[0].Side),
		Amount:      amount,
		Outcome:     res.Outcome,
		ProfitDelta: res.ProfitDelta,
		Detail:      res.Detail,
	})
}

// evaluate runs one strategy with panic containment; a panicking strategy
// costs only its own cycle.
func (r *Runner) evaluate(s strategy.Strategy, snap strategy.Snapshot, user *db.User) (decisions []strategy.Decision, err error) {
	defer func() {
		if p := recover(); p != nil {
			decisions = nil
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), p)
		}
	}()
	return s.Evaluate(snap, user)
}

func (r *Runner) snapshot(ctx context.Context, gw common.Gateway, venue common.Venue, user *db.User) (strategy.Snapshot, error) {
	pair := strategy.PairFor(venue)

	depth := 60
	if user.MALong >= depth {
		depth = user.MALong + 1
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.AdapterTimeout)
	defer cancel()
	history, err := gw.PriceHistory(callCtx, pair, "1m", depth)
	if err != nil {
		return strategy.Snapshot{}, fmt.Errorf("history %s: %w", pair, err)
	}

	price, err := r.price(ctx, gw, pair)
	if err != nil {
		return strategy.Snapshot{}, err
	}

	return strategy.Snapshot{
		Venue:   venue,
		Pair:    pair,
		Price:   price,
		History: history,
	}, nil
}

func (r *Runner) price(ctx context.Context, gw common.Gateway, pair string) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.AdapterTimeout)
	defer cancel()
	price, err := gw.Price(callCtx, pair)
	if err != nil {
		return 0, fmt.Errorf("price %s: %w", pair, err)
	}
	return price, nil
}

func (r *Runner) balance(ctx context.Context, gw common.Gateway, venue common.Venue) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.AdapterTimeout)
	defer cancel()
	return gw.Balance(callCtx, quoteAsset(venue))
}

func (r *Runner) record(ctx context.Context, e recorder.Entry) {
	if err := r.rec.Record(ctx, e); err != nil {
		log.Printf("runner %s: record %s: %v", r.userID, e.Outcome, err)
	}
}

// pause sleeps for d and reports whether the runner should continue. This is
// the only place cancellation is observed.
func (r *Runner) pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// quoteAsset is the balance currency a venue's trades are sized in.
func quoteAsset(venue common.Venue) string {
	if venue == common.VenueLuno {
		return "ZAR"
	}
	return "USDT"
}
