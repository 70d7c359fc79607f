// Package mock provides a scriptable in-memory gateway for local runs and
// tests.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// Gateway implements common.Gateway against canned data.
type Gateway struct {
	venue common.Venue

	mu        sync.Mutex
	prices    map[string]float64
	histories map[string][]float64
	balances  map[string]float64

	// OrderErr, when set, is returned by PlaceOrder.
	OrderErr error
	// OrderHold, when set, blocks PlaceOrder until it is closed or the
	// call's context ends.
	OrderHold chan struct{}
	orders    []common.OrderRequest
	orderSeq  int
}

func New(venue common.Venue) *Gateway {
	return &Gateway{
		venue:     venue,
		prices:    make(map[string]float64),
		histories: make(map[string][]float64),
		balances:  make(map[string]float64),
	}
}

func (g *Gateway) Venue() common.Venue { return g.venue }

// SetPrice scripts the ticker for a pair.
func (g *Gateway) SetPrice(pair string, price float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prices[pair] = price
}

// SetHistory scripts the close history for a pair, oldest first.
func (g *Gateway) SetHistory(pair string, closes []float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.histories[pair] = append([]float64(nil), closes...)
}

// SetBalance scripts the free balance for an asset.
func (g *Gateway) SetBalance(asset string, bal float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balances[asset] = bal
}

// Orders returns the order requests seen so far.
func (g *Gateway) Orders() []common.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]common.OrderRequest(nil), g.orders...)
}

func (g *Gateway) Price(ctx context.Context, pair string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	price, ok := g.prices[pair]
	if !ok {
		return 0, fmt.Errorf("mock: no price for %s", pair)
	}
	return price, nil
}

func (g *Gateway) PriceHistory(ctx context.Context, pair, interval string, n int) ([]float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	hist, ok := g.histories[pair]
	if !ok {
		return nil, fmt.Errorf("mock: no history for %s", pair)
	}
	if len(hist) > n {
		hist = hist[len(hist)-n:]
	}
	return append([]float64(nil), hist...), nil
}

func (g *Gateway) Balance(ctx context.Context, asset string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balances[asset], nil
}

func (g *Gateway) PlaceOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error) {
	g.mu.Lock()
	hold := g.OrderHold
	g.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return common.OrderResult{}, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.OrderErr != nil {
		return common.OrderResult{}, g.OrderErr
	}
	g.orderSeq++
	g.orders = append(g.orders, req)
	return common.OrderResult{
		OrderID: fmt.Sprintf("mock-%s-%d", g.venue, g.orderSeq),
		Pair:    req.Pair,
		Side:    req.Side,
	}, nil
}
