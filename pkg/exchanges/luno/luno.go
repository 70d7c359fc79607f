// Package luno implements the Luno backend of the exchange gateway.
// Luno quotes crypto pairs in ZAR (e.g. XBTZAR) and authenticates with
// HTTP basic auth over an API key id/secret pair.
package luno

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// Config holds Luno credentials and endpoint selection.
type Config struct {
	KeyID   string
	Secret  string
	BaseURL string // default https://api.luno.com
}

// Client is a Luno client implementing common.Gateway.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.luno.com"
	}
	return &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// Luno allows 300 calls per minute per key.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

func (c *Client) Venue() common.Venue { return common.VenueLuno }

// Price returns the last trade price for pair (e.g. XBTZAR).
func (c *Client) Price(ctx context.Context, pair string) (float64, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/1/ticker", url.Values{"pair": {pair}}, false)
	if err != nil {
		return 0, err
	}

	var resp struct {
		LastTrade string `json:"last_trade"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode ticker: %w", err)
	}
	price, err := strconv.ParseFloat(resp.LastTrade, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price: %w", err)
	}
	return price, nil
}

// PriceHistory returns the last n candle closes, oldest first. Interval is
// expressed Binance-style ("1m", "15m", "1h") and mapped to Luno's
// duration-in-seconds parameter.
func (c *Client) PriceHistory(ctx context.Context, pair, interval string, n int) ([]float64, error) {
	dur, err := intervalSeconds(interval)
	if err != nil {
		return nil, err
	}
	since := time.Now().Add(-time.Duration(n+1) * time.Duration(dur) * time.Second).UnixMilli()

	params := url.Values{}
	params.Set("pair", pair)
	params.Set("duration", strconv.FormatInt(dur, 10))
	params.Set("since", strconv.FormatInt(since, 10))

	// Candles require an authenticated call on Luno.
	body, err := c.do(ctx, http.MethodGet, "/api/exchange/1/candles", params, true)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Candles []struct {
			Close string `json:"close"`
		} `json:"candles"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}

	closes := make([]float64, 0, len(resp.Candles))
	for _, cd := range resp.Candles {
		f, err := strconv.ParseFloat(cd.Close, 64)
		if err != nil {
			continue
		}
		closes = append(closes, f)
	}
	if len(closes) > n {
		closes = closes[len(closes)-n:]
	}
	return closes, nil
}

// Balance returns the available balance for an asset (e.g. ZAR).
func (c *Client) Balance(ctx context.Context, asset string) (float64, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/1/balance", url.Values{"assets": {asset}}, true)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Balance []struct {
			Asset    string `json:"asset"`
			Balance  string `json:"balance"`
			Reserved string `json:"reserved"`
		} `json:"balance"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}

	for _, b := range resp.Balance {
		if b.Asset != asset {
			continue
		}
		total, err := strconv.ParseFloat(b.Balance, 64)
		if err != nil {
			return 0, fmt.Errorf("parse balance: %w", err)
		}
		reserved, _ := strconv.ParseFloat(b.Reserved, 64)
		return total - reserved, nil
	}
	return 0, nil
}

// PlaceOrder submits a market order spending req.Amount of counter currency
// on buys, or selling the equivalent base volume on sells.
func (c *Client) PlaceOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error) {
	params := url.Values{}
	params.Set("pair", req.Pair)
	switch req.Side {
	case common.SideBuy:
		params.Set("type", "BUY")
		params.Set("counter_volume", formatFloat(req.Amount))
	case common.SideSell:
		params.Set("type", "SELL")
		params.Set("counter_volume", formatFloat(req.Amount))
	default:
		return common.OrderResult{}, fmt.Errorf("unsupported side %q", req.Side)
	}

	body, err := c.do(ctx, http.MethodPost, "/api/1/marketorder", params, true)
	if err != nil {
		return common.OrderResult{}, err
	}

	var resp struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return common.OrderResult{}, fmt.Errorf("decode order response: %w", err)
	}

	return common.OrderResult{OrderID: resp.OrderID, Pair: req.Pair, Side: req.Side}, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, auth bool) ([]byte, error) {
	if auth && (c.cfg.KeyID == "" || c.cfg.Secret == "") {
		return nil, errors.New("luno: API key id/secret required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var u string
	var reqBody io.Reader
	if method == http.MethodPost {
		u = c.baseURL + path
		reqBody = strings.NewReader(params.Encode())
	} else {
		u = c.baseURL + path + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, err
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if auth {
		req.SetBasicAuth(c.cfg.KeyID, c.cfg.Secret)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		if res.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: luno status %d: %s", common.ErrOrderRejected, res.StatusCode, string(body))
		}
		return nil, fmt.Errorf("luno %s status %d: %s", path, res.StatusCode, string(body))
	}
	return body, nil
}

func intervalSeconds(interval string) (int64, error) {
	switch interval {
	case "1m":
		return 60, nil
	case "5m":
		return 300, nil
	case "15m":
		return 900, nil
	case "30m":
		return 1800, nil
	case "1h":
		return 3600, nil
	case "4h":
		return 14400, nil
	case "1d":
		return 86400, nil
	default:
		return 0, fmt.Errorf("unsupported interval %q", interval)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
