// Package binance implements the Binance spot backend of the exchange
// gateway.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/exchanges/common"
)

// Config holds Binance credentials and endpoint selection.
type Config struct {
	APIKey     string
	APISecret  string
	BaseURL    string // default https://api.binance.com
	RecvWindow int64  // ms
}

// Client is a Binance spot client implementing common.Gateway.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.binance.com"
	}
	if cfg.RecvWindow == 0 {
		cfg.RecvWindow = 5000
	}
	return &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// Spot allows 1200 weight/min; stay well under it.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

func (c *Client) Venue() common.Venue { return common.VenueBinance }

// Price returns the last traded price for pair (e.g. BTCUSDT).
func (c *Client) Price(ctx context.Context, pair string) (float64, error) {
	body, err := c.doPublic(ctx, "/api/v3/ticker/price", url.Values{"symbol": {pair}})
	if err != nil {
		return 0, err
	}

	var resp struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode ticker: %w", err)
	}
	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price: %w", err)
	}
	return price, nil
}

// PriceHistory returns the last n kline closes, oldest first.
func (c *Client) PriceHistory(ctx context.Context, pair, interval string, n int) ([]float64, error) {
	params := url.Values{}
	params.Set("symbol", pair)
	params.Set("interval", interval)
	if n > 0 {
		params.Set("limit", strconv.Itoa(n))
	}

	body, err := c.doPublic(ctx, "/api/v3/klines", params)
	if err != nil {
		return nil, err
	}

	var raw [][]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	closes := make([]float64, 0, len(raw))
	for _, item := range raw {
		// Binance returns 12 fields per kline; close is index 4.
		if len(item) < 5 {
			continue
		}
		closes = append(closes, toFloat(item[4]))
	}
	return closes, nil
}

// Balance returns the free balance for an asset (e.g. USDT).
func (c *Client) Balance(ctx context.Context, asset string) (float64, error) {
	body, err := c.doSigned(ctx, http.MethodGet, "/api/v3/account", url.Values{})
	if err != nil {
		return 0, err
	}

	var resp struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode account: %w", err)
	}

	for _, b := range resp.Balances {
		if b.Asset == asset {
			free, err := strconv.ParseFloat(b.Free, 64)
			if err != nil {
				return 0, fmt.Errorf("parse balance: %w", err)
			}
			return free, nil
		}
	}
	return 0, nil
}

// PlaceOrder submits a market order spending req.Amount of quote currency.
func (c *Client) PlaceOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error) {
	params := url.Values{}
	params.Set("symbol", req.Pair)
	params.Set("side", string(req.Side))
	params.Set("type", "MARKET")
	params.Set("quoteOrderQty", formatFloat(req.Amount))
	if req.ClientID != "" {
		params.Set("newClientOrderId", req.ClientID)
	}

	body, err := c.doSigned(ctx, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return common.OrderResult{}, err
	}

	var resp struct {
		OrderID int64  `json:"orderId"`
		Symbol  string `json:"symbol"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return common.OrderResult{}, fmt.Errorf("decode order response: %w", err)
	}

	return common.OrderResult{
		OrderID: strconv.FormatInt(resp.OrderID, 10),
		Pair:    resp.Symbol,
		Side:    req.Side,
	}, nil
}

func (c *Client) doPublic(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
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
		return nil, fmt.Errorf("binance %s status %d: %s", path, res.StatusCode, string(body))
	}
	return body, nil
}

func (c *Client) doSigned(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return nil, errors.New("binance: API key/secret required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", strconv.FormatInt(c.cfg.RecvWindow, 10))
	query := params.Encode()
	query += "&signature=" + sign(query, c.cfg.APISecret)

	u := c.baseURL + path + "?" + query
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)

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
		// 400 means the venue understood and refused (filters, insufficient
		// balance); auth and server trouble stay plain errors.
		if res.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: binance status %d: %s", common.ErrOrderRejected, res.StatusCode, string(body))
		}
		return nil, fmt.Errorf("binance %s status %d: %s", path, res.StatusCode, string(body))
	}
	return body, nil
}

func sign(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case json.Number:
		f, _ := t.Float64()
		return f
	case float64:
		return t
	default:
		return 0
	}
}
