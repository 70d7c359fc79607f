package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/events"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/scheduler"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/crypto"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
)

const testJWTSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *db.Database) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.NewMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	enc, err := crypto.NewEncryptorFromBase64(key)
	if err != nil {
		t.Fatalf("encryptor: %v", err)
	}

	bus := events.NewBus()
	sched := scheduler.New(database, bus, func(ctx context.Context, userID string) {
		<-ctx.Done()
	}, nil, time.Second)

	s := NewServer(database, bus, sched, enc, testJWTSecret)
	ts := httptest.NewServer(s.Router)
	t.Cleanup(ts.Close)
	return ts, database
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func registerAndLogin(t *testing.T, base string) string {
	t.Helper()

	resp, _ := doJSON(t, http.MethodPost, base+"/api/auth/register", "", map[string]string{
		"email":    "trader@example.com",
		"password": "hunter22",
		"exchange": "binance",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, base+"/api/auth/login", "", map[string]string{
		"email":    "trader@example.com",
		"password": "hunter22",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}
	return token
}

func TestRegisterLoginProfile(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d", resp.StatusCode)
	}
	if body["email"] != "trader@example.com" {
		t.Errorf("email = %v", body["email"])
	}
	if body["exchange"] != "binance" {
		t.Errorf("exchange = %v", body["exchange"])
	}
	if body["risk_tolerance"].(float64) != 0.02 {
		t.Errorf("risk_tolerance = %v", body["risk_tolerance"])
	}
}

func TestDuplicateRegistration(t *testing.T) {
	ts, _ := newTestServer(t)
	registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"email":    "trader@example.com",
		"password": "other",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts, _ := newTestServer(t)
	registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{
		"email":    "trader@example.com",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/profile", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestUpdateSettingsPartial(t *testing.T) {
	ts, database := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPut, ts.URL+"/api/settings", token, map[string]any{
		"risk_tolerance":  0.05,
		"exchange":        "both",
		"binance_api_key": "live-key",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("settings status = %d", resp.StatusCode)
	}

	user, err := database.GetUserByEmail(context.Background(), "trader@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.RiskTolerance != 0.05 {
		t.Errorf("risk_tolerance = %v, want 0.05", user.RiskTolerance)
	}
	if user.Exchange != db.ExchangeBoth {
		t.Errorf("exchange = %s, want both", user.Exchange)
	}
	// Untouched field keeps its default.
	if user.ProfitTarget != 50 {
		t.Errorf("profit_target = %v, want 50", user.ProfitTarget)
	}
	// Credentials are stored encrypted, never as given.
	if user.BinanceAPIKey == "live-key" || !crypto.IsEncrypted(user.BinanceAPIKey) {
		t.Errorf("binance_api_key stored in the clear: %q", user.BinanceAPIKey)
	}
}

func TestUpdateSettingsRejectsBadValues(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "bad exchange", body: map[string]any{"exchange": "kraken"}},
		{name: "risk above one", body: map[string]any{"risk_tolerance": 1.5}},
		{name: "risk zero", body: map[string]any{"risk_tolerance": 0}},
		{name: "empty update", body: map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPut, ts.URL+"/api/settings", token, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestAutobotStartStop(t *testing.T) {
	ts, database := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/autobot/start", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	user, _ := database.GetUserByEmail(context.Background(), "trader@example.com")
	if !user.AutobotEnabled {
		t.Fatal("autobot_enabled not set")
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/autobot/stop", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d", resp.StatusCode)
	}
	user, _ = database.GetUserByEmail(context.Background(), "trader@example.com")
	if user.AutobotEnabled {
		t.Fatal("autobot_enabled not cleared")
	}
}

func TestStatusAndLeaderboard(t *testing.T) {
	ts, database := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/status", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status status = %d", resp.StatusCode)
	}
	if body["running"].(float64) != 0 {
		t.Errorf("running = %v, want 0", body["running"])
	}

	user, err := database.GetUserByEmail(context.Background(), "trader@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if err := database.RecordOutcome(context.Background(), user.ID, db.OutcomeProfit, 75); err != nil {
		t.Fatalf("seed profit: %v", err)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/leaderboard", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard status = %d", resp.StatusCode)
	}
	entries, ok := body["leaderboard"].([]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("leaderboard = %v", body["leaderboard"])
	}
	first := entries[0].(map[string]any)
	if first["daily_profit"].(float64) != 75 {
		t.Errorf("daily_profit = %v, want 75", first["daily_profit"])
	}
}
