package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// userColumns is the scan order shared by the user queries below.
const userColumns = `
	id, email, password_hash, telegram_chat_id, exchange, active, autobot_enabled,
	risk_tolerance, profit_target, dip_threshold, rsi_oversold, rsi_overbought,
	ma_short, ma_long, daily_profit, last_trade_result,
	binance_api_key, binance_api_secret, luno_api_key_id, luno_api_secret,
	created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var active, autobot int
	var exchange string
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.TelegramChatID, &exchange, &active, &autobot,
		&u.RiskTolerance, &u.ProfitTarget, &u.DipThreshold, &u.RSIOversold, &u.RSIOverbought,
		&u.MAShort, &u.MALong, &u.DailyProfit, &u.LastTradeResult,
		&u.BinanceAPIKey, &u.BinanceAPISecret, &u.LunoAPIKeyID, &u.LunoAPISecret,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Exchange = Exchange(exchange)
	u.Active = active == 1
	u.AutobotEnabled = autobot == 1
	return &u, nil
}

// GetUser returns a user by id, or (nil, sql.ErrNoRows) when absent.
func (d *Database) GetUser(ctx context.Context, id string) (*User, error) {
	row := d.DB.QueryRowContext(ctx, `SELECT`+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail returns a user by email.
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := d.DB.QueryRowContext(ctx, `SELECT`+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// CreateUser inserts a new user row.
func (d *Database) CreateUser(ctx context.Context, u *User) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO users (
			id, email, password_hash, telegram_chat_id, exchange, active, autobot_enabled,
			risk_tolerance, profit_target, dip_threshold, rsi_oversold, rsi_overbought,
			ma_short, ma_long,
			binance_api_key, binance_api_secret, luno_api_key_id, luno_api_secret
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.TelegramChatID, string(u.Exchange),
		boolToInt(u.Active), boolToInt(u.AutobotEnabled),
		u.RiskTolerance, u.ProfitTarget, u.DipThreshold, u.RSIOversold, u.RSIOverbought,
		u.MAShort, u.MALong,
		u.BinanceAPIKey, u.BinanceAPISecret, u.LunoAPIKeyID, u.LunoAPISecret,
	)
	return err
}

// ListActiveAutobotUsers returns the registry snapshot the scheduler
// reconciles against: users with active && autobot_enabled.
func (d *Database) ListActiveAutobotUsers(ctx context.Context) ([]User, error) {
	rows, err := d.DB.QueryContext(ctx,
		`SELECT`+userColumns+` FROM users WHERE active = 1 AND autobot_enabled = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// updatableUserColumns whitelists the columns UpdateUserFields may touch.
var updatableUserColumns = map[string]bool{
	"telegram_chat_id":   true,
	"exchange":           true,
	"active":             true,
	"autobot_enabled":    true,
	"risk_tolerance":     true,
	"profit_target":      true,
	"dip_threshold":      true,
	"rsi_oversold":       true,
	"rsi_overbought":     true,
	"ma_short":           true,
	"ma_long":            true,
	"binance_api_key":    true,
	"binance_api_secret": true,
	"luno_api_key_id":    true,
	"luno_api_secret":    true,
}

// UpdateUserFields applies a partial update; unrelated columns are untouched.
func (d *Database) UpdateUserFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableUserColumns[col] {
			return fmt.Errorf("column %q is not updatable", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var sb strings.Builder
	args := make([]any, 0, len(cols)+1)
	sb.WriteString("UPDATE users SET ")
	for i, col := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col)
		sb.WriteString(" = ?")
		v := fields[col]
		if b, ok := v.(bool); ok {
			v = boolToInt(b)
		}
		args = append(args, v)
	}
	sb.WriteString(", updated_at = CURRENT_TIMESTAMP WHERE id = ?")
	args = append(args, id)

	res, err := d.DB.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecordOutcome applies a terminal cycle outcome to the user's trading state.
// The read-modify-write of daily_profit runs inside one transaction so the
// pair survives the store's own latency.
func (d *Database) RecordOutcome(ctx context.Context, userID string, outcome Outcome, profitDelta float64) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current float64
	if err := tx.QueryRowContext(ctx,
		`SELECT daily_profit FROM users WHERE id = ?`, userID).Scan(&current); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET daily_profit = ?, last_trade_result = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		current+profitDelta, outcome, userID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ResetDailyProfits zeroes daily_profit for all users (UTC midnight task).
func (d *Database) ResetDailyProfits(ctx context.Context) error {
	_, err := d.DB.ExecContext(ctx, `UPDATE users SET daily_profit = 0`)
	return err
}

// RecordTrade appends a trade row.
func (d *Database) RecordTrade(ctx context.Context, t Trade) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO trades (id, user_id, strategy, venue, pair, side, amount, outcome, profit_delta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Strategy, t.Venue, t.Pair, t.Side, t.Amount, t.Outcome, t.ProfitDelta)
	return err
}

// ListTradesByUser returns the most recent trades for a user.
func (d *Database) ListTradesByUser(ctx context.Context, userID string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, user_id, strategy, venue, pair, side, amount, outcome, profit_delta, created_at
		FROM trades WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.UserID, &t.Strategy, &t.Venue, &t.Pair, &t.Side,
			&t.Amount, &t.Outcome, &t.ProfitDelta, &t.CreatedAt); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// AppendEvent writes a best-effort log row; callers ignore the error.
func (d *Database) AppendEvent(ctx context.Context, e BotEvent) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO bot_events (id, user_id, event_type, message, status, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.EventType, e.Message, e.Status, e.Error)
	return err
}

// Leaderboard returns the top users by daily_profit.
func (d *Database) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, email, daily_profit, last_trade_result
		FROM users WHERE active = 1 ORDER BY daily_profit DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Email, &e.DailyProfit, &e.LastResult); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
