package db

const schema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    telegram_chat_id TEXT DEFAULT '',
    exchange TEXT NOT NULL DEFAULT 'binance',
    active INTEGER NOT NULL DEFAULT 1,
    autobot_enabled INTEGER NOT NULL DEFAULT 0,
    risk_tolerance REAL NOT NULL DEFAULT 0.02,
    profit_target REAL NOT NULL DEFAULT 50,
    dip_threshold REAL NOT NULL DEFAULT -3,
    rsi_oversold REAL NOT NULL DEFAULT 30,
    rsi_overbought REAL NOT NULL DEFAULT 70,
    ma_short INTEGER NOT NULL DEFAULT 20,
    ma_long INTEGER NOT NULL DEFAULT 50,
    daily_profit REAL NOT NULL DEFAULT 0,
    last_trade_result TEXT NOT NULL DEFAULT '',
    binance_api_key TEXT DEFAULT '',
    binance_api_secret TEXT DEFAULT '',
    luno_api_key_id TEXT DEFAULT '',
    luno_api_secret TEXT DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trades (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    strategy TEXT NOT NULL,
    venue TEXT NOT NULL,
    pair TEXT NOT NULL,
    side TEXT NOT NULL,
    amount REAL NOT NULL,
    outcome TEXT NOT NULL,
    profit_delta REAL NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_trades_user ON trades(user_id, created_at);

CREATE TABLE IF NOT EXISTS bot_events (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL DEFAULT '',
    event_type TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_bot_events_user ON bot_events(user_id, created_at);
`

// ApplyMigrations creates the schema if missing.
func ApplyMigrations(d *Database) error {
	_, err := d.DB.Exec(schema)
	return err
}
