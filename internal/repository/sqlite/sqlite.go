// Package sqlite implements the repository interfaces on SQLite.
//
// SQLite is an embedded database — it lives inside the binary as a single
// file, which is all a single-server Mini App backend needs. We use
// modernc.org/sqlite (pure Go translation of SQLite) rather than the CGo
// driver, so the server cross-compiles without a C toolchain.
//
// The conflict-safety story of the whole marketplace lives in this package:
// every mutation of an item's owner or a user's balance is a conditional
// UPDATE whose WHERE clause re-asserts the invariant at write time, and the
// RowsAffected count of that UPDATE is the sole conflict detector. See
// trade.go for the two transactional engines.
package sqlite

import (
	"database/sql"
	"fmt"

	// The blank import registers the driver with database/sql under the name
	// "sqlite"; sql.Open("sqlite", ...) works after this.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// CONNECTION OPTIONS (set in the DSN so they apply to EVERY pooled
// connection, not just the first one):
//   - journal_mode(WAL): concurrent reads proceed while a write transaction
//     holds the database — purchase transactions and leaderboard reads
//     overlap constantly.
//   - foreign_keys(1): OFF by default in SQLite; ownership and gift rows
//     reference users, so referential integrity must be enforced.
//   - busy_timeout(5000): a writer waiting on another writer's lock blocks
//     up to 5s instead of failing immediately.
//   - _txlock=immediate: BeginTx takes the write lock up front. With the
//     default deferred mode, two purchase transactions could both start as
//     readers and deadlock upgrading to writers (SQLITE_BUSY without
//     honouring the timeout); immediate mode makes competing purchases
//     queue, which is exactly the linearisation the engines rely on.
func New(dbPath string) (*DB, error) {
	dsn := dbPath +
		"?_txlock=immediate" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces a real connection now, so a bad path or permissions
	// problem surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, path: dbPath}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Path returns the file path the database was opened with. The backup
// scheduler uses it to locate the file to snapshot.
func (db *DB) Path() string {
	return db.path
}

// Close closes the connection pool. Always defer this next to New — it
// flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates all tables. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start; for this project's scale, embedded SQL beats a
// migration tool.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			telegram_id   INTEGER NOT NULL UNIQUE,
			first_name    TEXT NOT NULL,
			last_name     TEXT NOT NULL DEFAULT '',
			username      TEXT NOT NULL DEFAULT '',
			language_code TEXT NOT NULL DEFAULT 'en',
			is_premium    INTEGER NOT NULL DEFAULT 0,
			points        INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
			ton_balance   REAL NOT NULL DEFAULT 0 CHECK (ton_balance >= 0),
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_seen     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			image_url    TEXT NOT NULL DEFAULT '',
			floor_price  REAL NOT NULL DEFAULT 0,
			total_volume REAL NOT NULL DEFAULT 0,
			item_count   INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating collections table: %w", err)
	}

	// owner_id NULL means the item is unowned and listed; listed_at is set
	// iff owner_id is NULL. Purchases clear listed_at in the same UPDATE
	// that sets owner_id, so the two can never disagree.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			image_url     TEXT NOT NULL DEFAULT '',
			collection_id TEXT REFERENCES collections(id),
			price_ton     REAL NOT NULL CHECK (price_ton >= 0),
			rarity        TEXT NOT NULL DEFAULT 'common'
			              CHECK (rarity IN ('common', 'rare', 'epic', 'legendary')),
			views         INTEGER NOT NULL DEFAULT 0,
			likes         INTEGER NOT NULL DEFAULT 0,
			owner_id      INTEGER REFERENCES users(id),
			listed_at     DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_items_owner_id ON items(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating items table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS gifts (
			id          TEXT PRIMARY KEY,
			sender_id   INTEGER NOT NULL REFERENCES users(id),
			receiver_id INTEGER NOT NULL REFERENCES users(id),
			item_id     TEXT NOT NULL REFERENCES items(id),
			message     TEXT NOT NULL DEFAULT '',
			opened      INTEGER NOT NULL DEFAULT 0,
			sent_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			opened_at   DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_gifts_receiver_id ON gifts(receiver_id);
	`)
	if err != nil {
		return fmt.Errorf("creating gifts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS season_stats (
			user_id         INTEGER NOT NULL REFERENCES users(id),
			season_number   INTEGER NOT NULL,
			points          INTEGER NOT NULL DEFAULT 0,
			volume_ton      REAL NOT NULL DEFAULT 0,
			items_bought    INTEGER NOT NULL DEFAULT 0,
			items_sold      INTEGER NOT NULL DEFAULT 0,
			referrals       INTEGER NOT NULL DEFAULT 0,
			tasks_completed INTEGER NOT NULL DEFAULT 0,
			last_updated    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, season_number)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating season_stats table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id            TEXT PRIMARY KEY,
			title         TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			points_reward INTEGER NOT NULL,
			type          TEXT NOT NULL DEFAULT 'daily'
			              CHECK (type IN ('daily', 'weekly', 'season', 'achievement')),
			requirement   TEXT NOT NULL DEFAULT '',
			is_active     INTEGER NOT NULL DEFAULT 1,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS user_tasks (
			user_id      INTEGER NOT NULL REFERENCES users(id),
			task_id      TEXT NOT NULL REFERENCES tasks(id),
			completed    INTEGER NOT NULL DEFAULT 0,
			completed_at DATETIME,
			claimed      INTEGER NOT NULL DEFAULT 0,
			claimed_at   DATETIME,
			PRIMARY KEY (user_id, task_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tasks tables: %w", err)
	}

	return nil
}
