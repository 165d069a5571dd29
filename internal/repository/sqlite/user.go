package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Seed values for a freshly created account. Every new user starts with a
// demo TON balance so the marketplace is usable immediately.
var startingBalance = decimal.NewFromInt(10)

const startingPoints = 0

// Upsert implements login-time identity resolution.
//
// RACE SAFETY:
// Two first logins of the same Telegram account can race. A read-then-insert
// would create two rows (or fail unpredictably); instead the INSERT OR IGNORE
// below makes the UNIQUE(telegram_id) constraint the arbiter: exactly one
// concurrent insert wins, the loser matches zero rows and takes the
// existing-user path. RowsAffected tells us which path we're on — the same
// affected-rows pattern the trade engines use.
//
// The insert and the season-stats seed run in one transaction, so a created
// account always has its stats row.
func (db *DB) Upsert(ctx context.Context, profile model.TelegramProfile, season int) (*model.User, bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: beginning upsert tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO users
		   (telegram_id, first_name, last_name, username, language_code, is_premium,
		    points, ton_balance, created_at, last_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.TelegramID,
		profile.FirstName,
		profile.LastName,
		profile.Username,
		profile.LanguageCode,
		profile.IsPremium,
		startingPoints,
		startingBalance.InexactFloat64(),
		now,
		now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: inserting user (telegramID=%d): %w", profile.TelegramID, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	isNew := inserted == 1

	if isNew {
		// Seed the current season's stats row together with the account.
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO season_stats (user_id, season_number, last_updated)
			 SELECT id, ?, ? FROM users WHERE telegram_id = ?`,
			season, now, profile.TelegramID,
		)
		if err != nil {
			return nil, false, fmt.Errorf("sqlite: seeding season stats: %w", err)
		}
	} else {
		// Existing account — refresh the profile (names change on Telegram)
		// and bump last_seen.
		_, err = tx.ExecContext(ctx,
			`UPDATE users
			 SET first_name = ?, last_name = ?, username = ?, language_code = ?,
			     is_premium = ?, last_seen = ?
			 WHERE telegram_id = ?`,
			profile.FirstName,
			profile.LastName,
			profile.Username,
			profile.LanguageCode,
			profile.IsPremium,
			now,
			profile.TelegramID,
		)
		if err != nil {
			return nil, false, fmt.Errorf("sqlite: refreshing user profile: %w", err)
		}
	}

	user, err := scanUser(tx.QueryRowContext(ctx,
		selectUserColumns+` WHERE telegram_id = ?`, profile.TelegramID))
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: reading back upserted user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("sqlite: committing upsert: %w", err)
	}

	return user, isNew, nil
}

// GetByTelegramID resolves an external Telegram identity to the account row.
// Returns apperror.ErrNotFound for an unknown identity.
func (db *DB) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := scanUser(db.conn.QueryRowContext(ctx,
		selectUserColumns+` WHERE telegram_id = ?`, telegramID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprintf("tg:%d", telegramID))
		}
		return nil, fmt.Errorf("sqlite: getting user by telegram id %d: %w", telegramID, err)
	}
	return user, nil
}

// GetByID retrieves a user by internal ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(db.conn.QueryRowContext(ctx,
		selectUserColumns+` WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return user, nil
}

const selectUserColumns = `
	SELECT id, telegram_id, first_name, last_name, username, language_code,
	       is_premium, points, ton_balance, created_at, last_seen
	FROM users`

// scanUser reads one user row. Balance comes back as REAL and is converted to
// decimal at this boundary; all arithmetic above this layer is exact.
func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u       model.User
		balance float64
	)
	err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.FirstName,
		&u.LastName,
		&u.Username,
		&u.LanguageCode,
		&u.IsPremium,
		&u.Points,
		&balance,
		&u.CreatedAt,
		&u.LastSeen,
	)
	if err != nil {
		return nil, err
	}
	u.Balance = decimal.NewFromFloat(balance)
	return &u, nil
}
