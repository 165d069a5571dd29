// Package model defines the data structures used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a marketplace account.
//
// Telegram is the identity provider, so the external identifier is the
// Telegram numeric user ID. We still keep our own internal integer ID as the
// primary key — foreign keys (item ownership, gifts, season stats) reference
// the internal ID, never the Telegram one, so the data model doesn't depend
// on a third party's numbering scheme. The UNIQUE constraint on telegram_id
// ensures one Telegram account maps to exactly one marketplace account.
//
// WHY decimal.Decimal FOR Balance?
// TON amounts are money. float64 arithmetic accumulates rounding error
// (0.1 + 0.2 != 0.3), which is unacceptable when debiting balances. The
// shopspring/decimal type does exact decimal arithmetic; conversion to the
// database's REAL column happens only at the storage boundary.
type User struct {
	ID           int64           `json:"id"`
	TelegramID   int64           `json:"telegramId"` // Telegram's numeric user ID
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Username     string          `json:"username"`
	LanguageCode string          `json:"languageCode"`
	IsPremium    bool            `json:"isPremium"`
	Points       int64           `json:"points"`
	Balance      decimal.Decimal `json:"tonBalance"` // in-app TON balance
	CreatedAt    time.Time       `json:"createdAt"`
	LastSeen     time.Time       `json:"lastSeen"`
}

// TelegramProfile is the subset of identity fields supplied by a verified
// Telegram login. It is what the identity resolver upserts — everything else
// on User (balance, points, timestamps) is owned by this system.
type TelegramProfile struct {
	TelegramID   int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
	IsPremium    bool
}
