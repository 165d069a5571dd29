// Package repository declares the storage interfaces the service layer
// depends on. Services are injected with these interfaces, never with the
// concrete sqlite implementation — tests substitute in-memory fakes, and the
// backend could move to Postgres without touching business logic.
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rustamov/gift-market/internal/model"
)

// UserRepository resolves external Telegram identities to internal accounts.
type UserRepository interface {
	// Upsert creates the account on first login (seeding starting balance,
	// points and the current season's stats row) or refreshes the profile and
	// last_seen on subsequent logins. It is safe under concurrent first logins
	// of the same Telegram ID: exactly one row is ever created.
	// The second return value reports whether the account was newly created.
	Upsert(ctx context.Context, profile model.TelegramProfile, season int) (*model.User, bool, error)

	// GetByTelegramID resolves an external identity to the full account row.
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)

	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// ItemRepository provides read access to the item catalogue.
type ItemRepository interface {
	List(ctx context.Context) ([]model.Item, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
}

// PurchaseReceipt reflects the committed state after a successful purchase.
type PurchaseReceipt struct {
	NewBalance decimal.Decimal
	Item       model.Item
}

// TradeRepository executes the atomic ownership/balance mutations. Every
// method is a single all-or-nothing transaction; on any error path nothing
// is committed.
type TradeRepository interface {
	// PurchaseItem debits the buyer and transfers ownership of an unowned
	// item in one transaction. Both mutations are conditional UPDATEs that
	// re-assert their precondition at write time:
	//   - debit matches zero rows       → ErrInsufficientFunds
	//   - transfer matches zero rows    → ErrConflict (someone else bought it),
	//     and the already-applied debit is rolled back
	PurchaseItem(ctx context.Context, buyerID int64, itemID string) (*PurchaseReceipt, error)

	// TransferItem moves an item from gift.SenderID to gift.ReceiverID and
	// inserts the gift record, in that order, in one transaction. The
	// ownership UPDATE is conditional on "owner = sender"; zero rows matched
	// means the sender doesn't own the item → ErrConflict, no gift created.
	TransferItem(ctx context.Context, gift *model.Gift) error
}

// GiftRepository manages gift records outside the transfer itself.
type GiftRepository interface {
	GetGift(ctx context.Context, id string) (*model.Gift, error)

	// Open flips the gift's opened flag (one-way) and credits pointsAward to
	// the receiver, atomically. Returns ErrNotFound for an unknown gift,
	// ErrForbidden when userID is not the receiver, and ErrConflict when the
	// gift was already opened — in which case no points are credited.
	Open(ctx context.Context, giftID string, userID, pointsAward int64) error

	ListReceived(ctx context.Context, receiverID int64) ([]model.Gift, error)
}

// StatsRepository maintains the per-season derived aggregates.
type StatsRepository interface {
	// ApplyDelta increments the (userID, season) aggregate row in place.
	ApplyDelta(ctx context.Context, userID int64, season int, delta model.StatDelta) error

	// UserStats returns the user's season row together with their points rank
	// (1-based, ties share the lower rank).
	UserStats(ctx context.Context, userID int64, season int) (*model.SeasonStat, int64, error)

	Leaderboard(ctx context.Context, season, limit int) ([]model.LeaderboardEntry, error)
	Summary(ctx context.Context, season int) (*model.SeasonSummary, error)
}

// TaskRepository serves the season task list and completion state.
type TaskRepository interface {
	ListActive(ctx context.Context) ([]model.Task, error)
	GetActive(ctx context.Context, id string) (*model.Task, error)

	// Complete marks the task done for the user and credits the reward to the
	// user's points, atomically. A repeated completion returns ErrConflict
	// with no points credited.
	Complete(ctx context.Context, userID int64, task *model.Task) error

	Progress(ctx context.Context, userID int64) (*model.TaskProgress, error)
}
