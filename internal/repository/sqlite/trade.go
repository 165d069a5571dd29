package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

var _ repository.TradeRepository = (*DB)(nil)

// PurchaseItem executes a buy as one atomic transaction.
//
// THE CONDITIONAL-MUTATION PATTERN:
// Checking "is the item free?" and "can the buyer afford it?" with SELECTs
// and then writing would be a classic check-then-act race: between the read
// and the write another request can buy the same item or drain the same
// balance. Instead, each UPDATE below re-asserts its precondition in its own
// WHERE clause, and RowsAffected is the conflict detector:
//
//   - debit:    ... WHERE id = ? AND ton_balance >= price
//   - transfer: ... WHERE id = ? AND owner_id IS NULL
//
// SQLite serialises the two competing write transactions, so exactly one
// concurrent purchase of an item observes RowsAffected == 1 on the transfer;
// every loser observes 0 and rolls back — including rolling back its own
// already-applied debit. A partially applied purchase (money taken, item not
// received) is never committed.
//
// The initial SELECT exists only to classify the failure (missing item vs.
// already owned) and fetch the price; correctness never depends on it.
func (db *DB) PurchaseItem(ctx context.Context, buyerID int64, itemID string) (*repository.PurchaseReceipt, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning purchase tx: %w", err)
	}
	// Rollback is a no-op after Commit; this guarantees nothing partial
	// survives any early return below.
	defer tx.Rollback()

	var (
		price float64
		owner sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT price_ton, owner_id FROM items WHERE id = ?`, itemID,
	).Scan(&price, &owner)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("item", itemID)
		}
		return nil, fmt.Errorf("sqlite: reading item %s: %w", itemID, err)
	}
	if owner.Valid {
		return nil, apperror.Conflict("item already owned")
	}

	// Debit the buyer. The balance check lives in the WHERE clause, so it is
	// evaluated against the balance at write time, not a stale read.
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET ton_balance = ton_balance - ?
		 WHERE id = ? AND ton_balance >= ?`,
		price, buyerID, price,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: debiting user %d: %w", buyerID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking debit rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperror.InsufficientFunds()
	}

	// Transfer ownership, conditional on the item still being unowned.
	// Clearing listed_at in the same statement keeps the owned/listed
	// invariant — an item is never both.
	res, err = tx.ExecContext(ctx,
		`UPDATE items SET owner_id = ?, listed_at = NULL
		 WHERE id = ? AND owner_id IS NULL`,
		buyerID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: transferring item %s: %w", itemID, err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking transfer rows affected: %w", err)
	}
	if affected == 0 {
		// A concurrent purchase won between our SELECT and this UPDATE.
		// The deferred Rollback undoes the debit above.
		return nil, apperror.Conflict("item just sold to someone else")
	}

	// Read the committed-to-be state back inside the transaction so the
	// response reflects exactly what commits.
	var newBalance float64
	err = tx.QueryRowContext(ctx,
		`SELECT ton_balance FROM users WHERE id = ?`, buyerID,
	).Scan(&newBalance)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading new balance: %w", err)
	}

	row := tx.QueryRowContext(ctx, selectItemColumns+` WHERE id = ?`, itemID)
	item, err := scanItem(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading purchased item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing purchase: %w", err)
	}

	return &repository.PurchaseReceipt{
		NewBalance: decimal.NewFromFloat(newBalance),
		Item:       *item,
	}, nil
}

// TransferItem moves an item between users and records the gift, atomically.
//
// Ordering invariant: the ownership UPDATE runs first, the gift INSERT
// second, both in one transaction. A gift row therefore can only exist for a
// transfer that committed — never the reverse.
func (db *DB) TransferItem(ctx context.Context, gift *model.Gift) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transfer tx: %w", err)
	}
	defer tx.Rollback()

	// Conditional on "owner = sender" at write time. If the sender sold or
	// gifted the item a moment ago, this matches zero rows and nothing
	// happens.
	res, err := tx.ExecContext(ctx,
		`UPDATE items SET owner_id = ? WHERE id = ? AND owner_id = ?`,
		gift.ReceiverID, gift.ItemID, gift.SenderID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: transferring item %s: %w", gift.ItemID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking transfer rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.Conflict("item not owned by sender")
	}

	// A primary-key collision here means the generated gift id wasn't unique.
	// That is a storage error, surfaced as-is: retrying inside this
	// transaction could double-apply the transfer on a flaky connection, so
	// we fail loudly instead.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO gifts (id, sender_id, receiver_id, item_id, message, opened, sent_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		gift.ID,
		gift.SenderID,
		gift.ReceiverID,
		gift.ItemID,
		gift.Message,
		gift.SentAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating gift record %s: %w", gift.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transfer: %w", err)
	}

	return nil
}
