package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

var _ repository.GiftRepository = (*DB)(nil)

const selectGiftColumns = `
	SELECT id, sender_id, receiver_id, item_id, message, opened, sent_at, opened_at
	FROM gifts`

// GetGift retrieves a gift record.
func (db *DB) GetGift(ctx context.Context, id string) (*model.Gift, error) {
	row := db.conn.QueryRowContext(ctx, selectGiftColumns+` WHERE id = ?`, id)
	gift, err := scanGift(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("gift", id)
		}
		return nil, fmt.Errorf("sqlite: getting gift %s: %w", id, err)
	}
	return gift, nil
}

// Open performs the one-way opened transition and credits the point award.
//
// The flip and the points credit share a transaction so the award is applied
// exactly once: the UPDATE is conditional on `opened = 0`, and only when it
// matches a row do we touch the receiver's points. A repeat call matches
// zero rows and leaves points untouched.
//
// Only the receiver may open a gift. There is no cross-row race here beyond
// row-level atomicity — the gift belongs to exactly one receiver — so the
// preliminary SELECT is fine for the permission check; idempotency still
// rests on the conditional UPDATE.
func (db *DB) Open(ctx context.Context, giftID string, userID, pointsAward int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning open tx: %w", err)
	}
	defer tx.Rollback()

	var receiverID int64
	err = tx.QueryRowContext(ctx,
		`SELECT receiver_id FROM gifts WHERE id = ?`, giftID,
	).Scan(&receiverID)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("gift", giftID)
		}
		return fmt.Errorf("sqlite: reading gift %s: %w", giftID, err)
	}
	if receiverID != userID {
		return apperror.Forbidden("only the receiver can open this gift")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE gifts SET opened = 1, opened_at = ? WHERE id = ? AND opened = 0`,
		time.Now().UTC(), giftID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: opening gift %s: %w", giftID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking open rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.Conflict("gift already opened")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET points = points + ? WHERE id = ?`,
		pointsAward, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: crediting open reward: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing open: %w", err)
	}
	return nil
}

// ListReceived returns the user's inbox, newest first.
func (db *DB) ListReceived(ctx context.Context, receiverID int64) ([]model.Gift, error) {
	rows, err := db.conn.QueryContext(ctx,
		selectGiftColumns+` WHERE receiver_id = ? ORDER BY sent_at DESC`, receiverID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing gifts for user %d: %w", receiverID, err)
	}
	defer rows.Close()

	var gifts []model.Gift
	for rows.Next() {
		gift, err := scanGift(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning gift row: %w", err)
		}
		gifts = append(gifts, *gift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating gifts: %w", err)
	}

	return gifts, nil
}

func scanGift(scan func(dest ...any) error) (*model.Gift, error) {
	var (
		g        model.Gift
		openedAt sql.NullTime
	)
	err := scan(
		&g.ID,
		&g.SenderID,
		&g.ReceiverID,
		&g.ItemID,
		&g.Message,
		&g.Opened,
		&g.SentAt,
		&openedAt,
	)
	if err != nil {
		return nil, err
	}
	if openedAt.Valid {
		g.OpenedAt = &openedAt.Time
	}
	return &g, nil
}
