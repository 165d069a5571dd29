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

var _ repository.ItemRepository = (*DB)(nil)

const selectItemColumns = `
	SELECT id, name, description, image_url, collection_id, price_ton, rarity,
	       views, likes, owner_id, listed_at
	FROM items`

// List returns the whole catalogue, newest first.
func (db *DB) List(ctx context.Context) ([]model.Item, error) {
	rows, err := db.conn.QueryContext(ctx, selectItemColumns+` ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning item row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating items: %w", err)
	}

	return items, nil
}

// GetItem retrieves a single item. Returns apperror.ErrNotFound if absent.
func (db *DB) GetItem(ctx context.Context, id string) (*model.Item, error) {
	row := db.conn.QueryRowContext(ctx, selectItemColumns+` WHERE id = ?`, id)
	item, err := scanItem(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("item", id)
		}
		return nil, fmt.Errorf("sqlite: getting item %s: %w", id, err)
	}
	return item, nil
}

// scanItem reads one item row via the given scan function, so it works for
// both sql.Row and sql.Rows.
func scanItem(scan func(dest ...any) error) (*model.Item, error) {
	var (
		item       model.Item
		collection sql.NullString
		price      float64
		owner      sql.NullInt64
		listedAt   sql.NullTime
	)
	err := scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.ImageURL,
		&collection,
		&price,
		&item.Rarity,
		&item.Views,
		&item.Likes,
		&owner,
		&listedAt,
	)
	if err != nil {
		return nil, err
	}

	item.CollectionID = collection.String
	item.Price = decimal.NewFromFloat(price)
	if owner.Valid {
		item.OwnerID = &owner.Int64
	}
	if listedAt.Valid {
		item.ListedAt = &listedAt.Time
	}
	return &item, nil
}
