package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rustamov/gift-market/internal/model"
)

// SeedCatalog provisions the demo catalogue and the season task list. It is
// idempotent — INSERT OR IGNORE against the primary keys — so running it on
// an already-seeded database changes nothing, including items that have since
// been bought.
//
// Timestamps are bound explicitly rather than left to column defaults, so
// they round-trip as time.Time like every other write in this package.
func (db *DB) SeedCatalog(ctx context.Context) error {
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (id, name, description, image_url, floor_price, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"col_treasures", "Telegram Treasures", "The original gift collection",
		"/images/collections/treasures.png", 1.5, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: seeding collections: %w", err)
	}

	items := []struct {
		id     string
		name   string
		price  float64
		rarity string
	}{
		{"item_1", "Delicious Cake", 3.0, model.RarityCommon},
		{"item_2", "Red Heart", 1.5, model.RarityCommon},
		{"item_3", "Green Star", 5.0, model.RarityRare},
		{"item_4", "Blue Star", 5.0, model.RarityRare},
		{"item_5", "Magic Lamp", 12.0, model.RarityEpic},
		{"item_6", "Golden Trophy", 25.0, model.RarityLegendary},
	}
	for _, it := range items {
		_, err := db.conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO items (id, name, description, image_url, collection_id, price_ton, rarity, listed_at)
			 VALUES (?, ?, '', ?, 'col_treasures', ?, ?, ?)`,
			it.id, it.name, fmt.Sprintf("/images/items/%s.png", it.id), it.price, it.rarity, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: seeding item %s: %w", it.id, err)
		}
	}

	tasks := []struct {
		id     string
		title  string
		reward int64
		typ    string
	}{
		{"task_daily_login", "Open the app", 50, model.TaskDaily},
		{"task_send_gift", "Send a gift to a friend", 150, model.TaskWeekly},
		{"task_first_purchase", "Make your first purchase", 200, model.TaskAchievement},
		{"task_season_collector", "Own three items this season", 500, model.TaskSeason},
	}
	for _, task := range tasks {
		_, err := db.conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO tasks (id, title, description, points_reward, type, is_active, created_at)
			 VALUES (?, ?, '', ?, ?, 1, ?)`,
			task.id, task.title, task.reward, task.typ, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: seeding task %s: %w", task.id, err)
		}
	}

	return nil
}
