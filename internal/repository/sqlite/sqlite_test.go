package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustamov/gift-market/internal/model"
)

// testSeason is the season number helpers seed accounts into.
const testSeason = 2

// newTestDB creates a fresh database in a per-test temp directory.
//
// Not ":memory:" — database/sql pools connections, and every pooled
// connection to ":memory:" opens its own empty database, which breaks the
// moment a transaction and a plain query land on different connections. A
// file in t.TempDir() is still isolated per test and is deleted with the
// directory when the test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser registers an account through the normal upsert path, then
// sets the balance the scenario needs.
func createTestUser(t *testing.T, db *DB, telegramID int64, balance float64) *model.User {
	t.Helper()

	profile := model.TelegramProfile{
		TelegramID:   telegramID,
		FirstName:    "Test",
		Username:     fmt.Sprintf("user%d", telegramID),
		LanguageCode: "en",
	}
	user, _, err := db.Upsert(context.Background(), profile, testSeason)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	if _, err := db.conn.Exec(`UPDATE users SET ton_balance = ? WHERE id = ?`, balance, user.ID); err != nil {
		t.Fatalf("failed to set test balance: %v", err)
	}

	fresh, err := db.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("failed to re-read test user: %v", err)
	}
	return fresh
}

// createTestItem inserts an item directly. ownerID == nil means listed for
// sale; otherwise the item is owned and unlisted.
func createTestItem(t *testing.T, db *DB, id string, price float64, ownerID *int64) {
	t.Helper()

	if ownerID == nil {
		_, err := db.conn.Exec(
			`INSERT INTO items (id, name, price_ton, rarity, listed_at) VALUES (?, ?, ?, 'common', ?)`,
			id, "Item "+id, price, time.Now().UTC(),
		)
		if err != nil {
			t.Fatalf("failed to create listed test item: %v", err)
		}
		return
	}

	_, err := db.conn.Exec(
		`INSERT INTO items (id, name, price_ton, rarity, owner_id, listed_at) VALUES (?, ?, ?, 'common', ?, NULL)`,
		id, "Item "+id, price, *ownerID,
	)
	if err != nil {
		t.Fatalf("failed to create owned test item: %v", err)
	}
}

// createTestTask inserts a task row directly.
func createTestTask(t *testing.T, db *DB, id string, reward int64, active bool) *model.Task {
	t.Helper()

	_, err := db.conn.Exec(
		`INSERT INTO tasks (id, title, points_reward, type, is_active, created_at)
		 VALUES (?, ?, ?, 'daily', ?, ?)`,
		id, "Task "+id, reward, active, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return &model.Task{ID: id, Title: "Task " + id, PointsReward: reward, Type: model.TaskDaily, IsActive: active}
}

// sendTestGift transfers an item the sender owns and records the gift,
// through the real transfer engine.
func sendTestGift(t *testing.T, db *DB, giftID string, senderID, receiverID int64, itemID string) *model.Gift {
	t.Helper()

	gift := &model.Gift{
		ID:         giftID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		ItemID:     itemID,
		Message:    "for you",
		SentAt:     time.Now().UTC(),
	}
	if err := db.TransferItem(context.Background(), gift); err != nil {
		t.Fatalf("failed to send test gift: %v", err)
	}
	return gift
}
