package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
)

// =========================================================================
// UPSERT TESTS
// =========================================================================

func TestUpsert_NewUser(t *testing.T) {
	db := newTestDB(t)

	profile := model.TelegramProfile{
		TelegramID:   555001,
		FirstName:    "Alice",
		Username:     "alice",
		LanguageCode: "en",
		IsPremium:    true,
	}
	user, isNew, err := db.Upsert(context.Background(), profile, testSeason)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if !isNew {
		t.Error("first Upsert() should report isNew = true")
	}
	if user.ID == 0 {
		t.Error("Upsert() did not assign an internal id")
	}
	if user.TelegramID != 555001 {
		t.Errorf("TelegramID = %d, want 555001", user.TelegramID)
	}
	if !user.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("starting balance = %s, want 10", user.Balance)
	}
	if user.Points != 0 {
		t.Errorf("starting points = %d, want 0", user.Points)
	}
	if !user.IsPremium {
		t.Error("IsPremium not persisted")
	}

	// The season stats row is seeded together with the account.
	stat, _, err := db.UserStats(context.Background(), user.ID, testSeason)
	if err != nil {
		t.Fatalf("UserStats() for new account error = %v", err)
	}
	if stat.Points != 0 {
		t.Errorf("seeded season points = %d, want 0", stat.Points)
	}
}

func TestUpsert_ExistingUser(t *testing.T) {
	db := newTestDB(t)

	profile := model.TelegramProfile{TelegramID: 555002, FirstName: "Bob", Username: "bob"}
	first, _, err := db.Upsert(context.Background(), profile, testSeason)
	if err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}

	// Simulate activity between logins.
	if _, err := db.conn.Exec(`UPDATE users SET ton_balance = 42, points = 7 WHERE id = ?`, first.ID); err != nil {
		t.Fatalf("failed to set balance: %v", err)
	}

	// Second login with a renamed profile.
	profile.FirstName = "Robert"
	profile.Username = "robert"
	second, isNew, err := db.Upsert(context.Background(), profile, testSeason)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	if isNew {
		t.Error("second Upsert() should report isNew = false")
	}
	if second.ID != first.ID {
		t.Errorf("internal id changed across logins: %d != %d", second.ID, first.ID)
	}
	if second.FirstName != "Robert" || second.Username != "robert" {
		t.Errorf("profile not refreshed: %q/%q", second.FirstName, second.Username)
	}

	// Account state owned by this system survives the login.
	if !second.Balance.Equal(decimal.NewFromInt(42)) {
		t.Errorf("balance after re-login = %s, want 42", second.Balance)
	}
	if second.Points != 7 {
		t.Errorf("points after re-login = %d, want 7", second.Points)
	}
}

// TestUpsert_ConcurrentFirstLogin races several first logins of the same
// Telegram account: exactly one row may be created.
func TestUpsert_ConcurrentFirstLogin(t *testing.T) {
	db := newTestDB(t)

	const logins = 4
	profile := model.TelegramProfile{TelegramID: 555003, FirstName: "Racer"}

	newFlags := make([]bool, logins)
	errs := make([]error, logins)
	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, newFlags[i], errs[i] = db.Upsert(context.Background(), profile, testSeason)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < logins; i++ {
		if errs[i] != nil {
			t.Errorf("login %d: error = %v", i, errs[i])
		}
		if newFlags[i] {
			created++
		}
	}
	if created != 1 {
		t.Errorf("%d logins reported isNew, want exactly 1", created)
	}

	var rows int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM users WHERE telegram_id = ?`, profile.TelegramID).Scan(&rows); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("got %d account rows, want 1", rows)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetByTelegramID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, 555004, 5)

	found, err := db.GetByTelegramID(context.Background(), 555004)
	if err != nil {
		t.Fatalf("GetByTelegramID() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
}

func TestGetByTelegramID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByTelegramID(context.Background(), 999999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByTelegramID() error = %v, want ErrNotFound", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), 12345)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}
