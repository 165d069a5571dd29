package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
)

// =========================================================================
// PURCHASE TESTS
// =========================================================================

func TestPurchaseItem_Success(t *testing.T) {
	db := newTestDB(t)
	buyer := createTestUser(t, db, 1001, 5.0)
	createTestItem(t, db, "item_x", 3.0, nil)

	receipt, err := db.PurchaseItem(context.Background(), buyer.ID, "item_x")
	if err != nil {
		t.Fatalf("PurchaseItem() error = %v", err)
	}

	// Balance reflects the exact debit: 5.0 - 3.0 = 2.0.
	if !receipt.NewBalance.Equal(decimal.NewFromInt(2)) {
		t.Errorf("NewBalance = %s, want 2", receipt.NewBalance)
	}
	if receipt.Item.OwnerID == nil || *receipt.Item.OwnerID != buyer.ID {
		t.Errorf("receipt item owner = %v, want %d", receipt.Item.OwnerID, buyer.ID)
	}
	if receipt.Item.ListedAt != nil {
		t.Error("purchased item should no longer be listed")
	}

	// The committed state matches the receipt.
	item, err := db.GetItem(context.Background(), "item_x")
	if err != nil {
		t.Fatalf("GetItem() after purchase error = %v", err)
	}
	if item.OwnerID == nil || *item.OwnerID != buyer.ID {
		t.Errorf("persisted owner = %v, want %d", item.OwnerID, buyer.ID)
	}
	if item.Listed() {
		t.Error("persisted item should not be listed after purchase")
	}

	user, err := db.GetByID(context.Background(), buyer.ID)
	if err != nil {
		t.Fatalf("GetByID() after purchase error = %v", err)
	}
	if !user.Balance.Equal(decimal.NewFromInt(2)) {
		t.Errorf("persisted balance = %s, want 2", user.Balance)
	}
}

func TestPurchaseItem_ExactBalance(t *testing.T) {
	db := newTestDB(t)
	buyer := createTestUser(t, db, 1002, 3.0)
	createTestItem(t, db, "item_x", 3.0, nil)

	receipt, err := db.PurchaseItem(context.Background(), buyer.ID, "item_x")
	if err != nil {
		t.Fatalf("PurchaseItem() with exact balance error = %v", err)
	}
	if !receipt.NewBalance.IsZero() {
		t.Errorf("NewBalance = %s, want 0", receipt.NewBalance)
	}
}

func TestPurchaseItem_InsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	buyer := createTestUser(t, db, 1003, 1.0)
	createTestItem(t, db, "item_x", 3.0, nil)

	_, err := db.PurchaseItem(context.Background(), buyer.ID, "item_x")
	if !errors.Is(err, apperror.ErrInsufficientFunds) {
		t.Fatalf("PurchaseItem() error = %v, want ErrInsufficientFunds", err)
	}

	// Nothing committed: balance untouched, item still listed.
	user, err := db.GetByID(context.Background(), buyer.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !user.Balance.Equal(decimal.NewFromInt(1)) {
		t.Errorf("balance after failed purchase = %s, want 1", user.Balance)
	}

	item, err := db.GetItem(context.Background(), "item_x")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if !item.Listed() {
		t.Error("item should remain listed after a failed purchase")
	}
}

func TestPurchaseItem_AlreadyOwned(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, 1004, 10.0)
	buyer := createTestUser(t, db, 1005, 10.0)
	createTestItem(t, db, "item_x", 3.0, &owner.ID)

	_, err := db.PurchaseItem(context.Background(), buyer.ID, "item_x")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("PurchaseItem() error = %v, want ErrConflict", err)
	}

	item, err := db.GetItem(context.Background(), "item_x")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if item.OwnerID == nil || *item.OwnerID != owner.ID {
		t.Errorf("owner = %v, want %d (unchanged)", item.OwnerID, owner.ID)
	}

	user, err := db.GetByID(context.Background(), buyer.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !user.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("buyer balance = %s, want 10 (unchanged)", user.Balance)
	}
}

func TestPurchaseItem_NotFound(t *testing.T) {
	db := newTestDB(t)
	buyer := createTestUser(t, db, 1006, 10.0)

	_, err := db.PurchaseItem(context.Background(), buyer.ID, "no-such-item")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("PurchaseItem() error = %v, want ErrNotFound", err)
	}
}

// TestPurchaseItem_ConcurrentBuyers races several buyers for one item and
// verifies exactly one wins: one debit, one ownership change, every loser's
// balance untouched.
func TestPurchaseItem_ConcurrentBuyers(t *testing.T) {
	db := newTestDB(t)
	createTestItem(t, db, "item_x", 3.0, nil)

	const buyers = 4
	users := make([]*model.User, buyers)
	for i := range users {
		users[i] = createTestUser(t, db, int64(2000+i), 10.0)
	}

	results := make([]error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = db.PurchaseItem(context.Background(), users[i].ID, "item_x")
		}(i)
	}
	wg.Wait()

	winners := 0
	var winnerID int64
	for i, err := range results {
		switch {
		case err == nil:
			winners++
			winnerID = users[i].ID
		case errors.Is(err, apperror.ErrConflict):
			// Lost the race — expected.
		default:
			t.Errorf("buyer %d: unexpected error %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("got %d winners, want exactly 1", winners)
	}

	item, err := db.GetItem(context.Background(), "item_x")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if item.OwnerID == nil || *item.OwnerID != winnerID {
		t.Errorf("owner = %v, want winner %d", item.OwnerID, winnerID)
	}

	// Money conservation: winner paid, losers didn't.
	for i, u := range users {
		fresh, err := db.GetByID(context.Background(), u.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		want := decimal.NewFromInt(10)
		if u.ID == winnerID {
			want = decimal.NewFromInt(7)
		}
		if !fresh.Balance.Equal(want) {
			t.Errorf("buyer %d balance = %s, want %s", i, fresh.Balance, want)
		}
	}
}

// =========================================================================
// GIFT TRANSFER TESTS
// =========================================================================

func TestTransferItem_Success(t *testing.T) {
	db := newTestDB(t)
	sender := createTestUser(t, db, 3001, 0)
	receiver := createTestUser(t, db, 3002, 0)
	createTestItem(t, db, "item_z", 2.0, &sender.ID)

	gift := &model.Gift{
		ID:         "gift_test_1",
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		ItemID:     "item_z",
		Message:    "happy birthday",
		SentAt:     time.Now().UTC(),
	}
	if err := db.TransferItem(context.Background(), gift); err != nil {
		t.Fatalf("TransferItem() error = %v", err)
	}

	item, err := db.GetItem(context.Background(), "item_z")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if item.OwnerID == nil || *item.OwnerID != receiver.ID {
		t.Errorf("owner = %v, want receiver %d", item.OwnerID, receiver.ID)
	}

	// The gift record proves the transfer committed.
	stored, err := db.GetGift(context.Background(), "gift_test_1")
	if err != nil {
		t.Fatalf("GetGift() error = %v", err)
	}
	if stored.SenderID != sender.ID || stored.ReceiverID != receiver.ID {
		t.Errorf("gift parties = (%d, %d), want (%d, %d)",
			stored.SenderID, stored.ReceiverID, sender.ID, receiver.ID)
	}
	if stored.Opened {
		t.Error("a freshly sent gift should be unopened")
	}
	if stored.Message != "happy birthday" {
		t.Errorf("Message = %q, want %q", stored.Message, "happy birthday")
	}
}

func TestTransferItem_NotOwned(t *testing.T) {
	db := newTestDB(t)
	sender := createTestUser(t, db, 3003, 0)
	receiver := createTestUser(t, db, 3004, 0)
	other := createTestUser(t, db, 3005, 0)
	createTestItem(t, db, "item_z", 2.0, &other.ID)

	gift := &model.Gift{
		ID:         "gift_test_2",
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		ItemID:     "item_z",
		SentAt:     time.Now().UTC(),
	}
	err := db.TransferItem(context.Background(), gift)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("TransferItem() error = %v, want ErrConflict", err)
	}

	// No gift record for a transfer that didn't happen.
	if _, err := db.GetGift(context.Background(), "gift_test_2"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetGift() error = %v, want ErrNotFound", err)
	}

	item, err := db.GetItem(context.Background(), "item_z")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if item.OwnerID == nil || *item.OwnerID != other.ID {
		t.Errorf("owner = %v, want %d (unchanged)", item.OwnerID, other.ID)
	}
}

// TestTransferItem_ResendAfterTransfer sends the same item twice: the second
// attempt must fail because the sender no longer owns it.
func TestTransferItem_ResendAfterTransfer(t *testing.T) {
	db := newTestDB(t)
	sender := createTestUser(t, db, 3006, 0)
	receiver := createTestUser(t, db, 3007, 0)
	createTestItem(t, db, "item_z", 2.0, &sender.ID)

	sendTestGift(t, db, "gift_first", sender.ID, receiver.ID, "item_z")

	second := &model.Gift{
		ID:         "gift_second",
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		ItemID:     "item_z",
		SentAt:     time.Now().UTC(),
	}
	err := db.TransferItem(context.Background(), second)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second TransferItem() error = %v, want ErrConflict", err)
	}

	if _, err := db.GetGift(context.Background(), "gift_second"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetGift() for failed resend error = %v, want ErrNotFound", err)
	}
}
