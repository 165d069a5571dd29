package service

// Hand-written fakes for the repository interfaces. They keep state in
// memory and expose error-injection fields, so service tests can simulate
// conflicts and storage failures that are awkward to trigger through a real
// database.

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// =========================================================================
// USERS
// =========================================================================

type fakeUserRepo struct {
	users     map[int64]*model.User // keyed by telegram id
	nextID    int64
	upsertErr error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

// addUser registers an account directly, bypassing the upsert path.
func (f *fakeUserRepo) addUser(telegramID int64) *model.User {
	f.nextID++
	u := &model.User{
		ID:         f.nextID,
		TelegramID: telegramID,
		FirstName:  fmt.Sprintf("User%d", telegramID),
		Username:   fmt.Sprintf("user%d", telegramID),
		Balance:    decimal.NewFromInt(10),
	}
	f.users[telegramID] = u
	return u
}

func (f *fakeUserRepo) Upsert(_ context.Context, profile model.TelegramProfile, _ int) (*model.User, bool, error) {
	if f.upsertErr != nil {
		return nil, false, f.upsertErr
	}
	if existing, ok := f.users[profile.TelegramID]; ok {
		existing.FirstName = profile.FirstName
		result := *existing
		return &result, false, nil
	}
	u := f.addUser(profile.TelegramID)
	u.FirstName = profile.FirstName
	result := *u
	return &result, true, nil
}

func (f *fakeUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	u, ok := f.users[telegramID]
	if !ok {
		return nil, apperror.NotFound("user", fmt.Sprintf("tg:%d", telegramID))
	}
	result := *u
	return &result, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", fmt.Sprintf("%d", id))
}

// =========================================================================
// TRADES
// =========================================================================

type fakeTradeRepo struct {
	receipt     *repository.PurchaseReceipt
	purchaseErr error
	transferErr error

	purchasedBy   int64
	purchasedItem string
	lastGift      *model.Gift
}

var _ repository.TradeRepository = (*fakeTradeRepo)(nil)

func (f *fakeTradeRepo) PurchaseItem(_ context.Context, buyerID int64, itemID string) (*repository.PurchaseReceipt, error) {
	f.purchasedBy = buyerID
	f.purchasedItem = itemID
	if f.purchaseErr != nil {
		return nil, f.purchaseErr
	}
	return f.receipt, nil
}

func (f *fakeTradeRepo) TransferItem(_ context.Context, gift *model.Gift) error {
	if f.transferErr != nil {
		return f.transferErr
	}
	stored := *gift
	f.lastGift = &stored
	return nil
}

// =========================================================================
// GIFTS
// =========================================================================

type fakeGiftRepo struct {
	openErr error
	inbox   []model.Gift

	openedGift string
	openedBy   int64
	awarded    int64
}

var _ repository.GiftRepository = (*fakeGiftRepo)(nil)

func (f *fakeGiftRepo) GetGift(_ context.Context, id string) (*model.Gift, error) {
	for _, g := range f.inbox {
		if g.ID == id {
			result := g
			return &result, nil
		}
	}
	return nil, apperror.NotFound("gift", id)
}

func (f *fakeGiftRepo) Open(_ context.Context, giftID string, userID, pointsAward int64) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.openedGift = giftID
	f.openedBy = userID
	f.awarded = pointsAward
	return nil
}

func (f *fakeGiftRepo) ListReceived(_ context.Context, _ int64) ([]model.Gift, error) {
	return f.inbox, nil
}

// =========================================================================
// STATS
// =========================================================================

type appliedDelta struct {
	userID int64
	season int
	delta  model.StatDelta
}

type fakeStatsRepo struct {
	applyErr error
	applied  []appliedDelta

	stat     *model.SeasonStat
	rank     int64
	statsErr error

	entries   []model.LeaderboardEntry
	lastLimit int
	summary   model.SeasonSummary
}

var _ repository.StatsRepository = (*fakeStatsRepo)(nil)

func (f *fakeStatsRepo) ApplyDelta(_ context.Context, userID int64, season int, delta model.StatDelta) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, appliedDelta{userID: userID, season: season, delta: delta})
	return nil
}

func (f *fakeStatsRepo) UserStats(_ context.Context, userID int64, season int) (*model.SeasonStat, int64, error) {
	if f.statsErr != nil {
		return nil, 0, f.statsErr
	}
	if f.stat == nil {
		return nil, 0, apperror.NotFound("season stats", fmt.Sprintf("user %d season %d", userID, season))
	}
	result := *f.stat
	return &result, f.rank, nil
}

func (f *fakeStatsRepo) Leaderboard(_ context.Context, _, limit int) ([]model.LeaderboardEntry, error) {
	f.lastLimit = limit
	return f.entries, nil
}

func (f *fakeStatsRepo) Summary(_ context.Context, season int) (*model.SeasonSummary, error) {
	result := f.summary
	result.Season = season
	return &result, nil
}

// =========================================================================
// TASKS
// =========================================================================

type fakeTaskRepo struct {
	active      []model.Task
	completeErr error
	completed   map[string]bool
	progress    model.TaskProgress
}

var _ repository.TaskRepository = (*fakeTaskRepo)(nil)

func newFakeTaskRepo(active ...model.Task) *fakeTaskRepo {
	return &fakeTaskRepo{active: active, completed: make(map[string]bool)}
}

func (f *fakeTaskRepo) ListActive(_ context.Context) ([]model.Task, error) {
	return f.active, nil
}

func (f *fakeTaskRepo) GetActive(_ context.Context, id string) (*model.Task, error) {
	for _, task := range f.active {
		if task.ID == id {
			result := task
			return &result, nil
		}
	}
	return nil, apperror.NotFound("task", id)
}

func (f *fakeTaskRepo) Complete(_ context.Context, _ int64, task *model.Task) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	if f.completed[task.ID] {
		return apperror.Conflict("task already completed")
	}
	f.completed[task.ID] = true
	return nil
}

func (f *fakeTaskRepo) Progress(_ context.Context, _ int64) (*model.TaskProgress, error) {
	result := f.progress
	return &result, nil
}
