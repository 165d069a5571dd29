package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

// MarketService is the purchase engine plus catalogue reads.
type MarketService struct {
	users  repository.UserRepository
	items  repository.ItemRepository
	trades repository.TradeRepository
	stats  repository.StatsRepository
	logger *slog.Logger
	season int
}

func NewMarketService(
	users repository.UserRepository,
	items repository.ItemRepository,
	trades repository.TradeRepository,
	stats repository.StatsRepository,
	logger *slog.Logger,
	season int,
) *MarketService {
	return &MarketService{
		users:  users,
		items:  items,
		trades: trades,
		stats:  stats,
		logger: logger,
		season: season,
	}
}

// ListItems returns the catalogue.
func (s *MarketService) ListItems(ctx context.Context) ([]model.Item, error) {
	return s.items.List(ctx)
}

// Purchase buys an item for the identified user.
//
// The flow is: resolve identity, run the atomic conditional-mutation
// transaction, then apply the derived aggregates best-effort. The trade repository owns atomicity; by the time PurchaseItem
// returns without error, the debit and the ownership transfer have committed
// together, and any failure before that committed nothing.
func (s *MarketService) Purchase(ctx context.Context, buyerTelegramID int64, itemID string) (*repository.PurchaseReceipt, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, apperror.ValidationFailed("itemId", "item id is required")
	}

	buyer, err := s.users.GetByTelegramID(ctx, buyerTelegramID)
	if err != nil {
		return nil, err
	}

	receipt, err := s.trades.PurchaseItem(ctx, buyer.ID, itemID)
	if err != nil {
		// Expected rejections (not found, already owned, insufficient funds)
		// propagate untouched; the handler distinguishes them. Only real
		// storage failures are worth a log line.
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			s.logger.Error("purchase failed",
				slog.Int64("buyer_id", buyer.ID),
				slog.String("item_id", itemID),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("item purchased",
		slog.Int64("buyer_id", buyer.ID),
		slog.String("item_id", itemID),
		slog.String("price_ton", receipt.Item.Price.String()),
	)

	// Best-effort stats update. The purchase has committed; a failure here is
	// logged and reconciled out-of-band, never surfaced to the buyer.
	delta := model.StatDelta{Volume: receipt.Item.Price, ItemsBought: 1}
	if err := s.stats.ApplyDelta(ctx, buyer.ID, s.season, delta); err != nil {
		s.logger.Warn("season stats update failed after purchase",
			slog.Int64("buyer_id", buyer.ID),
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
	}

	return receipt, nil
}
