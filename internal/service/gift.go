package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

// GiftOpenReward is the fixed point award credited to a receiver the first
// time they open a gift.
const GiftOpenReward = 50

// MaxGiftMessageLength bounds the attached message.
const MaxGiftMessageLength = 500

// GiftService is the gift transfer engine: peer-to-peer item transfer with a
// gift record, plus the open transition and inbox reads.
type GiftService struct {
	users  repository.UserRepository
	trades repository.TradeRepository
	gifts  repository.GiftRepository
	stats  repository.StatsRepository
	logger *slog.Logger
	season int
}

func NewGiftService(
	users repository.UserRepository,
	trades repository.TradeRepository,
	gifts repository.GiftRepository,
	stats repository.StatsRepository,
	logger *slog.Logger,
	season int,
) *GiftService {
	return &GiftService{
		users:  users,
		trades: trades,
		gifts:  gifts,
		stats:  stats,
		logger: logger,
		season: season,
	}
}

// Send transfers an owned item from the sender to the receiver and records
// the gift. Returns the generated gift id.
//
// GIFT ID:
// xid encodes a timestamp plus per-process random material, giving a
// collision-resistant, time-sortable id. The "gift_" prefix keeps the wire
// shape clients already expect. If the id ever collides, the insert fails on
// the primary key and the whole transfer rolls back — the storage layer does
// not retry, because silently retrying a transfer risks applying it twice.
func (s *GiftService) Send(ctx context.Context, senderTelegramID int64, itemID string, receiverTelegramID int64, message string) (string, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", apperror.ValidationFailed("itemId", "item id is required")
	}
	if receiverTelegramID == 0 {
		return "", apperror.ValidationFailed("receiverTelegramId", "receiver telegram id is required")
	}
	if len(message) > MaxGiftMessageLength {
		return "", apperror.ValidationFailed("message", "gift message is too long")
	}

	sender, err := s.users.GetByTelegramID(ctx, senderTelegramID)
	if err != nil {
		return "", err
	}
	receiver, err := s.users.GetByTelegramID(ctx, receiverTelegramID)
	if err != nil {
		return "", err
	}
	if sender.ID == receiver.ID {
		return "", apperror.ValidationFailed("receiverTelegramId", "cannot send a gift to yourself")
	}

	gift := &model.Gift{
		ID:         "gift_" + xid.New().String(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		ItemID:     itemID,
		Message:    strings.TrimSpace(message),
		SentAt:     time.Now().UTC(),
	}

	if err := s.trades.TransferItem(ctx, gift); err != nil {
		return "", err
	}

	s.logger.Info("gift sent",
		slog.String("gift_id", gift.ID),
		slog.Int64("sender_id", sender.ID),
		slog.Int64("receiver_id", receiver.ID),
		slog.String("item_id", itemID),
	)

	// Best-effort aggregates: the transfer has committed, failures here only
	// skew the leaderboard and are reconciled out-of-band.
	if err := s.stats.ApplyDelta(ctx, sender.ID, s.season, model.StatDelta{ItemsSold: 1}); err != nil {
		s.logger.Warn("season stats update failed for sender",
			slog.Int64("sender_id", sender.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.stats.ApplyDelta(ctx, receiver.ID, s.season, model.StatDelta{ItemsBought: 1}); err != nil {
		s.logger.Warn("season stats update failed for receiver",
			slog.Int64("receiver_id", receiver.ID),
			slog.String("error", err.Error()),
		)
	}

	return gift.ID, nil
}

// Open performs the receiver-only, one-way open transition and credits the
// fixed point award exactly once. Returns the points awarded.
func (s *GiftService) Open(ctx context.Context, receiverTelegramID int64, giftID string) (int64, error) {
	giftID = strings.TrimSpace(giftID)
	if giftID == "" {
		return 0, apperror.ValidationFailed("giftId", "gift id is required")
	}

	receiver, err := s.users.GetByTelegramID(ctx, receiverTelegramID)
	if err != nil {
		return 0, err
	}

	if err := s.gifts.Open(ctx, giftID, receiver.ID, GiftOpenReward); err != nil {
		return 0, err
	}

	s.logger.Info("gift opened",
		slog.String("gift_id", giftID),
		slog.Int64("receiver_id", receiver.ID),
	)

	if err := s.stats.ApplyDelta(ctx, receiver.ID, s.season, model.StatDelta{Points: GiftOpenReward}); err != nil {
		s.logger.Warn("season stats update failed after gift open",
			slog.Int64("receiver_id", receiver.ID),
			slog.String("error", err.Error()),
		)
	}

	return GiftOpenReward, nil
}

// Inbox returns gifts received by the identified user, newest first.
func (s *GiftService) Inbox(ctx context.Context, telegramID int64) ([]model.Gift, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.gifts.ListReceived(ctx, user.ID)
}
