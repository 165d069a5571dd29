// Package service contains the business logic layer: the purchase and gift
// transfer engines, identity resolution, and the season/task read models.
//
// Services receive repository interfaces (not the concrete sqlite type) and a
// logger. They validate input, orchestrate storage calls, and return domain
// errors from internal/apperror; handlers translate those to HTTP. Nothing in
// this package knows about HTTP or SQL.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

// IdentityService maps verified Telegram identities to marketplace accounts.
// The identity it receives has already been signature-checked by the auth
// layer; it is trusted here.
type IdentityService struct {
	users  repository.UserRepository
	logger *slog.Logger
	season int
}

func NewIdentityService(users repository.UserRepository, logger *slog.Logger, season int) *IdentityService {
	return &IdentityService{
		users:  users,
		logger: logger,
		season: season,
	}
}

// Login upserts the account for a verified Telegram profile. First login
// creates the account with its starting balance, points and current-season
// stats row; later logins refresh the profile and last_seen.
func (s *IdentityService) Login(ctx context.Context, profile model.TelegramProfile) (*model.User, bool, error) {
	if profile.TelegramID == 0 {
		return nil, false, apperror.ValidationFailed("telegramId", "telegram user id is required")
	}

	user, isNew, err := s.users.Upsert(ctx, profile, s.season)
	if err != nil {
		s.logger.Error("login upsert failed",
			slog.Int64("telegram_id", profile.TelegramID),
			slog.String("error", err.Error()),
		)
		return nil, false, fmt.Errorf("upserting user: %w", err)
	}

	if isNew {
		s.logger.Info("user registered",
			slog.Int64("user_id", user.ID),
			slog.Int64("telegram_id", user.TelegramID),
		)
	}

	return user, isNew, nil
}

// Resolve returns the account for an external Telegram identity.
// Returns apperror.ErrNotFound for an identity that never logged in.
func (s *IdentityService) Resolve(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.users.GetByTelegramID(ctx, telegramID)
}
