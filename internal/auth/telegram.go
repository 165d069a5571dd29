// Package auth verifies Telegram Mini App identities and issues JWT access
// tokens.
//
// LOGIN FLOW:
// 1. The Mini App sends the raw initData string Telegram injected into it.
// 2. We verify the HMAC signature against the bot token and check freshness
//    (init-data-golang implements the documented algorithm).
// 3. The embedded user profile is upserted and a JWT keyed by the Telegram
//    user id is returned.
// 4. Subsequent API calls carry the JWT as a Bearer token; middleware
//    validates it and puts the Telegram id in the request context.
//
// Every core operation trusts the identity the middleware resolved — nothing
// downstream re-validates signatures.
package auth

import (
	"errors"
	"fmt"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/rustamov/gift-market/internal/model"
)

// initDataMaxAge bounds how old a signed initData payload may be. Telegram
// signs a timestamp into the payload; replaying a very old one is rejected.
const initDataMaxAge = 24 * time.Hour

// ErrInvalidInitData is returned for any signature, freshness, or shape
// problem with the supplied initData. Handlers map it to 401.
var ErrInvalidInitData = errors.New("auth: invalid telegram init data")

// TelegramVerifier validates Mini App initData against the bot token.
type TelegramVerifier struct {
	botToken string
}

func NewTelegramVerifier(botToken string) (*TelegramVerifier, error) {
	if botToken == "" {
		return nil, errors.New("auth: telegram bot token is required")
	}
	return &TelegramVerifier{botToken: botToken}, nil
}

// Verify checks the initData signature and returns the embedded user profile.
// The returned profile is the only trusted identity source in the system.
func (v *TelegramVerifier) Verify(raw string) (*model.TelegramProfile, error) {
	if raw == "" {
		return nil, ErrInvalidInitData
	}

	if err := initdata.Validate(raw, v.botToken, initDataMaxAge); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInitData, err)
	}

	data, err := initdata.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInitData, err)
	}
	if data.User.ID == 0 {
		return nil, fmt.Errorf("%w: no user in payload", ErrInvalidInitData)
	}

	return &model.TelegramProfile{
		TelegramID:   data.User.ID,
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		Username:     data.User.Username,
		LanguageCode: data.User.LanguageCode,
		IsPremium:    data.User.IsPremium,
	}, nil
}
