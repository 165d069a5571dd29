package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rustamov/gift-market/internal/auth"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/service"
)

// AuthHandler implements the Telegram login endpoint.
type AuthHandler struct {
	verifier *auth.TelegramVerifier
	tokens   *auth.TokenService
	identity *service.IdentityService
	logger   *slog.Logger
}

func NewAuthHandler(
	verifier *auth.TelegramVerifier,
	tokens *auth.TokenService,
	identity *service.IdentityService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		verifier: verifier,
		tokens:   tokens,
		identity: identity,
		logger:   logger,
	}
}

type loginRequest struct {
	InitData string `json:"initData"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
	IsNew bool        `json:"isNew"`
}

// HandleTelegramLogin validates initData, upserts the account, and issues a
// JWT.
//
// HTTP: POST /api/auth/telegram
// REQUEST BODY: {"initData": "<raw initData string>"}
func (h *AuthHandler) HandleTelegramLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	profile, err := h.verifier.Verify(req.InitData)
	if err != nil {
		// Signature or freshness failure — deliberately unspecific.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "invalid telegram init data",
		})
		return
	}

	user, isNew, err := h.identity.Login(r.Context(), *profile)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.Generate(user.TelegramID)
	if err != nil {
		h.logger.Error("token generation failed",
			slog.Int64("telegram_id", user.TelegramID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  user,
		IsNew: isNew,
	})
}
