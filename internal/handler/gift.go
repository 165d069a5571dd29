package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rustamov/gift-market/internal/auth"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/service"
)

// GiftHandler serves gift sending, opening, and the inbox.
type GiftHandler struct {
	gifts  *service.GiftService
	logger *slog.Logger
}

func NewGiftHandler(gifts *service.GiftService, logger *slog.Logger) *GiftHandler {
	return &GiftHandler{gifts: gifts, logger: logger}
}

type sendGiftRequest struct {
	ItemID             string `json:"itemId"`
	ReceiverTelegramID int64  `json:"receiverTelegramId"`
	Message            string `json:"message"`
}

type sendGiftResponse struct {
	Success bool   `json:"success"`
	GiftID  string `json:"giftId"`
}

// HandleSend transfers an owned item to another user as a gift.
//
// HTTP: POST /api/gifts/send
// REQUEST BODY: {"itemId": "item_42", "receiverTelegramId": 12345, "message": "hi"}
func (h *GiftHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := auth.TelegramIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	var req sendGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	giftID, err := h.gifts.Send(r.Context(), telegramID, req.ItemID, req.ReceiverTelegramID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendGiftResponse{Success: true, GiftID: giftID})
}

type openGiftRequest struct {
	GiftID string `json:"giftId"`
}

type openGiftResponse struct {
	Success       bool  `json:"success"`
	PointsAwarded int64 `json:"pointsAwarded"`
}

// HandleOpen opens a received gift and credits the point award.
//
// HTTP: POST /api/gifts/open
// REQUEST BODY: {"giftId": "gift_..."}
//
// Second and later calls for the same gift return 409 with no further award.
func (h *GiftHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := auth.TelegramIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	var req openGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	points, err := h.gifts.Open(r.Context(), telegramID, req.GiftID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, openGiftResponse{Success: true, PointsAwarded: points})
}

type inboxResponse struct {
	Success bool         `json:"success"`
	Gifts   []model.Gift `json:"gifts"`
}

// HandleInbox lists gifts received by the authenticated user, newest first.
//
// HTTP: GET /api/gifts/inbox
func (h *GiftHandler) HandleInbox(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := auth.TelegramIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	gifts, err := h.gifts.Inbox(r.Context(), telegramID)
	if err != nil {
		writeError(w, err)
		return
	}
	if gifts == nil {
		gifts = []model.Gift{}
	}

	writeJSON(w, http.StatusOK, inboxResponse{Success: true, Gifts: gifts})
}
