package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rustamov/gift-market/internal/auth"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/service"
)

// MarketHandler serves the item catalogue and the buy endpoint.
type MarketHandler struct {
	market *service.MarketService
	logger *slog.Logger
}

func NewMarketHandler(market *service.MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{market: market, logger: logger}
}

type listItemsResponse struct {
	Success bool         `json:"success"`
	Items   []model.Item `json:"items"`
}

// HandleListItems returns the whole catalogue.
//
// HTTP: GET /api/items/list
func (h *MarketHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.market.ListItems(r.Context())
	if err != nil {
		h.logger.Error("listing items failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}

	writeJSON(w, http.StatusOK, listItemsResponse{Success: true, Items: items})
}

type buyRequest struct {
	ItemID string `json:"itemId"`
}

type buyResponse struct {
	Success    bool            `json:"success"`
	NewBalance decimal.Decimal `json:"newBalance"`
	Item       model.Item      `json:"item"`
}

// HandleBuy purchases an item for the authenticated user.
//
// HTTP: POST /api/nft/buy
// REQUEST BODY: {"itemId": "item_42"}
//
// The response reflects the committed state: the balance after the debit and
// the item with its new owner. Every rejection (404/400/409) leaves balance
// and ownership exactly as before the attempt.
func (h *MarketHandler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := auth.TelegramIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	receipt, err := h.market.Purchase(r.Context(), telegramID, req.ItemID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, buyResponse{
		Success:    true,
		NewBalance: receipt.NewBalance,
		Item:       receipt.Item,
	})
}
