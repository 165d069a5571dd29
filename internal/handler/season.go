package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rustamov/gift-market/internal/auth"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/service"
)

// SeasonHandler serves the season stats, leaderboard and progress endpoints.
type SeasonHandler struct {
	seasons *service.SeasonService
	logger  *slog.Logger
}

func NewSeasonHandler(seasons *service.SeasonService, logger *slog.Logger) *SeasonHandler {
	return &SeasonHandler{seasons: seasons, logger: logger}
}

// seasonParam reads ?season=N, defaulting to the configured current season.
func (h *SeasonHandler) seasonParam(r *http.Request) int {
	if s, err := strconv.Atoi(r.URL.Query().Get("season")); err == nil && s > 0 {
		return s
	}
	return h.seasons.CurrentSeason()
}

type statsResponse struct {
	Success   bool                     `json:"success"`
	UserStats *service.UserSeasonStats `json:"userStats"`
	Global    model.SeasonSummary      `json:"globalStats"`
}

// HandleStats returns the caller's season stats plus global aggregates.
//
// HTTP: GET /api/season/stats?season=N
func (h *SeasonHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := auth.TelegramIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	report, err := h.seasons.Stats(r.Context(), telegramID, h.seasonParam(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Success:   true,
		UserStats: report.UserStats,
		Global:    report.Global,
	})
}

type leaderboardResponse struct {
	Success     bool                     `json:"success"`
	Season      int                      `json:"season"`
	Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
}

// HandleLeaderboard returns the top users of a season.
//
// HTTP: GET /api/season/leaderboard?season=N&limit=L
func (h *SeasonHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	season := h.seasonParam(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.seasons.Leaderboard(r.Context(), season, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{
		Success:     true,
		Season:      season,
		Leaderboard: entries,
	})
}

type progressResponse struct {
	Success  bool                    `json:"success"`
	Progress *service.ProgressReport `json:"progress"`
}

// HandleProgress returns the caller's blended season progress.
//
// HTTP: GET /api/season/progress?season=N
func (h *SeasonHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := auth.TelegramIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	progress, err := h.seasons.Progress(r.Context(), telegramID, h.seasonParam(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, progressResponse{Success: true, Progress: progress})
}
