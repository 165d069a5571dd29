package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

// Points-to-level tuning. A level is every 500 points; the points progress
// bar tops out at 10000 points for the season.
const (
	pointsPerLevel    = 500
	seasonPointsGoal  = 10000
	defaultLeaderSize = 50
)

// SeasonService serves the leaderboard and per-user season read models.
// Everything here reads derived aggregates; it never mutates ownership or
// balances.
type SeasonService struct {
	users  repository.UserRepository
	stats  repository.StatsRepository
	tasks  repository.TaskRepository
	logger *slog.Logger
	season int
}

func NewSeasonService(
	users repository.UserRepository,
	stats repository.StatsRepository,
	tasks repository.TaskRepository,
	logger *slog.Logger,
	season int,
) *SeasonService {
	return &SeasonService{
		users:  users,
		stats:  stats,
		tasks:  tasks,
		logger: logger,
		season: season,
	}
}

// UserSeasonStats is a user's season row joined with display fields.
type UserSeasonStats struct {
	Season         int             `json:"season"`
	Points         int64           `json:"points"`
	Volume         decimal.Decimal `json:"volumeTon"`
	ItemsBought    int64           `json:"itemsBought"`
	ItemsSold      int64           `json:"itemsSold"`
	Referrals      int64           `json:"referrals"`
	TasksCompleted int64           `json:"tasksCompleted"`
	Rank           int64           `json:"rank"`
	Username       string          `json:"username"`
	TotalPoints    int64           `json:"totalPoints"`
	Balance        decimal.Decimal `json:"tonBalance"`
}

// StatsReport bundles the caller's season stats with the global summary.
// UserStats is nil when the user has no row for the requested season.
type StatsReport struct {
	UserStats *UserSeasonStats    `json:"userStats"`
	Global    model.SeasonSummary `json:"globalStats"`
}

// CurrentSeason returns the configured season number, used when a request
// doesn't specify one.
func (s *SeasonService) CurrentSeason() int {
	return s.season
}

// Stats assembles the caller's stats for a season plus global aggregates.
func (s *SeasonService) Stats(ctx context.Context, telegramID int64, season int) (*StatsReport, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	report := &StatsReport{}

	stat, rank, err := s.stats.UserStats(ctx, user.ID, season)
	switch {
	case err == nil:
		report.UserStats = &UserSeasonStats{
			Season:         stat.Season,
			Points:         stat.Points,
			Volume:         stat.Volume,
			ItemsBought:    stat.ItemsBought,
			ItemsSold:      stat.ItemsSold,
			Referrals:      stat.Referrals,
			TasksCompleted: stat.TasksCompleted,
			Rank:           rank,
			Username:       user.Username,
			TotalPoints:    user.Points,
			Balance:        user.Balance,
		}
	case errors.Is(err, apperror.ErrNotFound):
		// No row for this season — report global stats only.
	default:
		return nil, err
	}

	summary, err := s.stats.Summary(ctx, season)
	if err != nil {
		return nil, err
	}
	report.Global = *summary

	return report, nil
}

// Leaderboard returns the season's top users by points.
func (s *SeasonService) Leaderboard(ctx context.Context, season, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderSize
	}
	return s.stats.Leaderboard(ctx, season, limit)
}

// ProgressReport describes how far through the season a user is.
type ProgressReport struct {
	Points            int64   `json:"points"`
	Level             int64   `json:"level"`
	PointsToNextLevel int64   `json:"pointsToNextLevel"`
	TaskProgress      float64 `json:"taskProgress"`
	PointsProgress    float64 `json:"pointsProgress"`
	OverallProgress   float64 `json:"overallProgress"`
	CompletedTasks    int64   `json:"completedTasks"`
	TotalTasks        int64   `json:"totalTasks"`
	Season            int     `json:"season"`
}

// Progress blends task completion and season points into the progress view
// the Mini App renders. A user with no season row simply starts at zero.
func (s *SeasonService) Progress(ctx context.Context, telegramID int64, season int) (*ProgressReport, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	var points int64
	stat, _, err := s.stats.UserStats(ctx, user.ID, season)
	switch {
	case err == nil:
		points = stat.Points
	case errors.Is(err, apperror.ErrNotFound):
		points = 0
	default:
		return nil, err
	}

	taskProgress, err := s.tasks.Progress(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var taskPct float64
	if taskProgress.TotalTasks > 0 {
		taskPct = float64(taskProgress.CompletedTasks) / float64(taskProgress.TotalTasks) * 100
	}
	pointsPct := float64(points) / seasonPointsGoal * 100
	if pointsPct > 100 {
		pointsPct = 100
	}

	level := points/pointsPerLevel + 1

	return &ProgressReport{
		Points:            points,
		Level:             level,
		PointsToNextLevel: level*pointsPerLevel - points,
		TaskProgress:      taskPct,
		PointsProgress:    pointsPct,
		OverallProgress:   (taskPct + pointsPct) / 2,
		CompletedTasks:    taskProgress.CompletedTasks,
		TotalTasks:        taskProgress.TotalTasks,
		Season:            season,
	}, nil
}
