package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

var _ repository.StatsRepository = (*DB)(nil)

// ApplyDelta increments the (user, season) aggregate row.
//
// The row normally exists (seeded at first login), but a user created before
// the current season began won't have one — the upsert covers that. These
// writes are best-effort from the caller's point of view: they run after the
// owning transaction committed and are never part of it.
func (db *DB) ApplyDelta(ctx context.Context, userID int64, season int, delta model.StatDelta) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO season_stats
		   (user_id, season_number, points, volume_ton, items_bought, items_sold,
		    tasks_completed, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, season_number) DO UPDATE SET
		   points          = points + excluded.points,
		   volume_ton      = volume_ton + excluded.volume_ton,
		   items_bought    = items_bought + excluded.items_bought,
		   items_sold      = items_sold + excluded.items_sold,
		   tasks_completed = tasks_completed + excluded.tasks_completed,
		   last_updated    = excluded.last_updated`,
		userID,
		season,
		delta.Points,
		delta.Volume.InexactFloat64(),
		delta.ItemsBought,
		delta.ItemsSold,
		delta.TasksCompleted,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: applying stat delta for user %d season %d: %w", userID, season, err)
	}
	return nil
}

// UserStats returns the user's season aggregates plus their points rank.
// Rank is computed as "users with strictly more points" + 1, so ties share
// the better rank.
func (db *DB) UserStats(ctx context.Context, userID int64, season int) (*model.SeasonStat, int64, error) {
	var (
		s      model.SeasonStat
		volume float64
		rank   int64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT s.user_id, s.season_number, s.points, s.volume_ton, s.items_bought,
		        s.items_sold, s.referrals, s.tasks_completed, s.last_updated,
		        (SELECT COUNT(*) FROM season_stats ss
		          WHERE ss.points > s.points AND ss.season_number = s.season_number) + 1
		 FROM season_stats s
		 WHERE s.user_id = ? AND s.season_number = ?`,
		userID, season,
	).Scan(
		&s.UserID,
		&s.Season,
		&s.Points,
		&volume,
		&s.ItemsBought,
		&s.ItemsSold,
		&s.Referrals,
		&s.TasksCompleted,
		&s.LastUpdated,
		&rank,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, apperror.NotFound("season stats", fmt.Sprintf("user %d season %d", userID, season))
		}
		return nil, 0, fmt.Errorf("sqlite: getting season stats: %w", err)
	}
	s.Volume = decimal.NewFromFloat(volume)
	return &s, rank, nil
}

// Leaderboard returns the top users of a season by points.
func (db *DB) Leaderboard(ctx context.Context, season, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT ROW_NUMBER() OVER (ORDER BY s.points DESC),
		        u.username, u.first_name, u.last_name,
		        s.points, s.volume_ton, s.items_bought, s.items_sold,
		        CASE WHEN u.is_premium = 1 THEN 'premium' ELSE 'regular' END
		 FROM season_stats s
		 JOIN users u ON s.user_id = u.id
		 WHERE s.season_number = ?
		 ORDER BY s.points DESC
		 LIMIT ?`,
		season, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]model.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var (
			e      model.LeaderboardEntry
			volume float64
		)
		if err := rows.Scan(
			&e.Position,
			&e.Username,
			&e.FirstName,
			&e.LastName,
			&e.Points,
			&volume,
			&e.ItemsBought,
			&e.ItemsSold,
			&e.Badge,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		e.Volume = decimal.NewFromFloat(volume)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard: %w", err)
	}

	return entries, nil
}

// Summary aggregates a season across all participants. A season with no
// activity yields a zero-valued summary, not an error.
func (db *DB) Summary(ctx context.Context, season int) (*model.SeasonSummary, error) {
	var (
		summary model.SeasonSummary
		volume  float64
	)
	summary.Season = season

	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT user_id),
		        COALESCE(SUM(points), 0),
		        COALESCE(SUM(volume_ton), 0)
		 FROM season_stats
		 WHERE season_number = ?`,
		season,
	).Scan(&summary.TotalParticipants, &summary.TotalPoints, &volume)
	if err != nil {
		return nil, fmt.Errorf("sqlite: summarising season %d: %w", season, err)
	}
	summary.TotalVolume = decimal.NewFromFloat(volume)

	return &summary, nil
}
