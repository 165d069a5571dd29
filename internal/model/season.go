package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeasonStat accumulates a user's activity within one competitive season.
// Keyed by (UserID, Season).
//
// These rows are derived aggregates, not authoritative state: purchases and
// transfers update them best-effort AFTER the ownership/balance transaction
// has committed. A missed update skews the leaderboard, never ownership or
// money.
type SeasonStat struct {
	UserID         int64           `json:"userId"`
	Season         int             `json:"season"`
	Points         int64           `json:"points"`
	Volume         decimal.Decimal `json:"volumeTon"`
	ItemsBought    int64           `json:"itemsBought"`
	ItemsSold      int64           `json:"itemsSold"`
	Referrals      int64           `json:"referrals"`
	TasksCompleted int64           `json:"tasksCompleted"`
	LastUpdated    time.Time       `json:"lastUpdated"`
}

// StatDelta is an incremental aggregate update applied by the stats updater.
// Zero-valued fields leave the corresponding counter unchanged.
type StatDelta struct {
	Points         int64
	Volume         decimal.Decimal
	ItemsBought    int64
	ItemsSold      int64
	TasksCompleted int64
}

// LeaderboardEntry is one row of the season leaderboard, already joined with
// the user's display fields.
type LeaderboardEntry struct {
	Position    int64           `json:"position"`
	Username    string          `json:"username"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Points      int64           `json:"points"`
	Volume      decimal.Decimal `json:"volumeTon"`
	ItemsBought int64           `json:"itemsBought"`
	ItemsSold   int64           `json:"itemsSold"`
	Badge       string          `json:"badge"` // "premium" or "regular"
}

// SeasonSummary aggregates a whole season across all participants.
type SeasonSummary struct {
	Season            int             `json:"season"`
	TotalParticipants int64           `json:"totalParticipants"`
	TotalPoints       int64           `json:"totalPoints"`
	TotalVolume       decimal.Decimal `json:"totalVolume"`
}
