package model

import "time"

// Task types.
const (
	TaskDaily       = "daily"
	TaskWeekly      = "weekly"
	TaskSeason      = "season"
	TaskAchievement = "achievement"
)

// Task is a points-earning activity shown to users during a season.
type Task struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PointsReward int64     `json:"pointsReward"`
	Type         string    `json:"type"`
	Requirement  string    `json:"requirement,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TaskProgress summarises a user's task completion within a season.
type TaskProgress struct {
	CompletedTasks int64 `json:"completedTasks"`
	TotalTasks     int64 `json:"totalTasks"`
}
