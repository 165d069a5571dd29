package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

// TaskService serves the season task list and completion flow.
type TaskService struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	stats  repository.StatsRepository
	logger *slog.Logger
	season int
}

func NewTaskService(
	users repository.UserRepository,
	tasks repository.TaskRepository,
	stats repository.StatsRepository,
	logger *slog.Logger,
	season int,
) *TaskService {
	return &TaskService{
		users:  users,
		tasks:  tasks,
		stats:  stats,
		logger: logger,
		season: season,
	}
}

// List returns the active tasks.
func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.tasks.ListActive(ctx)
}

// Complete marks a task done for the identified user and credits the reward.
// Repeat completions return ErrConflict and credit nothing — the (user, task)
// primary key in storage is the idempotency guard.
func (s *TaskService) Complete(ctx context.Context, telegramID int64, taskID string) (*model.Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, apperror.ValidationFailed("taskId", "task id is required")
	}

	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.GetActive(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Complete(ctx, user.ID, task); err != nil {
		return nil, err
	}

	s.logger.Info("task completed",
		slog.Int64("user_id", user.ID),
		slog.String("task_id", task.ID),
		slog.Int64("reward", task.PointsReward),
	)

	delta := model.StatDelta{Points: task.PointsReward, TasksCompleted: 1}
	if err := s.stats.ApplyDelta(ctx, user.ID, s.season, delta); err != nil {
		s.logger.Warn("season stats update failed after task completion",
			slog.Int64("user_id", user.ID),
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()),
		)
	}

	return task, nil
}
