package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/repository"
)

var _ repository.TaskRepository = (*DB)(nil)

const selectTaskColumns = `
	SELECT id, title, description, points_reward, type, requirement, is_active, created_at
	FROM tasks`

// ListActive returns tasks currently offered to users.
func (db *DB) ListActive(ctx context.Context) ([]model.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		selectTaskColumns+` WHERE is_active = 1 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.PointsReward,
			&t.Type, &t.Requirement, &t.IsActive, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}

	return tasks, nil
}

// GetActive fetches one task, treating inactive tasks as absent.
func (db *DB) GetActive(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	err := db.conn.QueryRowContext(ctx,
		selectTaskColumns+` WHERE id = ? AND is_active = 1`, id,
	).Scan(
		&t.ID, &t.Title, &t.Description, &t.PointsReward,
		&t.Type, &t.Requirement, &t.IsActive, &t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}
	return &t, nil
}

// Complete records a task completion and credits the reward, atomically.
//
// A SELECT-then-INSERT check would let two concurrent completions both pass
// the check and double-credit. INSERT OR IGNORE against the (user_id,
// task_id) primary key makes the constraint the arbiter: only the insert
// that actually lands credits points.
func (db *DB) Complete(ctx context.Context, userID int64, task *model.Task) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning completion tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_tasks (user_id, task_id, completed, completed_at)
		 VALUES (?, ?, 1, ?)`,
		userID, task.ID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording task completion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking completion rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.Conflict("task already completed")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET points = points + ? WHERE id = ?`,
		task.PointsReward, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: crediting task reward: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing completion: %w", err)
	}
	return nil
}

// Progress counts active tasks and how many of them the user completed.
func (db *DB) Progress(ctx context.Context, userID int64) (*model.TaskProgress, error) {
	var p model.TaskProgress
	err := db.conn.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM tasks WHERE is_active = 1),
		   (SELECT COUNT(*) FROM user_tasks ut
		      JOIN tasks t ON t.id = ut.task_id
		     WHERE ut.user_id = ? AND ut.completed = 1 AND t.is_active = 1)`,
		userID,
	).Scan(&p.TotalTasks, &p.CompletedTasks)
	if err != nil {
		return nil, fmt.Errorf("sqlite: computing task progress: %w", err)
	}
	return &p, nil
}
