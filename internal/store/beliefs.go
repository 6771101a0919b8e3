package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Belief is one key/value conviction the assistant maintains about its
// user or environment.
type Belief struct {
	Key       string
	Value     string
	UpdatedAt int64
}

// Goal is a tracked objective with a coarse status and priority.
type Goal struct {
	ID        int64
	Title     string
	Status    string
	Priority  int
	DueAt     *int64
	CreatedAt int64
}

// SetBelief inserts or replaces a belief.
func (s *DB) SetBelief(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO beliefs(key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, nowMs())
	if err != nil {
		return fmt.Errorf("set belief: %w", err)
	}
	return nil
}

// GetBelief returns the belief for key; ok is false when none is stored.
func (s *DB) GetBelief(ctx context.Context, key string) (Belief, bool, error) {
	var b Belief
	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM beliefs WHERE key = ?`, key).
		Scan(&b.Key, &b.Value, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return Belief{}, false, nil
	}
	if err != nil {
		return Belief{}, false, fmt.Errorf("get belief: %w", err)
	}
	return b, true, nil
}

// AddGoal records a new goal with status "open".
func (s *DB) AddGoal(ctx context.Context, title string, priority int, dueAt *int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO goals(title, status, priority, due_at, created_at)
		VALUES (?, 'open', ?, ?, ?)`,
		title, priority, dueAt, nowMs())
	if err != nil {
		return 0, fmt.Errorf("add goal: %w", err)
	}
	return res.LastInsertId()
}

// ListGoals returns goals with the given status, highest priority first.
// An empty status lists everything.
func (s *DB) ListGoals(ctx context.Context, status string) ([]Goal, error) {
	q := `SELECT id, title, status, priority, due_at, created_at FROM goals`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY priority DESC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []Goal
	for rows.Next() {
		var g Goal
		var due sql.NullInt64
		if err := rows.Scan(&g.ID, &g.Title, &g.Status, &g.Priority, &due, &g.CreatedAt); err != nil {
			return nil, err
		}
		if due.Valid {
			g.DueAt = &due.Int64
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SetGoalStatus updates a goal's status (open, done, dropped).
func (s *DB) SetGoalStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE goals SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set goal status: %w", err)
	}
	return nil
}
