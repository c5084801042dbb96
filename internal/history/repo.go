package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"readlist/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Add(ctx context.Context, entry models.ProgressEntry) error {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO progress_history (title, action, progress, status, date, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Title, string(entry.Action), entry.Progress, string(entry.Status), entry.Date, entry.At)
	if err != nil {
		return fmt.Errorf("insert progress history: %w", err)
	}
	return nil
}

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Page normalizes paging input: a limit outside 1..MaxLimit becomes
// DefaultLimit, a negative offset becomes 0.
func Page(limit, offset int) (int, int) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List returns the newest entries for one title first, plus the total count.
func (r *Repo) List(ctx context.Context, title string, limit, offset int) ([]models.ProgressEntry, int, error) {
	limit, offset = Page(limit, offset)

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM progress_history WHERE title = ?
	`, title).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count progress history: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, title, action, progress, status, date, at
		FROM progress_history
		WHERE title = ?
		ORDER BY at DESC, id DESC
		LIMIT ? OFFSET ?
	`, title, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list progress history: %w", err)
	}
	defer rows.Close()

	out, err := scanEntries(rows, limit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// All returns the whole journal oldest first.
func (r *Repo) All(ctx context.Context) ([]models.ProgressEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, title, action, progress, status, date, at
		FROM progress_history
		ORDER BY at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list progress history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows, 0)
}

func scanEntries(rows *sql.Rows, capHint int) ([]models.ProgressEntry, error) {
	out := make([]models.ProgressEntry, 0, capHint)
	for rows.Next() {
		var (
			entry          models.ProgressEntry
			action, status string
			at             time.Time
		)
		if err := rows.Scan(&entry.ID, &entry.Title, &action, &entry.Progress, &status, &entry.Date, &at); err != nil {
			return nil, fmt.Errorf("scan progress history: %w", err)
		}
		entry.Action = models.Action(action)
		entry.Status = models.Status(status)
		entry.At = at.UTC()
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows progress history: %w", err)
	}
	return out, nil
}
