package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"eta_monitor/internal/models"

	"github.com/google/uuid"
)

type JournalSQLite struct {
	db *sql.DB
}

func NewJournalSQLite(db *sql.DB) *JournalSQLite { return &JournalSQLite{db: db} }

var _ JournalRepo = (*JournalSQLite)(nil)

const (
	insertLogSQL = `INSERT INTO sync_log (id, occurred_at, severity, message) VALUES (?, ?, ?, ?)`

	pruneLogSQL = `
		DELETE FROM sync_log WHERE id NOT IN (
			SELECT id FROM sync_log ORDER BY occurred_at DESC LIMIT ?
		)
	`

	clearLogSQL = `DELETE FROM sync_log`
)

// Append inserts a log entry. Missing ID or timestamp are filled in.
func (r *JournalSQLite) Append(ctx context.Context, e models.LogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	} else {
		e.Timestamp = e.Timestamp.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertLogSQL,
		e.ID,
		e.Timestamp,
		strings.ToLower(strings.TrimSpace(string(e.Severity))),
		e.Message,
	)
	if err != nil {
		return fmt.Errorf("insert sync log %s: %w", e.ID, err)
	}
	return nil
}

// List returns entries within [from, to] (zero bounds are open) and of the
// given severity (empty matches all), newest first.
func (r *JournalSQLite) List(ctx context.Context, from, to time.Time, severity models.Severity) ([]models.LogEntry, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if sev := strings.ToLower(strings.TrimSpace(string(severity))); sev != "" {
		conds = append(conds, "severity = ?")
		args = append(args, sev)
	}

	q := `SELECT id, occurred_at, severity, message FROM sync_log`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sync log: %w", err)
	}
	defer rows.Close()

	out := make([]models.LogEntry, 0, 64)
	for rows.Next() {
		var (
			e   models.LogEntry
			sev string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &sev, &e.Message); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		e.Severity = models.Severity(sev)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune keeps only the newest keep entries.
func (r *JournalSQLite) Prune(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	if _, err := r.db.ExecContext(ctx, pruneLogSQL, keep); err != nil {
		return fmt.Errorf("prune sync log: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (r *JournalSQLite) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, clearLogSQL); err != nil {
		return fmt.Errorf("clear sync log: %w", err)
	}
	return nil
}
