package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Activity is one applied command.
type Activity struct {
	ID         int64               `json:"id"`
	Command    string              `json:"command"`
	StudentID  string              `json:"studentId,omitempty"`
	Amount     decimal.NullDecimal `json:"amount"`
	Summary    string              `json:"summary"`
	OccurredAt time.Time           `json:"occurredAt"`
}

// ActivityLog manages the activity_log and metadata tables.
type ActivityLog struct {
	conn *Connection
}

// NewActivityLog creates a new ActivityLog instance.
func NewActivityLog(conn *Connection) *ActivityLog {
	return &ActivityLog{conn: conn}
}

// Record appends an activity.
func (l *ActivityLog) Record(ctx context.Context, a Activity) error {
	query := `
		INSERT INTO activity_log (command, student_id, amount, summary, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`

	var amount sql.NullString
	if a.Amount.Valid {
		amount = sql.NullString{String: a.Amount.Decimal.StringFixed(2), Valid: true}
	}

	_, err := l.conn.ExecContext(ctx, query,
		a.Command,
		sql.NullString{String: a.StudentID, Valid: a.StudentID != ""},
		amount,
		a.Summary,
		a.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	return nil
}

// Recent returns the latest activities, newest first.
func (l *ActivityLog) Recent(ctx context.Context, limit int) ([]Activity, error) {
	query := `
		SELECT id, command, student_id, amount, summary, occurred_at
		FROM activity_log
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`

	rows, err := l.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		var studentID, amount sql.NullString

		if err := rows.Scan(&a.ID, &a.Command, &studentID, &amount, &a.Summary, &a.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		a.StudentID = studentID.String
		if amount.Valid {
			d, err := decimal.NewFromString(amount.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse activity amount: %w", err)
			}
			a.Amount = decimal.NewNullDecimal(d)
		}
		activities = append(activities, a)
	}

	return activities, rows.Err()
}

// Stats represents activity statistics.
type Stats struct {
	TotalActivities int             `json:"totalActivities"`
	ByCommand       map[string]int  `json:"byCommand"`
	Collected       decimal.Decimal `json:"collected"`
	LastActivity    sql.NullTime    `json:"-"`
	// LastBackup is the RFC 3339 time of the latest backup export, if any.
	LastBackup string `json:"lastBackup,omitempty"`
}

// collectingCommands are the commands whose amount is money received.
var collectingCommands = []any{"settle-charges", "settle-lines", "apply-discount"}

// GetStats retrieves activity statistics.
func (l *ActivityLog) GetStats(ctx context.Context) (*Stats, error) {
	stats := Stats{ByCommand: make(map[string]int)}

	rows, err := l.conn.QueryContext(ctx, `SELECT command, COUNT(*) FROM activity_log GROUP BY command`)
	if err != nil {
		return nil, fmt.Errorf("failed to count activities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var command string
		var n int
		if err := rows.Scan(&command, &n); err != nil {
			return nil, fmt.Errorf("failed to scan activity count: %w", err)
		}
		stats.ByCommand[command] = n
		stats.TotalActivities += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Amounts are decimal strings, summed here rather than in SQL to keep
	// exact cents.
	amounts, err := l.conn.QueryContext(ctx,
		`SELECT amount FROM activity_log WHERE amount IS NOT NULL AND command IN (?, ?, ?)`,
		collectingCommands...)
	if err != nil {
		return nil, fmt.Errorf("failed to get collected amounts: %w", err)
	}
	defer amounts.Close()

	for amounts.Next() {
		var s string
		if err := amounts.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan amount: %w", err)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}
		stats.Collected = stats.Collected.Add(d)
	}
	if err := amounts.Err(); err != nil {
		return nil, err
	}

	var last sql.NullString
	err = l.conn.QueryRowContext(ctx, `SELECT MAX(occurred_at) FROM activity_log`).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get last activity time: %w", err)
	}
	if last.Valid {
		t, err := parseTimestamp(last.String)
		if err != nil {
			return nil, err
		}
		stats.LastActivity = sql.NullTime{Time: t, Valid: true}
	}

	if stats.LastBackup, err = l.GetMetadata(ctx, LastBackupKey); err != nil {
		return nil, err
	}

	return &stats, nil
}

// LastBackupKey is the metadata key written on every backup export.
const LastBackupKey = "last_backup"

// RecordBackup stores the time of a backup export.
func (l *ActivityLog) RecordBackup(ctx context.Context, at time.Time) error {
	return l.SetMetadata(ctx, LastBackupKey, at.UTC().Format(time.RFC3339))
}

// GetMetadata retrieves a metadata value.
func (l *ActivityLog) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := l.conn.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (l *ActivityLog) SetMetadata(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := l.conn.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}

// MAX() loses the column type, so the driver hands back the stored text.
func parseTimestamp(s string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp %q", s)
}
