package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for the activity log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// BatchInsert writes a slice of events to the database in a single multi-row
// INSERT statement. It is a no-op when events is empty.
func (s *Store) BatchInsert(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	const cols = 7 // columns per row (excluding server-generated id)
	args := make([]any, 0, len(events)*cols)
	rows := make([]string, 0, len(events))

	for i, ev := range events {
		base := i * cols
		rows = append(rows, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args,
			ev.UserID,
			ev.UserRole,
			ev.Action,
			ev.EntityID,
			ev.Timestamp,
			ev.Success,
			ev.Detail,
		)
	}

	query := `INSERT INTO activity_events
		(user_id, user_role, action, entity_id, timestamp, success, detail)
		VALUES ` + strings.Join(rows, ", ")

	_, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("batch inserting activity events: %w", err)
	}

	return nil
}

// ListForUser returns a user's most recent events, newest first.
func (s *Store) ListForUser(ctx context.Context, userID string, limit int) ([]*Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, user_role, action, entity_id, timestamp, success, detail
		 FROM activity_events
		 WHERE user_id = $1
		 ORDER BY timestamp DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		ev := &Event{}
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.UserRole, &ev.Action,
			&ev.EntityID, &ev.Timestamp, &ev.Success, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scanning activity event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
