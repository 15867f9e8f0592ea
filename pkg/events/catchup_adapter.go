package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLCatchupQuerier implements CatchupQuerier directly against the events
// table, for callers that don't go through a higher-level service layer.
type SQLCatchupQuerier struct {
	db *sql.DB
}

// NewSQLCatchupQuerier creates a CatchupQuerier backed by db.
func NewSQLCatchupQuerier(db *sql.DB) *SQLCatchupQuerier {
	return &SQLCatchupQuerier{db: db}
}

// GetCatchupEvents returns events on channel with id > sinceID, oldest
// first, capped at limit rows.
func (q *SQLCatchupQuerier) GetCatchupEvents(ctx context.Context, channel string, sinceID, limit int) ([]CatchupEvent, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, payload FROM events WHERE channel = $1 AND id > $2 ORDER BY id ASC LIMIT $3`,
		channel, sinceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query catchup events: %w", err)
	}
	defer rows.Close()

	var result []CatchupEvent
	for rows.Next() {
		var id int
		var payloadJSON []byte
		if err := rows.Scan(&id, &payloadJSON); err != nil {
			return nil, fmt.Errorf("scan catchup event: %w", err)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(payloadJSON, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal catchup event payload: %w", err)
		}
		result = append(result, CatchupEvent{ID: id, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catchup events: %w", err)
	}

	return result, nil
}
