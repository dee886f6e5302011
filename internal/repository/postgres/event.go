package postgres

import (
	"context"
	"database/sql"

	"aventon/internal/domain"
)

// TripEventRepository is a PostgreSQL implementation of
// repository.TripEventRepository.
type TripEventRepository struct {
	q Querier
}

// NewTripEventRepository creates a new PostgreSQL trip event repository.
func NewTripEventRepository(db *sql.DB) *TripEventRepository {
	return &TripEventRepository{q: db}
}

// Append stores a new trip event.
func (r *TripEventRepository) Append(ctx context.Context, event *domain.TripEvent) error {
	query := `
		INSERT INTO trip_events (id, trip_id, type, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		event.ID,
		event.TripID,
		event.Type,
		event.Detail,
		event.CreatedAt,
	)

	return err
}

// ListByTripID returns a trip's events, oldest first.
func (r *TripEventRepository) ListByTripID(ctx context.Context, tripID string) ([]*domain.TripEvent, error) {
	query := `
		SELECT id, trip_id, type, detail, created_at
		FROM trip_events WHERE trip_id = $1 ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.TripEvent
	for rows.Next() {
		var event domain.TripEvent
		if err := rows.Scan(
			&event.ID,
			&event.TripID,
			&event.Type,
			&event.Detail,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
