package events

import (
	"context"
	"fmt"

	"github.com/dipta-sdd/campaignbay-sub002/internal/db"
)

const insertDomainEventSQL = `INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, topic, aggregate_id, payload, occurred_at`

// PostgresStore persists events into the domain_events table.
type PostgresStore struct {
	DB db.DBTX
}

// InsertDomainEvent writes ev and returns the stored row.
func (s *PostgresStore) InsertDomainEvent(ctx context.Context, ev Event) (Event, error) {
	var out Event
	var payload []byte
	err := s.DB.QueryRow(ctx, insertDomainEventSQL, ev.ID, ev.Topic, ev.AggregateID, []byte(ev.Payload), ev.OccurredAt).
		Scan(&out.ID, &out.Topic, &out.AggregateID, &payload, &out.OccurredAt)
	if err != nil {
		return Event{}, fmt.Errorf("insert domain event: %w", err)
	}
	out.Payload = payload
	return out, nil
}
