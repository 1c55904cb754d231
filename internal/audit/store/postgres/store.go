package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"turfops/internal/audit"
	id "turfops/pkg/domain"
	txcontext "turfops/pkg/platform/tx"
)

// Store persists audit events in PostgreSQL. Alongside every event an outbox
// row is written so the relay can publish committed events to Kafka; both
// inserts ride the caller's transaction and vanish together on rollback.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes one immutable audit event plus its outbox entry.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	execer := s.execer(ctx)

	query := `
		INSERT INTO audit_events (id, scope, verb, action, actor_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := execer.ExecContext(ctx, query,
		uuid.UUID(event.ID),
		string(event.Scope),
		string(event.Verb),
		event.Action,
		uuid.UUID(event.ActorID),
		nullableJSON(event.Metadata),
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	outbox := `
		INSERT INTO outbox (id, event_id, topic, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	payload, err := encodeOutboxPayload(event)
	if err != nil {
		return err
	}
	_, err = execer.ExecContext(ctx, outbox,
		uuid.New(),
		uuid.UUID(event.ID),
		audit.OutboxTopic,
		payload,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, scope, verb, action, actor_id, metadata, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListByActor returns events recorded by a specific actor.
func (s *Store) ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, scope, verb, action, actor_id, metadata, created_at
		FROM audit_events
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(actorID), limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			eventID  uuid.UUID
			scope    string
			verb     string
			actorID  uuid.UUID
			metadata []byte
		)
		err := rows.Scan(&eventID, &scope, &verb, &event.Action, &actorID, &metadata, &event.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = id.EventID(eventID)
		event.Scope = audit.Scope(scope)
		event.Verb = audit.Verb(verb)
		event.ActorID = id.UserID(actorID)
		event.Metadata = metadata
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// audit.Event so the relay can forward bytes without re-deserializing.
type outboxPayload struct {
	ID        string          `json:"id"`
	Scope     string          `json:"scope"`
	Verb      string          `json:"verb"`
	Action    string          `json:"action"`
	ActorID   string          `json:"actor_id"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func encodeOutboxPayload(event audit.Event) ([]byte, error) {
	raw, err := json.Marshal(outboxPayload{
		ID:        event.ID.String(),
		Scope:     string(event.Scope),
		Verb:      string(event.Verb),
		Action:    event.Action,
		ActorID:   event.ActorID.String(),
		Metadata:  event.Metadata,
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload: %w", err)
	}
	return raw, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
