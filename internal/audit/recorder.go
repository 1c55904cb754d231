package audit

import (
	"context"
	"encoding/json"
	"fmt"

	id "turfops/pkg/domain"
	"turfops/pkg/requestcontext"
)

// Store persists audit events. Implementations must honor a transaction
// carried in the context so events commit or roll back with the mutation
// they document.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]Event, error)
}

// Recorder is the single write path for audit events. It is append-only and
// delegates persistence to the store so tests can swap sinks easily.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends one event documenting a state-changing action. The payload
// is serialized at this boundary; callers pass one of the typed snapshot
// shapes rather than an open-ended bag. Call inside the same transaction as
// the mutation — never before it.
func (r *Recorder) Record(ctx context.Context, actorID id.UserID, action Action, payload any) (*Event, error) {
	var metadata json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal audit payload: %w", err)
		}
		metadata = raw
	}
	event := Event{
		ID:        id.NewEventID(),
		Scope:     action.Scope,
		Verb:      action.Verb,
		Action:    action.Code(),
		ActorID:   actorID,
		Metadata:  metadata,
		Timestamp: requestcontext.Now(ctx),
	}
	if err := r.store.Append(ctx, event); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListRecent returns the N most recent events, newest first.
func (r *Recorder) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return r.store.ListRecent(ctx, limit)
}

// ListByActor returns events recorded by a specific actor, newest first.
func (r *Recorder) ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]Event, error) {
	return r.store.ListByActor(ctx, actorID, limit)
}
