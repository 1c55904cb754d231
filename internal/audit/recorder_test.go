package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turfops/internal/audit"
	auditmemory "turfops/internal/audit/store/memory"
	id "turfops/pkg/domain"
	"turfops/pkg/requestcontext"
)

func TestRecorderRecord(t *testing.T) {
	store := auditmemory.NewInMemoryStore()
	recorder := audit.NewRecorder(store)
	actor := id.UserID(uuid.New())

	pinned := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), pinned)

	event, err := recorder.Record(ctx, actor,
		audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbReserved},
		map[string]string{"asset": "mower-12"})
	require.NoError(t, err)

	assert.False(t, event.ID.IsNil())
	assert.Equal(t, "EQUIPMENT.RESERVED", event.Action)
	assert.Equal(t, actor, event.ActorID)
	assert.Equal(t, pinned, event.Timestamp)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(event.Metadata, &payload))
	assert.Equal(t, "mower-12", payload["asset"])

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, event.ID, all[0].ID)
}

func TestRecorderNilPayload(t *testing.T) {
	recorder := audit.NewRecorder(auditmemory.NewInMemoryStore())

	event, err := recorder.Record(context.Background(), id.UserID(uuid.New()),
		audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbDeleted}, nil)
	require.NoError(t, err)
	assert.Nil(t, event.Metadata)
}

func TestListFiltersByActor(t *testing.T) {
	store := auditmemory.NewInMemoryStore()
	recorder := audit.NewRecorder(store)
	ctx := context.Background()

	alice := id.UserID(uuid.New())
	bob := id.UserID(uuid.New())

	for i := 0; i < 3; i++ {
		_, err := recorder.Record(ctx, alice,
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbReserved}, nil)
		require.NoError(t, err)
	}
	_, err := recorder.Record(ctx, bob,
		audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbRetired}, nil)
	require.NoError(t, err)

	recent, err := recorder.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 4)
	// Newest first.
	assert.Equal(t, audit.VerbRetired, recent[0].Verb)

	byActor, err := recorder.ListByActor(ctx, alice, 2)
	require.NoError(t, err)
	assert.Len(t, byActor, 2)
	for _, e := range byActor {
		assert.Equal(t, alice, e.ActorID)
	}
}
