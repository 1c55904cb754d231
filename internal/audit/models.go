// Package audit captures immutable, append-only records of state-changing
// actions. Events are written inside the same transaction as the mutation
// they document, so a rolled-back operation leaves no trace.
package audit

import (
	"encoding/json"
	"time"

	id "turfops/pkg/domain"
)

// OutboxTopic is the Kafka topic committed audit events are relayed to.
const OutboxTopic = "turfops.audit.events"

// Scope is the entity category an event belongs to.
type Scope string

const (
	ScopeEquipment Scope = "EQUIPMENT"
)

// Verb is the action taken within a scope.
type Verb string

const (
	VerbCreated              Verb = "CREATED"
	VerbUpdated              Verb = "UPDATED"
	VerbReserved             Verb = "RESERVED"
	VerbReservationCancelled Verb = "RESERVATION_CANCELLED"
	VerbCheckedOut           Verb = "CHECKED_OUT"
	VerbReturned             Verb = "RETURNED"
	VerbForceReleased        Verb = "FORCE_RELEASED"
	VerbMaintenanceStarted   Verb = "MAINTENANCE_STARTED"
	VerbMaintenanceEnded     Verb = "MAINTENANCE_ENDED"
	VerbRetired              Verb = "RETIRED"
	VerbUnretired            Verb = "UNRETIRED"
	VerbDeleted              Verb = "DELETED"
)

// Action pairs a scope with a verb to form the composite action code stored
// on every event.
type Action struct {
	Scope Scope
	Verb  Verb
}

// Code returns the composite action code, e.g. "EQUIPMENT.RESERVED".
func (a Action) Code() string {
	return string(a.Scope) + "." + string(a.Verb)
}

// Event is one immutable audit log entry. Metadata is an opaque serialized
// snapshot of the affected records; no schema is enforced on it beyond being
// valid JSON, which keeps old events readable as payload shapes evolve.
type Event struct {
	ID        id.EventID      `json:"id"`
	Scope     Scope           `json:"scope"`
	Verb      Verb            `json:"verb"`
	Action    string          `json:"action"`
	ActorID   id.UserID       `json:"actor_id"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
