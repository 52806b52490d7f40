package events

import (
	"time"

	"github.com/spec-kit/activity-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventActivityIngested EventType = "activity_ingested"
	EventActivityCombined EventType = "activity_combined"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	CustomerID string    `json:"customer_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	ActivityID string    `json:"activity_id"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload"`
}

// ActivityIngestedPayload payload.
type ActivityIngestedPayload struct {
	EventType domain.EventType `json:"event_type"`
	Event     string           `json:"event"`
	// ActivityTime is the activity's own timestamp, used to find the day
	// whose ticket statistics changed.
	ActivityTime time.Time `json:"activity_time"`
}

// ActivityCombinedPayload payload.
type ActivityCombinedPayload struct {
	Rule         string    `json:"rule"`
	AbsorbedID   string    `json:"absorbed_id"`
	AbsorbedTime time.Time `json:"absorbed_time"`
	History      int       `json:"history"`
}
