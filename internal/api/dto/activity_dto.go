package dto

import (
	"time"

	"github.com/spec-kit/activity-service/internal/domain"
)

// DefaultRange is used when a query omits from.
const DefaultRange = 30 * 24 * time.Hour

// RangeQuery captures the from/to filters of list and insight endpoints.
// Both are RFC 3339 timestamps.
type RangeQuery struct {
	From string `query:"from"`
	To   string `query:"to"`
}

// IngestActivityResponse reports the stored record after combining.
type IngestActivityResponse struct {
	Activity   *domain.Activity `json:"activity"`
	Merged     bool             `json:"merged"`
	Rule       string           `json:"rule"`
	AbsorbedID string           `json:"absorbedId,omitempty"`
}

// ActivityListResponse wraps a stored activity list.
type ActivityListResponse struct {
	From       time.Time          `json:"from"`
	To         time.Time          `json:"to"`
	Count      int                `json:"count"`
	Activities []*domain.Activity `json:"activities"`
}

// ActivitySummaryResponse is one activity with its rendered sentence.
type ActivitySummaryResponse struct {
	ID        string           `json:"id"`
	ActorID   string           `json:"actorId"`
	Timestamp time.Time        `json:"timestamp"`
	Artifact  domain.Artifact  `json:"artifact"`
	Action    domain.Action    `json:"action"`
	EventType domain.EventType `json:"eventType"`
	Summary   string           `json:"summary"`
}

// TokenRequest asks for a service token. Used by the CLI.
type TokenRequest struct {
	Subject  string   `json:"subject"`
	Customer string   `json:"customer"`
	Scopes   []string `json:"scopes"`
}

// TokenResponse carries a minted bearer token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
