package domain

import "time"

// TicketStatus is the inferred workflow state of a ticket.
type TicketStatus string

const (
	TicketStatusUnclassified TicketStatus = ""
	TicketStatusNew          TicketStatus = "new"
	TicketStatusInProgress   TicketStatus = "inProgress"
	TicketStatusInTesting    TicketStatus = "inTesting"
	TicketStatusBlocked      TicketStatus = "blocked"
	TicketStatusCompleted    TicketStatus = "completed"
)

// TicketStatuses lists every classified status in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusInProgress,
	TicketStatusInTesting,
	TicketStatusBlocked,
	TicketStatusCompleted,
}

// Valid reports whether the status is a known classified value.
func (s TicketStatus) Valid() bool {
	for _, known := range TicketStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Ticket is a Jira style issue key with its latest inferred status.
type Ticket struct {
	Key    string       `json:"key"`
	Status TicketStatus `json:"status,omitempty"`
}

// LaunchTicket is a ticket attributed to a launch item.
type LaunchTicket struct {
	Key          string       `json:"key"`
	Status       TicketStatus `json:"status,omitempty"`
	LaunchItemID string       `json:"launchItemId,omitempty"`
}

// DailyTicketStats is one actor's ticket activity for one day. LaunchEffort
// splits Effort by launch item.
type DailyTicketStats struct {
	Day          time.Time          `json:"day"`
	CustomerID   string             `json:"customerId"`
	ActorID      string             `json:"actorId"`
	Tickets      []LaunchTicket     `json:"tickets"`
	Effort       float64            `json:"effort"`
	LaunchEffort map[string]float64 `json:"launchEffort,omitempty"`
}
