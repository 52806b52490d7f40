package domain

// OthersActorID names the synthetic bucket that sums actors beyond the top ranks.
const OthersActorID = "others"

// ActorCount is one actor's activity count within a top actors table.
type ActorCount struct {
	ActorID string `json:"actorId"`
	Count   int    `json:"count"`
}

// PriorityCount is one bucket of the priority histogram.
type PriorityCount struct {
	ID    int `json:"id"`
	Count int `json:"count"`
}

// InitiativeSummary aggregates the activities tagged with one initiative.
type InitiativeSummary struct {
	ID            string           `json:"id"`
	ArtifactCount map[Artifact]int `json:"artifactCount"`
	PhaseCount    map[Phase]int    `json:"phaseCount"`
	ActorCount    int              `json:"actorCount"`
	Effort        float64          `json:"effort"`
}

// LaunchItemSummary aggregates the activities tagged with one launch item.
type LaunchItemSummary struct {
	ID            string           `json:"id"`
	ArtifactCount map[Artifact]int `json:"artifactCount"`
	PhaseCount    map[Phase]int    `json:"phaseCount"`
	ActorCount    int              `json:"actorCount"`
	Effort        float64          `json:"effort"`
}

// GroupedActivities is the dashboard view over a combined activity list.
type GroupedActivities struct {
	TopActors   map[string][]ActorCount `json:"topActors"`
	Priorities  []PriorityCount         `json:"priorities"`
	Initiatives []InitiativeSummary     `json:"initiatives"`
	LaunchItems []LaunchItemSummary     `json:"launchItems"`
}

// TopActorsKey builds the top actors table key for an artifact/action pair.
func TopActorsKey(artifact Artifact, action Action) string {
	return string(artifact) + "-" + string(action)
}

// ActorLaunchItem is one actor's rollup for a launch item.
type ActorLaunchItem struct {
	ID      string   `json:"id"`
	Tickets []Ticket `json:"tickets"`
	Effort  float64  `json:"effort"`
}

// GroupedActorActivities is the per-actor ticket view.
type GroupedActorActivities struct {
	Tickets     []Ticket          `json:"tickets"`
	LaunchItems []ActorLaunchItem `json:"launchItems"`
	Effort      float64           `json:"effort"`
}

// LaunchItemTicketStats counts ticket statuses for a launch item.
type LaunchItemTicketStats struct {
	ID           string               `json:"id"`
	StatusCount  map[TicketStatus]int `json:"statusCount"`
	Unclassified int                  `json:"unclassified"`
	TicketCount  int                  `json:"ticketCount"`
	ActorCount   int                  `json:"actorCount"`
	Effort       float64              `json:"effort"`
}

// ActorLaunchStats describes an actor's launch participation.
type ActorLaunchStats struct {
	ActorID       string   `json:"actorId"`
	LaunchItemIDs []string `json:"launchItemIds"`
	TicketCount   int      `json:"ticketCount"`
}

// LaunchStats is the rollup of a DailyTicketStats time series.
type LaunchStats struct {
	LaunchItems []LaunchItemTicketStats `json:"launchItems"`
	Actors      []ActorLaunchStats      `json:"actors"`
}
