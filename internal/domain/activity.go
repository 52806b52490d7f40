package domain

import "time"

// Artifact is the category of work item an activity pertains to.
type Artifact string

const (
	ArtifactCode    Artifact = "code"
	ArtifactCodeOrg Artifact = "codeOrg"
	ArtifactTask    Artifact = "task"
	ArtifactTaskOrg Artifact = "taskOrg"
	ArtifactDoc     Artifact = "doc"
	ArtifactDocOrg  Artifact = "docOrg"
)

// Artifacts lists every artifact in display order.
var Artifacts = []Artifact{
	ArtifactCode,
	ArtifactCodeOrg,
	ArtifactTask,
	ArtifactTaskOrg,
	ArtifactDoc,
	ArtifactDocOrg,
}

// Valid reports whether the artifact belongs to the closed set.
func (a Artifact) Valid() bool {
	for _, known := range Artifacts {
		if a == known {
			return true
		}
	}
	return false
}

// Action enumerates what happened to an artifact.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Actions lists every action in display order.
var Actions = []Action{ActionCreated, ActionUpdated, ActionDeleted}

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// EventType is the coarse provider tag.
type EventType string

const (
	EventTypeJira       EventType = "jira"
	EventTypeGitHub     EventType = "github"
	EventTypeConfluence EventType = "confluence"
)

// Valid reports whether the provider is known.
func (e EventType) Valid() bool {
	switch e {
	case EventTypeJira, EventTypeGitHub, EventTypeConfluence:
		return true
	}
	return false
}

// Phase is the delivery phase an activity is attributed to.
type Phase string

const (
	PhaseDesign    Phase = "design"
	PhaseDev       Phase = "dev"
	PhaseTest      Phase = "test"
	PhaseDeploy    Phase = "deploy"
	PhaseStabilize Phase = "stabilize"
	PhaseOps       Phase = "ops"
)

// Phases lists every phase in delivery order.
var Phases = []Phase{PhaseDesign, PhaseDev, PhaseTest, PhaseDeploy, PhaseStabilize, PhaseOps}

// Valid reports whether the phase belongs to the closed set.
func (p Phase) Valid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

// Well known event names.
const (
	EventPush              = "push"
	EventPullRequest       = "pull_request"
	EventPullRequestAny    = "pull_request_*"
	EventCommentAny        = "comment_*"
	EventAttachmentCreated = "attachment_created"
	EventJiraIssueCreated  = "jira:issue_created"
	EventJiraIssueUpdated  = "jira:issue_updated"
)

// CombinedRef records an activity that was folded into another one.
type CombinedRef struct {
	ActivityID string    `json:"activityId"`
	Timestamp  time.Time `json:"timestamp"`
}

// Activity is a normalized record of one unit of developer work.
type Activity struct {
	ID               string        `json:"id"`
	CustomerID       string        `json:"customerId,omitempty"`
	CreatedTimestamp time.Time     `json:"createdTimestamp"`
	Timestamp        time.Time     `json:"timestamp"`
	ActorID          string        `json:"actorId,omitempty"`
	Artifact         Artifact      `json:"artifact"`
	Action           Action        `json:"action"`
	Event            string        `json:"event"`
	EventType        EventType     `json:"eventType"`
	InitiativeID     string        `json:"initiativeId,omitempty"`
	LaunchItemID     string        `json:"launchItemId,omitempty"`
	Priority         *int          `json:"priority,omitempty"`
	Phase            Phase         `json:"phase,omitempty"`
	Effort           *float64      `json:"effort,omitempty"`
	Ongoing          bool          `json:"ongoing,omitempty"`
	Description      string        `json:"description,omitempty"`
	Metadata         *Metadata     `json:"metadata,omitempty"`
	Combined         []CombinedRef `json:"combined,omitempty"`
}

// HasPriority reports whether the activity carries a usable priority rank.
func (a *Activity) HasPriority() bool {
	return a.Priority != nil && *a.Priority != -1
}

// EffortValue returns the effort or zero when absent.
func (a *Activity) EffortValue() float64 {
	if a.Effort == nil {
		return 0
	}
	return *a.Effort
}

// ActorActivity is the actor-scoped projection of an Activity used by the
// per-actor rollups. Identity and classification fields are stripped.
type ActorActivity struct {
	Timestamp    time.Time `json:"timestamp"`
	ActorID      string    `json:"actorId,omitempty"`
	Event        string    `json:"event,omitempty"`
	LaunchItemID string    `json:"launchItemId,omitempty"`
	Phase        Phase     `json:"phase,omitempty"`
	Effort       *float64  `json:"effort,omitempty"`
	Ongoing      bool      `json:"ongoing,omitempty"`
	Description  string    `json:"description,omitempty"`
	Metadata     *Metadata `json:"metadata,omitempty"`
}

// ActorView projects the activity for actor-scoped grouping.
func (a *Activity) ActorView() ActorActivity {
	return ActorActivity{
		Timestamp:    a.Timestamp,
		ActorID:      a.ActorID,
		Event:        a.Event,
		LaunchItemID: a.LaunchItemID,
		Phase:        a.Phase,
		Effort:       a.Effort,
		Ongoing:      a.Ongoing,
		Description:  a.Description,
		Metadata:     a.Metadata,
	}
}
