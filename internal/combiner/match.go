package combiner

import (
	"strings"

	"github.com/spec-kit/activity-service/internal/domain"
)

// IsMatching reports whether the stored activity a and the incoming activity
// b describe the same thread of work and may be folded together.
//
// Actor, artifact and provider must be present and equal. Then either the
// actions are equal and the events are equal or share the pull_request or
// comment prefix, or a created Jira issue is absorbing its own update.
func IsMatching(a, b *domain.Activity) bool {
	if a == nil || b == nil {
		return false
	}
	if a.ActorID == "" || a.Artifact == "" || a.EventType == "" {
		return false
	}
	if a.ActorID != b.ActorID || a.Artifact != b.Artifact || a.EventType != b.EventType {
		return false
	}
	if a.Action == b.Action && sameEventFamily(a.Event, b.Event) {
		return true
	}
	return a.Action == domain.ActionCreated &&
		b.Action == domain.ActionUpdated &&
		a.Event == domain.EventJiraIssueCreated &&
		b.Event == domain.EventJiraIssueUpdated
}

func sameEventFamily(a, b string) bool {
	if a == b {
		return true
	}
	for _, prefix := range []string{"pull_request", "comment"} {
		if strings.HasPrefix(a, prefix) && strings.HasPrefix(b, prefix) {
			return true
		}
	}
	return false
}
