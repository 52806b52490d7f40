package tickets

import (
	"strings"

	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/policy"
)

// Classifier infers ticket workflow status from activity payloads using the
// policy's status name table.
type Classifier struct {
	policy *policy.Policy
}

// NewClassifier builds a classifier over the given policy.
func NewClassifier(p *policy.Policy) *Classifier {
	return &Classifier{policy: p}
}

// InferTicketStatus classifies the ticket an activity refers to. The ongoing
// flag forces in-progress. Without a known issue status, code work (commits,
// pull requests and their comments) counts as in-progress; anything else is
// left unclassified.
func (c *Classifier) InferTicketStatus(md *domain.Metadata, event string, ongoing bool) domain.TicketStatus {
	if ongoing {
		return domain.TicketStatusInProgress
	}
	if md == nil {
		return domain.TicketStatusUnclassified
	}
	if md.Issue != nil && strings.TrimSpace(md.Issue.Status) != "" {
		if status, ok := c.policy.StatusFor(md.Issue.Status); ok {
			return status
		}
		return domain.TicketStatusUnclassified
	}
	if len(md.Commits) > 0 || md.PullRequest != nil {
		return domain.TicketStatusInProgress
	}
	if md.Comment != nil && strings.HasPrefix(event, domain.EventPullRequest) {
		return domain.TicketStatusInProgress
	}
	return domain.TicketStatusUnclassified
}
