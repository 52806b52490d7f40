// Package combiner folds a time ordered stream of activities that refer to
// the same unit of work (a pull request, an issue, a page, a comment thread)
// into single merged records.
//
// The list handed to Combine is mutated: a folded record is removed from its
// position and the merged survivor is appended, so the most recently touched
// record is always last. Callers must keep the returned slice and must not
// combine into the same list from several goroutines.
package combiner

import (
	"errors"
	"slices"
	"strings"

	"github.com/spec-kit/activity-service/internal/domain"
)

// ErrNilActivity is returned when Combine is called without an activity.
var ErrNilActivity = errors.New("combiner: nil activity")

// Rule names the merge policy that handled an activity.
type Rule string

const (
	RulePullRequest     Rule = "pull_request"
	RulePush            Rule = "push"
	RuleChangeLog       Rule = "change_log"
	RuleAttachment      Rule = "attachment"
	RuleCommentThread   Rule = "comment_thread"
	RuleCommentUpdate   Rule = "comment_update"
	RulePage            Rule = "page"
	RulePageAttachments Rule = "page_attachments"
	RuleAppend          Rule = "append"
)

// Outcome describes what Combine did with an activity.
type Outcome struct {
	Rule Rule
	// Absorbed is the stored record folded into the new activity, nil when
	// the activity was appended as new.
	Absorbed *domain.Activity
}

// Merged reports whether the activity absorbed a stored record.
func (o Outcome) Merged() bool {
	return o.Absorbed != nil
}

// CombineAndPush folds newActivity into sorted or appends it. A nil activity
// leaves the list untouched.
func CombineAndPush(newActivity *domain.Activity, sorted []*domain.Activity) []*domain.Activity {
	out, _, err := Combine(newActivity, sorted)
	if err != nil {
		return sorted
	}
	return out
}

// Combine folds newActivity into the last matching record of sorted, or
// appends it, and reports which rule applied. The surviving record is always
// newActivity itself.
func Combine(newActivity *domain.Activity, sorted []*domain.Activity) ([]*domain.Activity, Outcome, error) {
	if newActivity == nil {
		return sorted, Outcome{}, ErrNilActivity
	}
	c := &combination{activity: newActivity, list: sorted}
	if newActivity.Metadata != nil {
		for _, step := range steps {
			if step(c) {
				return c.list, c.outcome, nil
			}
		}
	}
	c.appendNew()
	return c.list, c.outcome, nil
}

// steps run in priority order. A step returns true once it has either
// merged or appended the activity; returning false falls through.
var steps = []func(*combination) bool{
	(*combination).pullRequest,
	(*combination).codePush,
	(*combination).changeLog,
	(*combination).jiraAttachment,
	(*combination).commentThread,
	(*combination).commentUpdate,
	(*combination).page,
	(*combination).pageAttachments,
}

type combination struct {
	activity *domain.Activity
	list     []*domain.Activity
	outcome  Outcome
}

// findLast returns the index of the most recently appended record that
// matches the activity and satisfies pred, or -1.
func (c *combination) findLast(pred func(md *domain.Metadata) bool) int {
	for i := len(c.list) - 1; i >= 0; i-- {
		candidate := c.list[i]
		if candidate == nil || candidate.Metadata == nil {
			continue
		}
		if IsMatching(candidate, c.activity) && pred(candidate.Metadata) {
			return i
		}
	}
	return -1
}

func (c *combination) appendNew() {
	c.list = append(c.list, c.activity)
	c.outcome = Outcome{Rule: RuleAppend}
}

// fold moves the record at idx into the activity's combination history and
// appends the activity in its place at the end of the list.
func (c *combination) fold(idx int, rule Rule) {
	found := c.list[idx]
	history := make([]domain.CombinedRef, 0, len(c.activity.Combined)+len(found.Combined)+1)
	history = append(history, c.activity.Combined...)
	history = append(history, found.Combined...)
	history = append(history, domain.CombinedRef{
		ActivityID: found.ID,
		Timestamp:  found.CreatedTimestamp,
	})
	c.activity.Combined = history
	c.list = slices.Delete(c.list, idx, idx+1)
	c.list = append(c.list, c.activity)
	c.outcome = Outcome{Rule: rule, Absorbed: found}
}

func (c *combination) pullRequest() bool {
	md := c.activity.Metadata
	uri := md.PullRequestURI()
	if uri == "" {
		return false
	}
	if len(md.CodeAction) == 1 && md.CodeAction[0] == "labeled" && md.Label != nil && md.Label.Name != "" {
		md.CodeAction = domain.CodeActions{"labeled " + md.Label.Name}
	}
	if len(md.CodeAction) == 0 {
		c.appendNew()
		return true
	}
	idx := c.findLast(func(prior *domain.Metadata) bool {
		return prior.PullRequestURI() == uri && len(prior.CodeAction) > 0
	})
	if idx < 0 {
		return false
	}
	md.CodeAction = unionCodeActions(md.CodeAction, c.list[idx].Metadata.CodeAction)
	c.activity.Event = domain.EventPullRequestAny
	c.fold(idx, RulePullRequest)
	return true
}

func (c *combination) codePush() bool {
	md := c.activity.Metadata
	if c.activity.Event != domain.EventPush || len(md.Commits) == 0 {
		return false
	}
	idx := c.findLast(func(prior *domain.Metadata) bool {
		return commitsOverlap(prior.Commits, md.Commits)
	})
	if idx < 0 {
		return false
	}
	md.Commits = unionCommits(md.Commits, c.list[idx].Metadata.Commits)
	c.fold(idx, RulePush)
	return true
}

func (c *combination) changeLog() bool {
	md := c.activity.Metadata
	key := md.IssueKey()
	if key == "" || len(md.ChangeLog) == 0 {
		return false
	}
	idx := c.findLast(func(prior *domain.Metadata) bool {
		return prior.IssueKey() == key && len(prior.ChangeLog) > 0
	})
	if idx < 0 {
		return false
	}
	found := c.list[idx]
	merged := make([]domain.ChangeLogEntry, 0, len(md.ChangeLog)+len(found.Metadata.ChangeLog))
	merged = append(merged, md.ChangeLog...)
	merged = append(merged, found.Metadata.ChangeLog...)
	md.ChangeLog = dedupeConsecutiveChanges(merged)
	if c.activity.Action == domain.ActionUpdated && found.Action == domain.ActionCreated {
		c.activity.Action = domain.ActionCreated
		c.activity.Event = found.Event
	}
	c.fold(idx, RuleChangeLog)
	return true
}

func (c *combination) jiraAttachment() bool {
	md := c.activity.Metadata
	if c.activity.Event != domain.EventAttachmentCreated || md.Attachment == nil {
		return false
	}
	idx := c.findLast(func(*domain.Metadata) bool { return true })
	if idx < 0 {
		return false
	}
	prior := c.list[idx].Metadata
	var previous []domain.Attachment
	var parent *domain.AttachmentParent
	switch {
	case prior.Attachments != nil:
		previous = prior.Attachments.Files
		parent = prior.Attachments.Parent
	case prior.Attachment != nil:
		previous = []domain.Attachment{*prior.Attachment}
	default:
		// The matched record carries no attachment to extend.
		c.appendNew()
		return true
	}
	md.Attachments = &domain.AttachmentSet{
		Parent: parent,
		Files:  unionAttachments([]domain.Attachment{*md.Attachment}, previous),
	}
	md.Attachment = nil
	c.fold(idx, RuleAttachment)
	return true
}

func (c *combination) commentThread() bool {
	md := c.activity.Metadata
	if !strings.HasPrefix(c.activity.Event, "comment") || md.Comment == nil {
		return false
	}
	key, page := md.IssueKey(), md.PageID()
	idx := c.findLast(func(prior *domain.Metadata) bool {
		return prior.IssueKey() == key && prior.PageID() == page
	})
	if idx < 0 {
		return false
	}
	prior := c.list[idx].Metadata
	var previous []domain.Comment
	switch {
	case prior.Comments != nil:
		previous = prior.Comments
	case prior.Comment != nil:
		previous = []domain.Comment{*prior.Comment}
	default:
		c.appendNew()
		return true
	}
	comments := make([]domain.Comment, 0, len(previous)+1)
	comments = append(comments, *md.Comment)
	for _, comment := range previous {
		if comment.ID != "" && comment.ID == md.Comment.ID {
			continue
		}
		comments = append(comments, comment)
	}
	md.Comments = comments
	md.Comment = nil
	c.activity.Event = domain.EventCommentAny
	c.fold(idx, RuleCommentThread)
	return true
}

func (c *combination) commentUpdate() bool {
	md := c.activity.Metadata
	id := md.CommentID()
	if !strings.HasPrefix(c.activity.Event, "comment_") || id == "" {
		return false
	}
	idx := c.findLast(func(prior *domain.Metadata) bool {
		return prior.CommentID() == id
	})
	if idx < 0 {
		return false
	}
	c.activity.Event = domain.EventCommentAny
	c.fold(idx, RuleCommentUpdate)
	return true
}

func (c *combination) page() bool {
	md := c.activity.Metadata
	id := md.PageID()
	if id == "" {
		return false
	}
	idx := c.findLast(func(prior *domain.Metadata) bool {
		return prior.PageID() == id
	})
	if idx < 0 {
		return false
	}
	md.Page.Version = joinVersions(c.list[idx].Metadata.Page.Version, md.Page.Version)
	c.fold(idx, RulePage)
	return true
}

func (c *combination) pageAttachments() bool {
	md := c.activity.Metadata
	files, parent := md.AttachmentFiles(), md.AttachmentParentID()
	if len(files) == 0 || parent == "" {
		return false
	}
	idx := c.findLast(func(prior *domain.Metadata) bool {
		return prior.AttachmentParentID() == parent
	})
	if idx < 0 {
		return false
	}
	md.Attachments.Files = unionAttachments(files, c.list[idx].Metadata.AttachmentFiles())
	c.fold(idx, RulePageAttachments)
	return true
}
