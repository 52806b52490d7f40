package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Metadata is the provider specific payload of an activity. Exactly one kind
// of payload is populated per raw event; combined records may carry an
// aggregate shape (commits growing, codeAction turning into a list).
type Metadata struct {
	PullRequest *PullRequest     `json:"pullRequest,omitempty"`
	CodeAction  CodeActions      `json:"codeAction,omitempty"`
	Label       *Label           `json:"label,omitempty"`
	Commits     []Commit         `json:"commits,omitempty"`
	Issue       *Issue           `json:"issue,omitempty"`
	ChangeLog   []ChangeLogEntry `json:"changeLog,omitempty"`
	Comment     *Comment         `json:"comment,omitempty"`
	Comments    []Comment        `json:"comments,omitempty"`
	Attachment  *Attachment      `json:"attachment,omitempty"`
	Attachments *AttachmentSet   `json:"attachments,omitempty"`
	Page        *Page            `json:"page,omitempty"`
}

// PullRequest describes a GitHub pull request.
type PullRequest struct {
	URI   string `json:"uri"`
	Ref   string `json:"ref,omitempty"`
	Title string `json:"title,omitempty"`
}

// Label is a GitHub label attached to a pull request.
type Label struct {
	Name string `json:"name"`
}

// Commit is a single pushed commit.
type Commit struct {
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

// Issue is a Jira issue reference.
type Issue struct {
	Key      string `json:"key"`
	Title    string `json:"title,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// ChangeLogEntry is one field change of a Jira issue.
type ChangeLogEntry struct {
	Field    string  `json:"field"`
	OldValue *string `json:"oldValue,omitempty"`
	NewValue *string `json:"newValue,omitempty"`
}

// Comment is a Jira, Confluence or GitHub comment.
type Comment struct {
	ID   string `json:"id"`
	Body string `json:"body,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Attachment is a file attached to an issue or page.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// AttachmentSet groups files attached to one parent.
type AttachmentSet struct {
	Parent *AttachmentParent `json:"parent,omitempty"`
	Files  []Attachment      `json:"files,omitempty"`
}

// AttachmentParent identifies the page or issue owning attachments.
type AttachmentParent struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Page is a Confluence page.
type Page struct {
	ID      string      `json:"id"`
	Title   string      `json:"title,omitempty"`
	Version PageVersion `json:"version,omitempty"`
}

// PageVersion is a human readable version label. Confluence sends numbers,
// combined records hold a comma separated history such as "3, 4".
type PageVersion string

// UnmarshalJSON accepts either a JSON number or a string.
func (v *PageVersion) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = PageVersion(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*v = PageVersion(strconv.FormatInt(i, 10))
		return nil
	}
	*v = PageVersion(n.String())
	return nil
}

// CodeActions holds the pull request action(s) of an activity. A raw event
// carries one action; a combined record carries the union.
type CodeActions []string

// MarshalJSON writes a single action as a string and anything else as a list.
func (c CodeActions) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([]string(c))
}

// UnmarshalJSON accepts either a string or a list of strings.
func (c *CodeActions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*c = nil
			return nil
		}
		*c = CodeActions{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*c = list
	return nil
}

// Contains reports whether the action is already present.
func (c CodeActions) Contains(action string) bool {
	for _, existing := range c {
		if existing == action {
			return true
		}
	}
	return false
}

// IssueKey returns the issue key or an empty string.
func (m *Metadata) IssueKey() string {
	if m == nil || m.Issue == nil {
		return ""
	}
	return m.Issue.Key
}

// PullRequestURI returns the pull request uri or an empty string.
func (m *Metadata) PullRequestURI() string {
	if m == nil || m.PullRequest == nil {
		return ""
	}
	return m.PullRequest.URI
}

// PageID returns the Confluence page id or an empty string.
func (m *Metadata) PageID() string {
	if m == nil || m.Page == nil {
		return ""
	}
	return m.Page.ID
}

// CommentID returns the scalar comment id or an empty string.
func (m *Metadata) CommentID() string {
	if m == nil || m.Comment == nil {
		return ""
	}
	return m.Comment.ID
}

// AttachmentParentID returns the attachments parent id or an empty string.
func (m *Metadata) AttachmentParentID() string {
	if m == nil || m.Attachments == nil || m.Attachments.Parent == nil {
		return ""
	}
	return m.Attachments.Parent.ID
}

// AttachmentFiles returns the collected attachment files, if any.
func (m *Metadata) AttachmentFiles() []Attachment {
	if m == nil || m.Attachments == nil {
		return nil
	}
	return m.Attachments.Files
}
