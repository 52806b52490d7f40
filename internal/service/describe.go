package service

import (
	"fmt"
	"strings"

	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/policy"
)

// Describe renders a one line, human readable summary of an activity using
// the policy phrase tables.
func Describe(p *policy.Policy, activity *domain.Activity) string {
	if activity == nil {
		return ""
	}
	md := activity.Metadata
	switch {
	case md == nil:
	case len(md.CodeAction) > 0 && md.PullRequest != nil:
		phrases := make([]string, 0, len(md.CodeAction))
		for _, action := range md.CodeAction {
			phrases = appendUnique(phrases, p.CodeActionPhrase(action))
		}
		return fmt.Sprintf("%s pull request %s", joinPhrases(phrases), firstNonEmpty(md.PullRequest.Title, md.PullRequest.URI))
	case len(md.ChangeLog) > 0:
		phrases := make([]string, 0, len(md.ChangeLog))
		for _, change := range md.ChangeLog {
			phrases = appendUnique(phrases, p.FieldPhrase(change.Field))
		}
		return fmt.Sprintf("%s on %s", joinPhrases(phrases), firstNonEmpty(md.IssueKey(), "an issue"))
	case len(md.Commits) > 0:
		if len(md.Commits) == 1 {
			return "pushed 1 commit"
		}
		return fmt.Sprintf("pushed %d commits", len(md.Commits))
	case md.Comment != nil:
		target := firstNonEmpty(md.IssueKey(), md.PullRequestURI(), pageTitle(md))
		if target == "" {
			return "commented"
		}
		return "commented on " + target
	case len(md.AttachmentFiles()) > 0:
		files := md.AttachmentFiles()
		noun := "files"
		if len(files) == 1 {
			noun = "file"
		}
		return fmt.Sprintf("attached %d %s to %s", len(files), noun,
			firstNonEmpty(md.IssueKey(), attachmentParentTitle(md), "a page"))
	case md.Page != nil:
		summary := string(activity.Action) + " page " + firstNonEmpty(md.Page.Title, md.Page.ID)
		if md.Page.Version != "" {
			summary += " (version " + string(md.Page.Version) + ")"
		}
		return summary
	case md.Issue != nil && activity.Action == domain.ActionCreated:
		return "created " + firstNonEmpty(md.Issue.Key, md.Issue.Title)
	}
	if activity.Description != "" {
		return activity.Description
	}
	return strings.ReplaceAll(activity.Event, "_", " ")
}

// joinPhrases renders "a", "a and b", "a, b and c".
func joinPhrases(phrases []string) string {
	switch len(phrases) {
	case 0:
		return ""
	case 1:
		return phrases[0]
	}
	return strings.Join(phrases[:len(phrases)-1], ", ") + " and " + phrases[len(phrases)-1]
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pageTitle(md *domain.Metadata) string {
	if md.Page == nil {
		return ""
	}
	return firstNonEmpty(md.Page.Title, md.Page.ID)
}

func attachmentParentTitle(md *domain.Metadata) string {
	if md.Attachments == nil || md.Attachments.Parent == nil {
		return ""
	}
	return firstNonEmpty(md.Attachments.Parent.Title, md.Attachments.Parent.ID)
}
