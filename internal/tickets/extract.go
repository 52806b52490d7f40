// Package tickets finds Jira style ticket references in activity payloads
// and classifies their workflow status.
package tickets

import (
	"regexp"

	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/policy"
)

var jiraTicketPattern = regexp.MustCompile(`[A-Z][A-Z0-9]*-[0-9]+`)

// FindJiraTickets returns every project-key-plus-number reference in text,
// in order of appearance. Project keys are case sensitive. A key must not be
// glued to a letter or digit on either side; any other character, including
// an underscore, separates it.
func FindJiraTickets(text string) []string {
	if text == "" {
		return nil
	}
	var keys []string
	for _, loc := range jiraTicketPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && isAlnum(text[start-1]) {
			continue
		}
		if end < len(text) && isAlnum(text[end]) {
			continue
		}
		keys = append(keys, text[start:end])
	}
	return keys
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// Extractor scans activity payloads for ticket keys, skipping the policy's
// fake ticket pattern.
type Extractor struct {
	policy *policy.Policy
}

// NewExtractor builds an extractor. A nil policy filters nothing.
func NewExtractor(p *policy.Policy) *Extractor {
	return &Extractor{policy: p}
}

// FindFirstTicket returns the strongest ticket reference of an activity:
// issue key, then pull request ref and title, then commit messages, then the
// free text description.
func (e *Extractor) FindFirstTicket(md *domain.Metadata, description string) string {
	if key := md.IssueKey(); key != "" {
		return key
	}
	for _, text := range textSources(md, description) {
		for _, key := range FindJiraTickets(text) {
			if !e.policy.IsFakeTicket(key) {
				return key
			}
		}
	}
	return ""
}

// FindTickets returns every distinct ticket reference of an activity in
// source priority order. An explicit issue key short-circuits the scan.
func (e *Extractor) FindTickets(md *domain.Metadata, description string) []string {
	if key := md.IssueKey(); key != "" {
		return []string{key}
	}
	var (
		keys []string
		seen = map[string]struct{}{}
	)
	for _, text := range textSources(md, description) {
		for _, key := range FindJiraTickets(text) {
			if e.policy.IsFakeTicket(key) {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

func textSources(md *domain.Metadata, description string) []string {
	var sources []string
	if md != nil {
		if md.PullRequest != nil {
			sources = append(sources, md.PullRequest.Ref, md.PullRequest.Title)
		}
		for _, commit := range md.Commits {
			sources = append(sources, commit.Message)
		}
	}
	return append(sources, description)
}
