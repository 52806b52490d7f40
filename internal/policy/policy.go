// Package policy holds the organisation specific lookup tables used to
// classify tickets and describe activities. Deployments override the
// built-in tables with a YAML file.
package policy

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/activity-service/internal/domain"
)

// Rule assigns an activity to an initiative or launch item when its
// conditions hold.
type Rule struct {
	ID         string      `yaml:"id" json:"id"`
	Match      string      `yaml:"match" json:"match"` // all | any
	Conditions []Condition `yaml:"conditions" json:"conditions"`
}

// Condition compares one dot path of the activity with a value.
type Condition struct {
	Path  string `yaml:"path" json:"path"`
	Op    string `yaml:"op" json:"op"`
	Value string `yaml:"value" json:"value"`
}

// Policy is the set of swappable tables.
type Policy struct {
	StatusNames       map[string]domain.TicketStatus `yaml:"status_names"`
	FieldPhrases      map[string]string              `yaml:"field_phrases"`
	CodeActionPhrases map[string]string              `yaml:"code_action_phrases"`
	FakeTicketPattern string                         `yaml:"fake_ticket_pattern"`
	Initiatives       []Rule                         `yaml:"initiatives"`
	LaunchItems       []Rule                         `yaml:"launch_items"`

	fakeTicket *regexp.Regexp
}

// Default returns the built-in tables.
func Default() *Policy {
	p := &Policy{
		StatusNames: map[string]domain.TicketStatus{
			"backlog":                  domain.TicketStatusNew,
			"new":                      domain.TicketStatusNew,
			"open":                     domain.TicketStatusNew,
			"to do":                    domain.TicketStatusNew,
			"selected for development": domain.TicketStatusNew,
			"in progress":              domain.TicketStatusInProgress,
			"in development":           domain.TicketStatusInProgress,
			"in review":                domain.TicketStatusInProgress,
			"code review":              domain.TicketStatusInProgress,
			"reopened":                 domain.TicketStatusInProgress,
			"in testing":               domain.TicketStatusInTesting,
			"testing":                  domain.TicketStatusInTesting,
			"qa":                       domain.TicketStatusInTesting,
			"ready for qa":             domain.TicketStatusInTesting,
			"blocked":                  domain.TicketStatusBlocked,
			"on hold":                  domain.TicketStatusBlocked,
			"done":                     domain.TicketStatusCompleted,
			"closed":                   domain.TicketStatusCompleted,
			"resolved":                 domain.TicketStatusCompleted,
			"released":                 domain.TicketStatusCompleted,
			"won't do":                 domain.TicketStatusCompleted,
		},
		FieldPhrases: map[string]string{
			"assignee":    "changed the assignee",
			"description": "updated the description",
			"labels":      "changed the labels",
			"priority":    "changed the priority",
			"resolution":  "set the resolution",
			"sprint":      "moved the sprint",
			"status":      "changed the status",
			"summary":     "renamed the issue",
		},
		CodeActionPhrases: map[string]string{
			"opened":             "opened",
			"closed":             "closed",
			"reopened":           "reopened",
			"edited":             "edited",
			"review_requested":   "requested a review on",
			"submitted":          "reviewed",
			"synchronize":        "pushed to",
			"ready_for_review":   "marked ready",
			"converted_to_draft": "converted to draft",
		},
		FakeTicketPattern: `^(?:CVE|UTF|ISO|SHA|RFC|HTTP|TLS)-[0-9]+$`,
	}
	_ = p.compile()
	return p
}

// Load reads a YAML file and overlays it onto the built-in tables. Map
// entries are merged, scalar and rule lists replace the defaults when set.
func Load(path string) (*Policy, error) {
	p := Default()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	var overlay Policy
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", path, err)
	}
	for name, status := range overlay.StatusNames {
		if status != domain.TicketStatusUnclassified && !status.Valid() {
			return nil, fmt.Errorf("policy %s: unknown status %q for %q", path, status, name)
		}
		p.StatusNames[normalizeName(name)] = status
	}
	for field, phrase := range overlay.FieldPhrases {
		p.FieldPhrases[strings.ToLower(field)] = phrase
	}
	for action, phrase := range overlay.CodeActionPhrases {
		p.CodeActionPhrases[action] = phrase
	}
	if overlay.FakeTicketPattern != "" {
		p.FakeTicketPattern = overlay.FakeTicketPattern
	}
	if len(overlay.Initiatives) > 0 {
		p.Initiatives = overlay.Initiatives
	}
	if len(overlay.LaunchItems) > 0 {
		p.LaunchItems = overlay.LaunchItems
	}
	if err := p.compile(); err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return p, nil
}

func (p *Policy) compile() error {
	if p.FakeTicketPattern == "" {
		p.fakeTicket = nil
		return nil
	}
	re, err := regexp.Compile(p.FakeTicketPattern)
	if err != nil {
		return fmt.Errorf("fake_ticket_pattern: %w", err)
	}
	p.fakeTicket = re
	return nil
}

// IsFakeTicket reports whether a ticket-like key is a known false positive.
func (p *Policy) IsFakeTicket(key string) bool {
	if p == nil || p.fakeTicket == nil {
		return false
	}
	return p.fakeTicket.MatchString(key)
}

// StatusFor classifies a Jira status name.
func (p *Policy) StatusFor(name string) (domain.TicketStatus, bool) {
	if p == nil {
		return domain.TicketStatusUnclassified, false
	}
	status, ok := p.StatusNames[normalizeName(name)]
	return status, ok
}

// FieldPhrase describes a changelog field change.
func (p *Policy) FieldPhrase(field string) string {
	if p != nil {
		if phrase, ok := p.FieldPhrases[strings.ToLower(field)]; ok {
			return phrase
		}
	}
	return "changed " + field
}

// CodeActionPhrase describes a pull request action. Synthetic label actions
// ("labeled bug") keep their label.
func (p *Policy) CodeActionPhrase(action string) string {
	if name, ok := strings.CutPrefix(action, "labeled "); ok {
		return "labeled " + name
	}
	if p != nil {
		if phrase, ok := p.CodeActionPhrases[action]; ok {
			return phrase
		}
	}
	return strings.ReplaceAll(action, "_", " ")
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
