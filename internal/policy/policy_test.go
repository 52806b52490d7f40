package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spec-kit/activity-service/internal/domain"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if status, ok := p.StatusFor("Done"); !ok || status != domain.TicketStatusCompleted {
		t.Fatalf("StatusFor(Done) = %q, %v", status, ok)
	}
	if !p.IsFakeTicket("CVE-2024") || p.IsFakeTicket("ABC-1") {
		t.Fatalf("unexpected fake ticket classification")
	}
}

func TestLoad_Overlay(t *testing.T) {
	path := writePolicy(t, `
status_names:
  "Waiting For Customer": blocked
  Done: inTesting
field_phrases:
  Story_Points: "re-estimated"
code_action_phrases:
  merged: "merged"
fake_ticket_pattern: "^JDK-[0-9]+$"
launch_items:
  - id: li-1
    match: any
    conditions:
      - path: metadata.issue.key
        op: prefix
        value: PAY-
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if status, _ := p.StatusFor("waiting for customer"); status != domain.TicketStatusBlocked {
		t.Fatalf("overlay status = %q", status)
	}
	if status, _ := p.StatusFor("DONE"); status != domain.TicketStatusInTesting {
		t.Fatalf("overridden status = %q", status)
	}
	if status, ok := p.StatusFor("in progress"); !ok || status != domain.TicketStatusInProgress {
		t.Fatalf("default status lost: %q %v", status, ok)
	}
	if got := p.FieldPhrase("story_points"); got != "re-estimated" {
		t.Fatalf("FieldPhrase() = %q", got)
	}
	if got := p.CodeActionPhrase("merged"); got != "merged" {
		t.Fatalf("CodeActionPhrase() = %q", got)
	}
	if !p.IsFakeTicket("JDK-8") || p.IsFakeTicket("CVE-1") {
		t.Fatalf("fake ticket pattern not replaced")
	}
	if len(p.LaunchItems) != 1 || p.LaunchItems[0].Conditions[0].Value != "PAY-" {
		t.Fatalf("unexpected launch item rules %+v", p.LaunchItems)
	}
}

func TestLoad_RejectsUnknownStatus(t *testing.T) {
	path := writePolicy(t, "status_names:\n  triage: halfway\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestLoad_RejectsBadPattern(t *testing.T) {
	path := writePolicy(t, "fake_ticket_pattern: \"([\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid pattern")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestPhrases(t *testing.T) {
	p := Default()
	if got := p.FieldPhrase("Status"); got != "changed the status" {
		t.Fatalf("FieldPhrase(Status) = %q", got)
	}
	if got := p.FieldPhrase("Fix Version"); got != "changed Fix Version" {
		t.Fatalf("FieldPhrase fallback = %q", got)
	}
	if got := p.CodeActionPhrase("labeled bug"); got != "labeled bug" {
		t.Fatalf("label phrase = %q", got)
	}
	if got := p.CodeActionPhrase("auto_merge_enabled"); got != "auto merge enabled" {
		t.Fatalf("fallback phrase = %q", got)
	}
	var nilPolicy *Policy
	if nilPolicy.IsFakeTicket("CVE-1") {
		t.Fatalf("nil policy should not filter")
	}
}
