package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spec-kit/activity-service/internal/auth"
	"github.com/spec-kit/activity-service/internal/domain"
)

const pushExport = `[
  {"id":"b","timestamp":"2024-03-01T10:05:00Z","actorId":"alice","artifact":"code","action":"updated",
   "event":"push","eventType":"github","metadata":{"commits":[{"url":"u1","message":"PAY-1 first"},{"url":"u2","message":"second"}]}},
  {"id":"a","timestamp":"2024-03-01T10:00:00Z","actorId":"alice","artifact":"code","action":"updated",
   "event":"push","eventType":"github","metadata":{"commits":[{"url":"u1","message":"PAY-1 first"}]}},
  {"id":"c","timestamp":"2024-03-01T11:00:00Z","actorId":"bob","artifact":"task","action":"updated",
   "event":"jira:issue_updated","eventType":"jira","launchItemId":"li-1",
   "metadata":{"issue":{"key":"PROJ-9","status":"In Progress"}}}
]`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activities.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestCombine_ReplaysInTimestampOrder(t *testing.T) {
	out, err := run(t, pushExport, "combine", "-")
	if err != nil {
		t.Fatalf("combine error = %v", err)
	}
	var report combineReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if report.Input != 3 || report.Output != 2 {
		t.Fatalf("unexpected counts %+v", report)
	}
	if report.Rules["push"] != 1 || report.Rules["append"] != 2 {
		t.Fatalf("unexpected rules %+v", report.Rules)
	}
	survivor := report.Activities[0]
	if survivor.ID != "b" || len(survivor.Metadata.Commits) != 2 || len(survivor.Combined) != 1 || survivor.Combined[0].ActivityID != "a" {
		t.Fatalf("unexpected survivor %+v", survivor)
	}
}

func TestCombine_SummaryOmitsRecords(t *testing.T) {
	out, err := run(t, "", "combine", "--summary", "--compact", writeFile(t, pushExport))
	if err != nil {
		t.Fatalf("combine error = %v", err)
	}
	if strings.Contains(out, "activities") || strings.Count(out, "\n") != 1 {
		t.Fatalf("unexpected summary output %q", out)
	}
}

func TestGroup(t *testing.T) {
	out, err := run(t, pushExport, "group", "-")
	if err != nil {
		t.Fatalf("group error = %v", err)
	}
	var grouped domain.GroupedActivities
	if err := json.Unmarshal([]byte(out), &grouped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(grouped.LaunchItems) != 1 || grouped.LaunchItems[0].ID != "li-1" {
		t.Fatalf("unexpected launch items %+v", grouped.LaunchItems)
	}
	if len(grouped.TopActors) == 0 {
		t.Fatalf("expected top actor tables")
	}
}

func TestActorAndLaunchStats(t *testing.T) {
	out, err := run(t, pushExport, "actor", "--actor", "alice", "-")
	if err != nil {
		t.Fatalf("actor error = %v", err)
	}
	var actor domain.GroupedActorActivities
	if err := json.Unmarshal([]byte(out), &actor); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(actor.Tickets) != 1 || actor.Tickets[0].Key != "PAY-1" {
		t.Fatalf("unexpected tickets %+v", actor.Tickets)
	}

	daily, err := run(t, pushExport, "actor", "--daily", "--customer", "cust-1", "-")
	if err != nil {
		t.Fatalf("actor --daily error = %v", err)
	}
	fromDaily, err := run(t, daily, "launch-stats", "--from-daily", "-")
	if err != nil {
		t.Fatalf("launch-stats --from-daily error = %v", err)
	}
	direct, err := run(t, pushExport, "launch-stats", "-")
	if err != nil {
		t.Fatalf("launch-stats error = %v", err)
	}
	if fromDaily != direct {
		t.Fatalf("daily round trip differs:\n%s\nvs\n%s", fromDaily, direct)
	}
	var stats domain.LaunchStats
	if err := json.Unmarshal([]byte(direct), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stats.LaunchItems) != 1 || stats.LaunchItems[0].StatusCount[domain.TicketStatusInProgress] != 1 {
		t.Fatalf("unexpected launch stats %+v", stats)
	}
}

func TestToken(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")
	t.Setenv("AUTH_ISSUER", "activity-service")
	out, err := run(t, "", "token", "--customer", "cust-1", "--scope", "ingest,read")
	if err != nil {
		t.Fatalf("token error = %v", err)
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := auth.NewTokenManager("cli-secret", "activity-service", 60).ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Customer != "cust-1" || len(claims.Scopes) != 2 {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := run(t, "", "token"); err == nil {
		t.Fatalf("expected missing customer to fail")
	}
	if _, err := run(t, "", "token", "--customer", "c", "--scope", "admin"); err == nil {
		t.Fatalf("expected unknown scope to fail")
	}
}

func TestReadActivities_Errors(t *testing.T) {
	if _, err := run(t, "", "group", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected missing file error")
	}
	if _, err := run(t, "{", "group", "-"); err == nil {
		t.Fatalf("expected decode error")
	}
}
