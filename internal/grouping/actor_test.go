package grouping

import (
	"testing"
	"time"

	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/policy"
)

var day = time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)

func issueActivity(minute int, key, status string) domain.ActorActivity {
	return domain.ActorActivity{
		Timestamp: day.Add(time.Duration(minute) * time.Minute),
		ActorID:   "alice",
		Metadata:  &domain.Metadata{Issue: &domain.Issue{Key: key, Status: status}},
	}
}

func TestGroupActorActivities_LastStatusWins(t *testing.T) {
	g := NewActorGrouper(policy.Default())
	// Delivered out of order on purpose; grouping sorts by timestamp.
	grouped := g.GroupActorActivities([]domain.ActorActivity{
		issueActivity(10, "PROJ-1", "Blocked"),
		issueActivity(0, "PROJ-1", "To Do"),
	})
	if len(grouped.Tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %+v", grouped.Tickets)
	}
	if got := grouped.Tickets[0]; got.Key != "PROJ-1" || got.Status != domain.TicketStatusBlocked {
		t.Fatalf("unexpected ticket %+v", got)
	}
}

func TestGroupActorActivities_LaunchItemsAndEffort(t *testing.T) {
	g := NewActorGrouper(policy.Default())
	effort := 2.0
	grouped := g.GroupActorActivities([]domain.ActorActivity{
		{
			Timestamp:    day,
			ActorID:      "alice",
			Event:        "push",
			LaunchItemID: "li-1",
			Effort:       &effort,
			Metadata: &domain.Metadata{Commits: []domain.Commit{
				{URL: "u1", Message: "ABC-1 start, see CVE-2024"},
				{URL: "u2", Message: "ABC-2 and ABC-1"},
			}},
		},
		{
			Timestamp:    day.Add(time.Hour),
			ActorID:      "alice",
			LaunchItemID: "li-1",
			Ongoing:      true,
			Description:  "follow up on ABC-3",
		},
		{
			Timestamp:   day.Add(2 * time.Hour),
			ActorID:     "alice",
			Description: "unrelated UTF-8 cleanup for XYZ-9",
		},
	})
	keys := make([]string, 0, len(grouped.Tickets))
	for _, ticket := range grouped.Tickets {
		keys = append(keys, ticket.Key)
		if ticket.Key != "XYZ-9" && ticket.Status != domain.TicketStatusInProgress {
			t.Fatalf("unexpected status for %s: %q", ticket.Key, ticket.Status)
		}
	}
	want := []string{"ABC-1", "ABC-2", "ABC-3", "XYZ-9"}
	if len(keys) != len(want) {
		t.Fatalf("tickets = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("tickets = %v, want %v", keys, want)
		}
	}
	if len(grouped.LaunchItems) != 1 {
		t.Fatalf("expected 1 launch item, got %+v", grouped.LaunchItems)
	}
	item := grouped.LaunchItems[0]
	if item.ID != "li-1" || len(item.Tickets) != 3 || item.Effort != 2 {
		t.Fatalf("unexpected launch item %+v", item)
	}
	if grouped.Effort != 2 {
		t.Fatalf("effort = %v", grouped.Effort)
	}
}

func TestDailyStats_BucketsByActorAndDay(t *testing.T) {
	g := NewActorGrouper(policy.Default())
	effort := 1.0
	rows := g.DailyStats("cust-1", []domain.ActorActivity{
		{Timestamp: day, ActorID: "alice", LaunchItemID: "li-1", Effort: &effort,
			Metadata: &domain.Metadata{Issue: &domain.Issue{Key: "ABC-1", Status: "Done"}}},
		{Timestamp: day.Add(time.Hour), ActorID: "bob",
			Metadata: &domain.Metadata{Issue: &domain.Issue{Key: "ABC-2", Status: "In Progress"}}},
		{Timestamp: day.Add(26 * time.Hour), ActorID: "alice",
			Metadata: &domain.Metadata{Issue: &domain.Issue{Key: "ABC-1", Status: "Reopened"}}},
		{Timestamp: day, Metadata: &domain.Metadata{Issue: &domain.Issue{Key: "ABC-4"}}},
	})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.ActorID != "alice" || first.CustomerID != "cust-1" || !first.Day.Equal(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first row %+v", first)
	}
	if len(first.Tickets) != 1 || first.Tickets[0].LaunchItemID != "li-1" || first.Tickets[0].Status != domain.TicketStatusCompleted {
		t.Fatalf("unexpected tickets %+v", first.Tickets)
	}
	if first.LaunchEffort["li-1"] != 1 {
		t.Fatalf("unexpected launch effort %+v", first.LaunchEffort)
	}
	if rows[1].ActorID != "bob" || rows[1].Tickets[0].LaunchItemID != "" {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
	if rows[2].Tickets[0].Status != domain.TicketStatusInProgress {
		t.Fatalf("unexpected third row %+v", rows[2])
	}
}
