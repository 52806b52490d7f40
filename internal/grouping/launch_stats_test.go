package grouping

import (
	"testing"
	"time"

	"github.com/spec-kit/activity-service/internal/domain"
)

func TestGroupLaunchStats(t *testing.T) {
	d1 := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	stats := GroupLaunchStats([]domain.DailyTicketStats{
		{
			Day:     d2,
			ActorID: "alice",
			Tickets: []domain.LaunchTicket{
				{Key: "ABC-1", Status: domain.TicketStatusCompleted, LaunchItemID: "li-1"},
			},
			LaunchEffort: map[string]float64{"li-1": 2},
		},
		{
			Day:     d1,
			ActorID: "alice",
			Tickets: []domain.LaunchTicket{
				{Key: "ABC-1", Status: domain.TicketStatusInProgress, LaunchItemID: "li-1"},
				{Key: "ABC-2", LaunchItemID: "li-1"},
				{Key: "ABC-9"},
			},
			LaunchEffort: map[string]float64{"li-1": 1},
		},
		{
			Day:     d1,
			ActorID: "bob",
			Tickets: []domain.LaunchTicket{
				{Key: "XYZ-1", Status: domain.TicketStatusBlocked, LaunchItemID: "li-2"},
				{Key: "ABC-2", Status: domain.TicketStatusNew, LaunchItemID: "li-1"},
			},
		},
	})

	if len(stats.LaunchItems) != 2 {
		t.Fatalf("expected 2 launch items, got %+v", stats.LaunchItems)
	}
	li1 := stats.LaunchItems[0]
	if li1.ID != "li-1" {
		t.Fatalf("expected li-1 first, got %s", li1.ID)
	}
	if li1.TicketCount != 2 || li1.ActorCount != 2 || li1.Effort != 3 {
		t.Fatalf("unexpected li-1 stats %+v", li1)
	}
	if li1.StatusCount[domain.TicketStatusCompleted] != 1 || li1.StatusCount[domain.TicketStatusNew] != 1 {
		t.Fatalf("unexpected status counts %+v", li1.StatusCount)
	}
	if li1.StatusCount[domain.TicketStatusInProgress] != 0 || li1.Unclassified != 0 {
		t.Fatalf("expected superseded statuses dropped: %+v", li1)
	}
	if len(li1.StatusCount) != len(domain.TicketStatuses) {
		t.Fatalf("expected every status present")
	}

	if len(stats.Actors) != 2 {
		t.Fatalf("expected 2 actors, got %+v", stats.Actors)
	}
	alice := stats.Actors[0]
	if alice.ActorID != "alice" || alice.TicketCount != 3 || len(alice.LaunchItemIDs) != 1 {
		t.Fatalf("unexpected alice stats %+v", alice)
	}
	bob := stats.Actors[1]
	if len(bob.LaunchItemIDs) != 2 || bob.LaunchItemIDs[0] != "li-1" || bob.LaunchItemIDs[1] != "li-2" {
		t.Fatalf("unexpected bob stats %+v", bob)
	}
}

func TestGroupLaunchStats_Empty(t *testing.T) {
	stats := GroupLaunchStats(nil)
	if stats.LaunchItems == nil || stats.Actors == nil {
		t.Fatalf("expected empty, non-nil slices")
	}
}
