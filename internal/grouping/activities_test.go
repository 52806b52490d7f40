package grouping

import (
	"fmt"
	"testing"

	"github.com/spec-kit/activity-service/internal/domain"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestGroupActivities_TopActorsCapped(t *testing.T) {
	var activities []*domain.Activity
	for i := 0; i < 15; i++ {
		actor := fmt.Sprintf("actor-%02d", i)
		// actor-00 gets 15 activities, actor-14 gets one.
		for n := 0; n < 15-i; n++ {
			activities = append(activities, &domain.Activity{
				ActorID:  actor,
				Artifact: domain.ArtifactCode,
				Action:   domain.ActionCreated,
			})
		}
	}
	grouped := GroupActivities(activities)
	table := grouped.TopActors["code-created"]
	if len(table) != 11 {
		t.Fatalf("expected 11 rows, got %d", len(table))
	}
	if table[0].ActorID != "actor-00" || table[0].Count != 15 {
		t.Fatalf("unexpected leader %+v", table[0])
	}
	others := table[10]
	// actors 10..14 have 5+4+3+2+1 activities
	if others.ActorID != domain.OthersActorID || others.Count != 15 {
		t.Fatalf("unexpected others bucket %+v", others)
	}
}

func TestGroupActivities_TopActorsSingleEach(t *testing.T) {
	var activities []*domain.Activity
	for i := 0; i < 15; i++ {
		activities = append(activities, &domain.Activity{
			ActorID:  fmt.Sprintf("actor-%02d", i),
			Artifact: domain.ArtifactCode,
			Action:   domain.ActionCreated,
		})
	}
	table := GroupActivities(activities).TopActors["code-created"]
	if len(table) != 11 || table[10].Count != 5 {
		t.Fatalf("unexpected table %+v", table)
	}
}

func TestGroupActivities_EveryTablePresent(t *testing.T) {
	grouped := GroupActivities([]*domain.Activity{
		{ActorID: "a", Artifact: "mystery", Action: domain.ActionCreated},
		{ActorID: "a", Artifact: domain.ArtifactDoc, Action: "archived"},
	})
	if len(grouped.TopActors) != len(domain.Artifacts)*len(domain.Actions) {
		t.Fatalf("expected every artifact/action table, got %d", len(grouped.TopActors))
	}
	for key, table := range grouped.TopActors {
		if table == nil || len(table) != 0 {
			t.Fatalf("expected empty table for %s, got %+v", key, table)
		}
	}
}

func TestGroupActivities_PrioritiesSortedDescending(t *testing.T) {
	grouped := GroupActivities([]*domain.Activity{
		{Priority: intPtr(2)},
		{Priority: intPtr(5)},
		{Priority: intPtr(-1)},
		{Priority: intPtr(2)},
		{},
		{Priority: intPtr(0)},
	})
	want := []domain.PriorityCount{{ID: 5, Count: 1}, {ID: 2, Count: 2}, {ID: 0, Count: 1}}
	if len(grouped.Priorities) != len(want) {
		t.Fatalf("priorities = %+v, want %+v", grouped.Priorities, want)
	}
	for i := range want {
		if grouped.Priorities[i] != want[i] {
			t.Fatalf("priorities = %+v, want %+v", grouped.Priorities, want)
		}
	}
}

func TestGroupActivities_InitiativeCountersZeroInitialised(t *testing.T) {
	grouped := GroupActivities([]*domain.Activity{
		{ActorID: "a", Artifact: domain.ArtifactDoc, Action: domain.ActionCreated, InitiativeID: "init-1", Effort: floatPtr(2)},
		{ActorID: "b", Artifact: domain.ArtifactDoc, Action: domain.ActionUpdated, InitiativeID: "init-1", Phase: domain.PhaseDev},
		{ActorID: "a", Artifact: domain.ArtifactDoc, Action: domain.ActionUpdated, InitiativeID: "init-1", Effort: floatPtr(1.5)},
	})
	if len(grouped.Initiatives) != 1 {
		t.Fatalf("expected 1 initiative, got %d", len(grouped.Initiatives))
	}
	summary := grouped.Initiatives[0]
	if count, ok := summary.ArtifactCount[domain.ArtifactCode]; !ok || count != 0 {
		t.Fatalf("expected code counter present and zero, got %d (present=%v)", count, ok)
	}
	if summary.ArtifactCount[domain.ArtifactDoc] != 3 {
		t.Fatalf("doc count = %d", summary.ArtifactCount[domain.ArtifactDoc])
	}
	if len(summary.ArtifactCount) != len(domain.Artifacts) || len(summary.PhaseCount) != len(domain.Phases) {
		t.Fatalf("expected every counter present: %+v", summary)
	}
	if summary.PhaseCount[domain.PhaseDev] != 0 {
		t.Fatalf("initiatives do not count phases")
	}
	if summary.ActorCount != 2 || summary.Effort != 3.5 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestGroupActivities_LaunchItemsCountPhases(t *testing.T) {
	grouped := GroupActivities([]*domain.Activity{
		{ActorID: "a", Artifact: domain.ArtifactCode, Action: domain.ActionCreated, LaunchItemID: "li-1", Phase: domain.PhaseDev},
		{ActorID: "a", Artifact: domain.ArtifactTask, Action: domain.ActionCreated, LaunchItemID: "li-1", Phase: domain.PhaseTest},
		{ActorID: "b", Artifact: domain.ArtifactTask, Action: domain.ActionCreated, LaunchItemID: "li-2"},
	})
	if len(grouped.LaunchItems) != 2 || grouped.LaunchItems[0].ID != "li-1" {
		t.Fatalf("unexpected launch items %+v", grouped.LaunchItems)
	}
	first := grouped.LaunchItems[0]
	if first.PhaseCount[domain.PhaseDev] != 1 || first.PhaseCount[domain.PhaseTest] != 1 || first.PhaseCount[domain.PhaseOps] != 0 {
		t.Fatalf("unexpected phase counts %+v", first.PhaseCount)
	}
	if first.ActorCount != 1 || first.ArtifactCount[domain.ArtifactTask] != 1 {
		t.Fatalf("unexpected summary %+v", first)
	}
}

func TestGroupActivities_DoesNotMutateInput(t *testing.T) {
	activities := []*domain.Activity{
		{ActorID: "b", Artifact: domain.ArtifactCode, Action: domain.ActionCreated},
		{ActorID: "a", Artifact: domain.ArtifactCode, Action: domain.ActionCreated},
		{ActorID: "a", Artifact: domain.ArtifactCode, Action: domain.ActionCreated},
	}
	grouped := GroupActivities(activities)
	if activities[0].ActorID != "b" {
		t.Fatalf("input reordered")
	}
	table := grouped.TopActors["code-created"]
	if table[0].ActorID != "a" || table[1].ActorID != "b" {
		t.Fatalf("unexpected ranking %+v", table)
	}
}
