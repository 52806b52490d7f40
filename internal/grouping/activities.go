// Package grouping turns combined activity lists and ticket statistics into
// the aggregate views rendered by the dashboard.
package grouping

import (
	"sort"

	"github.com/spec-kit/activity-service/internal/domain"
)

// TopActorsLimit is the number of actors kept per artifact/action before the
// remainder is folded into the "others" bucket.
const TopActorsLimit = 10

// GroupActivities aggregates a combined activity list into top actors per
// artifact/action, a priority histogram and per initiative / launch item
// summaries. The input is not modified.
func GroupActivities(activities []*domain.Activity) domain.GroupedActivities {
	top := newTopActors()
	var priorities []domain.PriorityCount
	initiatives := newAggregates()
	launchItems := newAggregates()

	for _, activity := range activities {
		if activity == nil {
			continue
		}
		if activity.ActorID != "" {
			top.add(activity.Artifact, activity.Action, activity.ActorID)
		}
		if activity.HasPriority() {
			priorities = incrementPriority(priorities, *activity.Priority)
		}
		if activity.InitiativeID != "" {
			agg := initiatives.get(activity.InitiativeID)
			agg.addArtifact(activity.Artifact)
			agg.addActor(activity.ActorID)
			agg.effort += activity.EffortValue()
		}
		if activity.LaunchItemID != "" {
			agg := launchItems.get(activity.LaunchItemID)
			agg.addArtifact(activity.Artifact)
			agg.addActor(activity.ActorID)
			agg.effort += activity.EffortValue()
			if activity.Phase.Valid() {
				agg.phaseCount[activity.Phase]++
			}
		}
	}

	out := domain.GroupedActivities{
		TopActors:   top.ranked(TopActorsLimit),
		Priorities:  priorities,
		Initiatives: make([]domain.InitiativeSummary, 0, len(initiatives.order)),
		LaunchItems: make([]domain.LaunchItemSummary, 0, len(launchItems.order)),
	}
	if out.Priorities == nil {
		out.Priorities = []domain.PriorityCount{}
	}
	for _, agg := range initiatives.list() {
		out.Initiatives = append(out.Initiatives, domain.InitiativeSummary{
			ID:            agg.id,
			ArtifactCount: agg.artifactCount,
			PhaseCount:    agg.phaseCount,
			ActorCount:    len(agg.actors),
			Effort:        agg.effort,
		})
	}
	for _, agg := range launchItems.list() {
		out.LaunchItems = append(out.LaunchItems, domain.LaunchItemSummary{
			ID:            agg.id,
			ArtifactCount: agg.artifactCount,
			PhaseCount:    agg.phaseCount,
			ActorCount:    len(agg.actors),
			Effort:        agg.effort,
		})
	}
	return out
}

// incrementPriority bumps a histogram bucket, keeping buckets sorted by
// descending priority id.
func incrementPriority(buckets []domain.PriorityCount, id int) []domain.PriorityCount {
	pos := sort.Search(len(buckets), func(i int) bool { return buckets[i].ID <= id })
	if pos < len(buckets) && buckets[pos].ID == id {
		buckets[pos].Count++
		return buckets
	}
	buckets = append(buckets, domain.PriorityCount{})
	copy(buckets[pos+1:], buckets[pos:])
	buckets[pos] = domain.PriorityCount{ID: id, Count: 1}
	return buckets
}

type topActors struct {
	tables map[string]*actorTable
}

type actorTable struct {
	index  map[string]int
	counts []domain.ActorCount
}

func newTopActors() *topActors {
	t := &topActors{tables: make(map[string]*actorTable, len(domain.Artifacts)*len(domain.Actions))}
	for _, artifact := range domain.Artifacts {
		for _, action := range domain.Actions {
			t.tables[domain.TopActorsKey(artifact, action)] = &actorTable{index: map[string]int{}}
		}
	}
	return t
}

// add counts one activity. Unknown artifact/action pairs have no table and
// are skipped.
func (t *topActors) add(artifact domain.Artifact, action domain.Action, actorID string) {
	table, ok := t.tables[domain.TopActorsKey(artifact, action)]
	if !ok {
		return
	}
	if i, ok := table.index[actorID]; ok {
		table.counts[i].Count++
		return
	}
	table.index[actorID] = len(table.counts)
	table.counts = append(table.counts, domain.ActorCount{ActorID: actorID, Count: 1})
}

func (t *topActors) ranked(limit int) map[string][]domain.ActorCount {
	out := make(map[string][]domain.ActorCount, len(t.tables))
	for key, table := range t.tables {
		counts := append([]domain.ActorCount(nil), table.counts...)
		sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
		if len(counts) <= limit {
			if counts == nil {
				counts = []domain.ActorCount{}
			}
			out[key] = counts
			continue
		}
		others := 0
		for _, rest := range counts[limit:] {
			others += rest.Count
		}
		ranked := counts[:limit:limit]
		if others > 0 {
			ranked = append(ranked, domain.ActorCount{ActorID: domain.OthersActorID, Count: others})
		}
		out[key] = ranked
	}
	return out
}

type aggregate struct {
	id            string
	artifactCount map[domain.Artifact]int
	phaseCount    map[domain.Phase]int
	actors        map[string]struct{}
	effort        float64
}

func (a *aggregate) addArtifact(artifact domain.Artifact) {
	if _, ok := a.artifactCount[artifact]; ok {
		a.artifactCount[artifact]++
	}
}

func (a *aggregate) addActor(actorID string) {
	if actorID != "" {
		a.actors[actorID] = struct{}{}
	}
}

type aggregates struct {
	byID  map[string]*aggregate
	order []string
}

func newAggregates() *aggregates {
	return &aggregates{byID: map[string]*aggregate{}}
}

func (a *aggregates) get(id string) *aggregate {
	if agg, ok := a.byID[id]; ok {
		return agg
	}
	agg := &aggregate{
		id:            id,
		artifactCount: make(map[domain.Artifact]int, len(domain.Artifacts)),
		phaseCount:    make(map[domain.Phase]int, len(domain.Phases)),
		actors:        map[string]struct{}{},
	}
	for _, artifact := range domain.Artifacts {
		agg.artifactCount[artifact] = 0
	}
	for _, phase := range domain.Phases {
		agg.phaseCount[phase] = 0
	}
	a.byID[id] = agg
	a.order = append(a.order, id)
	return agg
}

func (a *aggregates) list() []*aggregate {
	out := make([]*aggregate, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}
