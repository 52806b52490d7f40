package grouping

import (
	"sort"

	"github.com/spec-kit/activity-service/internal/domain"
)

// GroupLaunchStats rolls a per-actor per-day ticket time series into ticket
// status counts per launch item and launch participation per actor. Rows are
// replayed in day order; the last status seen for a ticket of a launch item
// is the one counted.
func GroupLaunchStats(stats []domain.DailyTicketStats) domain.LaunchStats {
	rows := append([]domain.DailyTicketStats(nil), stats...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Day.Before(rows[j].Day) })

	launchItems := map[string]*launchAccumulator{}
	var launchOrder []string
	actors := map[string]*actorAccumulator{}
	var actorOrder []string

	launch := func(id string) *launchAccumulator {
		acc, ok := launchItems[id]
		if !ok {
			acc = &launchAccumulator{tickets: newTicketSet(), actors: map[string]struct{}{}}
			launchItems[id] = acc
			launchOrder = append(launchOrder, id)
		}
		return acc
	}

	for _, row := range rows {
		if row.ActorID == "" {
			continue
		}
		actor, ok := actors[row.ActorID]
		if !ok {
			actor = &actorAccumulator{launchItems: map[string]struct{}{}, tickets: map[string]struct{}{}}
			actors[row.ActorID] = actor
			actorOrder = append(actorOrder, row.ActorID)
		}
		for _, ticket := range row.Tickets {
			actor.tickets[ticket.Key] = struct{}{}
			if ticket.LaunchItemID == "" {
				continue
			}
			acc := launch(ticket.LaunchItemID)
			acc.tickets.upsert(ticket.Key, ticket.Status)
			acc.actors[row.ActorID] = struct{}{}
			actor.launchItems[ticket.LaunchItemID] = struct{}{}
		}
		for id, effort := range row.LaunchEffort {
			acc := launch(id)
			acc.effort += effort
			acc.actors[row.ActorID] = struct{}{}
			actor.launchItems[id] = struct{}{}
		}
	}

	out := domain.LaunchStats{
		LaunchItems: make([]domain.LaunchItemTicketStats, 0, len(launchOrder)),
		Actors:      make([]domain.ActorLaunchStats, 0, len(actorOrder)),
	}
	for _, id := range launchOrder {
		acc := launchItems[id]
		item := domain.LaunchItemTicketStats{
			ID:          id,
			StatusCount: make(map[domain.TicketStatus]int, len(domain.TicketStatuses)),
			TicketCount: len(acc.tickets.tickets),
			ActorCount:  len(acc.actors),
			Effort:      acc.effort,
		}
		for _, status := range domain.TicketStatuses {
			item.StatusCount[status] = 0
		}
		for _, ticket := range acc.tickets.tickets {
			if ticket.Status.Valid() {
				item.StatusCount[ticket.Status]++
			} else {
				item.Unclassified++
			}
		}
		out.LaunchItems = append(out.LaunchItems, item)
	}
	for _, id := range actorOrder {
		acc := actors[id]
		ids := make([]string, 0, len(acc.launchItems))
		for launchID := range acc.launchItems {
			ids = append(ids, launchID)
		}
		sort.Strings(ids)
		out.Actors = append(out.Actors, domain.ActorLaunchStats{
			ActorID:       id,
			LaunchItemIDs: ids,
			TicketCount:   len(acc.tickets),
		})
	}
	return out
}

type launchAccumulator struct {
	tickets *ticketSet
	actors  map[string]struct{}
	effort  float64
}

type actorAccumulator struct {
	launchItems map[string]struct{}
	tickets     map[string]struct{}
}
