package grouping

import (
	"slices"
	"sort"
	"time"

	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/policy"
	"github.com/spec-kit/activity-service/internal/tickets"
)

// ActorGrouper builds per-actor ticket rollups.
type ActorGrouper struct {
	extractor  *tickets.Extractor
	classifier *tickets.Classifier
}

// NewActorGrouper builds a grouper using the policy tables for fake ticket
// filtering and status inference.
func NewActorGrouper(p *policy.Policy) *ActorGrouper {
	return &ActorGrouper{
		extractor:  tickets.NewExtractor(p),
		classifier: tickets.NewClassifier(p),
	}
}

// GroupActorActivities sorts the activities by timestamp and collects every
// referenced ticket with its latest inferred status, overall and per launch
// item, together with effort sums.
func (g *ActorGrouper) GroupActorActivities(activities []domain.ActorActivity) domain.GroupedActorActivities {
	sorted := slices.Clone(activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	all := newTicketSet()
	launchItems := map[string]*launchRollup{}
	var launchOrder []string
	var effort float64

	for _, activity := range sorted {
		keys := g.extractor.FindTickets(activity.Metadata, activity.Description)
		status := g.classifier.InferTicketStatus(activity.Metadata, activity.Event, activity.Ongoing)
		for _, key := range keys {
			all.upsert(key, status)
		}
		value := 0.0
		if activity.Effort != nil {
			value = *activity.Effort
		}
		effort += value
		if activity.LaunchItemID == "" {
			continue
		}
		rollup, ok := launchItems[activity.LaunchItemID]
		if !ok {
			rollup = &launchRollup{tickets: newTicketSet()}
			launchItems[activity.LaunchItemID] = rollup
			launchOrder = append(launchOrder, activity.LaunchItemID)
		}
		for _, key := range keys {
			rollup.tickets.upsert(key, status)
		}
		rollup.effort += value
	}

	out := domain.GroupedActorActivities{
		Tickets:     all.list(),
		LaunchItems: make([]domain.ActorLaunchItem, 0, len(launchOrder)),
		Effort:      effort,
	}
	for _, id := range launchOrder {
		rollup := launchItems[id]
		out.LaunchItems = append(out.LaunchItems, domain.ActorLaunchItem{
			ID:      id,
			Tickets: rollup.tickets.list(),
			Effort:  rollup.effort,
		})
	}
	return out
}

// DailyStats buckets activities by actor and UTC day and rolls each bucket
// into a DailyTicketStats row. Rows are ordered by day, then by the actor's
// first appearance.
func (g *ActorGrouper) DailyStats(customerID string, activities []domain.ActorActivity) []domain.DailyTicketStats {
	type bucketKey struct {
		day   time.Time
		actor string
	}
	buckets := map[bucketKey][]domain.ActorActivity{}
	var keys []bucketKey
	for _, activity := range activities {
		if activity.ActorID == "" {
			continue
		}
		key := bucketKey{day: utcDay(activity.Timestamp), actor: activity.ActorID}
		if _, ok := buckets[key]; !ok {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], activity)
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].day.Before(keys[j].day) })

	out := make([]domain.DailyTicketStats, 0, len(keys))
	for _, key := range keys {
		grouped := g.GroupActorActivities(buckets[key])
		row := domain.DailyTicketStats{
			Day:        key.day,
			CustomerID: customerID,
			ActorID:    key.actor,
			Tickets:    []domain.LaunchTicket{},
			Effort:     grouped.Effort,
		}
		attributed := map[string]struct{}{}
		for _, item := range grouped.LaunchItems {
			if row.LaunchEffort == nil {
				row.LaunchEffort = map[string]float64{}
			}
			row.LaunchEffort[item.ID] += item.Effort
			for _, ticket := range item.Tickets {
				attributed[ticket.Key] = struct{}{}
				row.Tickets = append(row.Tickets, domain.LaunchTicket{
					Key:          ticket.Key,
					Status:       ticket.Status,
					LaunchItemID: item.ID,
				})
			}
		}
		for _, ticket := range grouped.Tickets {
			if _, ok := attributed[ticket.Key]; ok {
				continue
			}
			row.Tickets = append(row.Tickets, domain.LaunchTicket{Key: ticket.Key, Status: ticket.Status})
		}
		out = append(out, row)
	}
	return out
}

func utcDay(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type launchRollup struct {
	tickets *ticketSet
	effort  float64
}

// ticketSet keeps tickets in first-seen order with last-writer-wins status.
type ticketSet struct {
	index   map[string]int
	tickets []domain.Ticket
}

func newTicketSet() *ticketSet {
	return &ticketSet{index: map[string]int{}}
}

func (s *ticketSet) upsert(key string, status domain.TicketStatus) {
	if i, ok := s.index[key]; ok {
		s.tickets[i].Status = status
		return
	}
	s.index[key] = len(s.tickets)
	s.tickets = append(s.tickets, domain.Ticket{Key: key, Status: status})
}

func (s *ticketSet) list() []domain.Ticket {
	if len(s.tickets) == 0 {
		return []domain.Ticket{}
	}
	return append([]domain.Ticket(nil), s.tickets...)
}
