package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/events"
	"github.com/spec-kit/activity-service/internal/grouping"
	"github.com/spec-kit/activity-service/internal/policy"
	"github.com/spec-kit/activity-service/internal/repository"
	apperrors "github.com/spec-kit/activity-service/pkg/util/errorutil"
)

// MaxRange bounds the span of a single insights query.
const MaxRange = 366 * 24 * time.Hour

// TimeRange is an inclusive [From, To] query window.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Validate checks ordering and span.
func (r TimeRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return apperrors.NewValidationError("from and to are required", nil)
	}
	if r.To.Before(r.From) {
		return apperrors.NewValidationError("to must not be before from", map[string]any{
			"from": r.From, "to": r.To,
		})
	}
	if r.To.Sub(r.From) > MaxRange {
		return apperrors.NewValidationError("range too large", map[string]any{"maxDays": int(MaxRange.Hours() / 24)})
	}
	return nil
}

func (r TimeRange) key() string {
	return fmt.Sprintf("%d:%d", r.From.Unix(), r.To.Unix())
}

// ViewStore caches computed views per customer scope.
type ViewStore interface {
	Get(ctx context.Context, scope, view string, dst any) (bool, error)
	Set(ctx context.Context, scope, view string, value any) error
	Invalidate(ctx context.Context, scope string) error
}

// ActivitySummary is a stored activity with a human readable description.
type ActivitySummary struct {
	*domain.Activity
	Summary string `json:"summary"`
}

// InsightsService computes dashboard aggregates over stored activities.
type InsightsService struct {
	activities  repository.ActivityRepository
	ticketStats repository.TicketStatsRepository
	cache       ViewStore
	policy      *policy.Policy
	grouper     *grouping.ActorGrouper
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// InsightsDependencies bundles collaborators for the insights service.
type InsightsDependencies struct {
	ActivityRepo    repository.ActivityRepository
	TicketStatsRepo repository.TicketStatsRepository
	Cache           ViewStore
	Policy          *policy.Policy
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewInsightsService constructs the service.
func NewInsightsService(deps InsightsDependencies) *InsightsService {
	s := &InsightsService{
		activities:  deps.ActivityRepo,
		ticketStats: deps.TicketStatsRepo,
		cache:       deps.Cache,
		policy:      deps.Policy,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
	if s.policy == nil {
		s.policy = policy.Default()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.grouper = grouping.NewActorGrouper(s.policy)
	return s
}

// GroupedActivities aggregates a customer's activities in the range.
func (s *InsightsService) GroupedActivities(ctx context.Context, customerID string, r TimeRange) (domain.GroupedActivities, error) {
	var out domain.GroupedActivities
	if err := r.Validate(); err != nil {
		return out, err
	}
	err := s.cached(ctx, customerID, "grouped:"+r.key(), &out, func() error {
		activities, err := s.activities.ListWindow(ctx, customerID, r.From, r.To)
		if err != nil {
			return err
		}
		out = grouping.GroupActivities(activities)
		return nil
	})
	return out, err
}

// GroupedActorActivities rolls up one actor's tickets and launch items.
func (s *InsightsService) GroupedActorActivities(ctx context.Context, customerID, actorID string, r TimeRange) (domain.GroupedActorActivities, error) {
	var out domain.GroupedActorActivities
	if err := r.Validate(); err != nil {
		return out, err
	}
	err := s.cached(ctx, customerID, "actor:"+actorID+":"+r.key(), &out, func() error {
		activities, err := s.activities.ListByActor(ctx, customerID, actorID, r.From, r.To)
		if err != nil {
			return err
		}
		out = s.grouper.GroupActorActivities(actorViews(activities))
		return nil
	})
	return out, err
}

// LaunchStats rolls the stored daily ticket statistics into launch item
// status counts and actor participation.
func (s *InsightsService) LaunchStats(ctx context.Context, customerID string, r TimeRange) (domain.LaunchStats, error) {
	var out domain.LaunchStats
	if err := r.Validate(); err != nil {
		return out, err
	}
	err := s.cached(ctx, customerID, "launch:"+r.key(), &out, func() error {
		stats, err := s.ticketStats.ListRange(ctx, customerID, r.From, r.To)
		if err != nil {
			return err
		}
		out = grouping.GroupLaunchStats(stats)
		return nil
	})
	return out, err
}

// Activities lists stored activities with summaries rendered from the policy
// phrase tables.
func (s *InsightsService) Activities(ctx context.Context, customerID string, r TimeRange) ([]ActivitySummary, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	activities, err := s.activities.ListWindow(ctx, customerID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	out := make([]ActivitySummary, 0, len(activities))
	for _, activity := range activities {
		out = append(out, ActivitySummary{Activity: activity, Summary: Describe(s.policy, activity)})
	}
	return out, nil
}

// RefreshDailyStats recomputes one actor's ticket statistics for the UTC day
// containing at.
func (s *InsightsService) RefreshDailyStats(ctx context.Context, customerID, actorID string, at time.Time) error {
	if actorID == "" {
		return nil
	}
	y, m, d := at.UTC().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Nanosecond)
	activities, err := s.activities.ListByActor(ctx, customerID, actorID, from, to)
	if err != nil {
		return fmt.Errorf("load day: %w", err)
	}
	rows := s.grouper.DailyStats(customerID, actorViews(activities))
	if len(rows) == 0 {
		// Every activity of the day was folded elsewhere; keep an empty row
		// so stale tickets stop counting.
		rows = []domain.DailyTicketStats{{
			Day:        from,
			CustomerID: customerID,
			ActorID:    actorID,
			Tickets:    []domain.LaunchTicket{},
		}}
	}
	return s.ticketStats.Upsert(ctx, rows)
}

// RegisterHandlers subscribes the service to ingest events.
func (s *InsightsService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventActivityIngested, s.handleActivityIngested)
	s.dispatcher.Subscribe(events.EventActivityCombined, s.handleActivityCombined)
}

func (s *InsightsService) handleActivityIngested(ctx context.Context, event events.Event) error {
	defer s.invalidate(ctx, event.CustomerID)
	payload, ok := event.Payload.(events.ActivityIngestedPayload)
	if !ok {
		return nil
	}
	if err := s.RefreshDailyStats(ctx, event.CustomerID, event.ActorID, payload.ActivityTime); err != nil {
		s.logger.Error("refresh daily ticket stats",
			zap.String("customer_id", event.CustomerID),
			zap.String("actor_id", event.ActorID),
			zap.Error(err))
		return err
	}
	return nil
}

// handleActivityCombined refreshes the day of the absorbed record, which may
// differ from the survivor's.
func (s *InsightsService) handleActivityCombined(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ActivityCombinedPayload)
	if !ok || payload.AbsorbedTime.IsZero() {
		return nil
	}
	defer s.invalidate(ctx, event.CustomerID)
	return s.RefreshDailyStats(ctx, event.CustomerID, event.ActorID, payload.AbsorbedTime)
}

func (s *InsightsService) invalidate(ctx context.Context, customerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, customerID); err != nil {
		s.logger.Warn("invalidate insights cache", zap.String("customer_id", customerID), zap.Error(err))
	}
}

// cached serves view from the cache or computes and stores it. Cache
// failures degrade to recomputation.
func (s *InsightsService) cached(ctx context.Context, scope, view string, dst any, compute func() error) error {
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, scope, view, dst)
		if err != nil {
			s.logger.Warn("read insights cache", zap.String("view", view), zap.Error(err))
		}
		if hit {
			return nil
		}
	}
	if err := compute(); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, scope, view, dst); err != nil {
			s.logger.Warn("write insights cache", zap.String("view", view), zap.Error(err))
		}
	}
	return nil
}

func actorViews(activities []*domain.Activity) []domain.ActorActivity {
	views := make([]domain.ActorActivity, 0, len(activities))
	for _, activity := range activities {
		if activity != nil {
			views = append(views, activity.ActorView())
		}
	}
	return views
}
