package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/activity-service/internal/combiner"
	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/events"
	"github.com/spec-kit/activity-service/internal/observability"
	"github.com/spec-kit/activity-service/internal/persistence"
	"github.com/spec-kit/activity-service/internal/repository"
	apperrors "github.com/spec-kit/activity-service/pkg/util/errorutil"
)

// ErrInvalidActivity marks an activity that failed normalisation checks.
var ErrInvalidActivity = errors.New("invalid activity")

// ScopeLocker serialises combine runs of one activity stream.
type ScopeLocker interface {
	Acquire(ctx context.Context, scope string) (persistence.ReleaseFunc, error)
}

// ActivityAssigner resolves initiative and launch item ids.
type ActivityAssigner interface {
	Assign(activity *domain.Activity)
}

// ActivityService ingests normalized activities and folds them into the
// stored activity stream.
type ActivityService struct {
	activities repository.ActivityRepository
	locker     ScopeLocker
	assigner   ActivityAssigner
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	window     time.Duration
	now        func() time.Time
}

// ActivityDependencies bundles collaborators for the activity service.
type ActivityDependencies struct {
	ActivityRepo  repository.ActivityRepository
	Locker        ScopeLocker
	Assigner      ActivityAssigner
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	CombineWindow time.Duration
	Clock         func() time.Time
}

// IngestResult reports where an ingested activity ended up.
type IngestResult struct {
	Activity   *domain.Activity
	Rule       combiner.Rule
	AbsorbedID string
}

// Merged reports whether a stored record was folded into the activity.
func (r *IngestResult) Merged() bool {
	return r != nil && r.AbsorbedID != ""
}

// NewActivityService constructs the service.
func NewActivityService(deps ActivityDependencies) *ActivityService {
	s := &ActivityService{
		activities: deps.ActivityRepo,
		locker:     deps.Locker,
		assigner:   deps.Assigner,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		window:     deps.CombineWindow,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.window <= 0 {
		s.window = 72 * time.Hour
	}
	return s
}

// Ingest validates an activity, assigns its identity, and combines it with
// the actor's recent activities. The merged survivor replaces the absorbed
// record atomically.
func (s *ActivityService) Ingest(ctx context.Context, customerID string, activity *domain.Activity) (*IngestResult, error) {
	if err := validateActivity(customerID, activity); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	activity.CustomerID = customerID
	clientID := activity.ID != ""
	if !clientID {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedTimestamp.IsZero() {
		activity.CreatedTimestamp = now
	}
	activity.Timestamp = activity.Timestamp.UTC()
	activity.Combined = nil
	if s.assigner != nil {
		s.assigner.Assign(activity)
	}

	release, err := s.lock(ctx, streamScope(customerID, activity.ActorID))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release scope lock", zap.String("customer_id", customerID), zap.Error(err))
		}
	}()

	if clientID {
		if err := s.ensureNotStored(ctx, customerID, activity.ID); err != nil {
			return nil, err
		}
		if err := s.ensureNotAbsorbed(ctx, customerID, activity); err != nil {
			return nil, err
		}
	}

	window, err := s.loadWindow(ctx, customerID, activity)
	if err != nil {
		return nil, err
	}

	_, outcome, err := combiner.Combine(activity, window)
	if err != nil {
		return nil, apperrors.WrapValidation(ErrInvalidActivity, "activity could not be combined", nil)
	}

	result := &IngestResult{Activity: activity, Rule: outcome.Rule}
	if outcome.Merged() {
		result.AbsorbedID = outcome.Absorbed.ID
		if err := s.activities.ApplyCombination(ctx, activity, []string{outcome.Absorbed.ID}); err != nil {
			return nil, fmt.Errorf("apply combination: %w", err)
		}
	} else if err := s.activities.Upsert(ctx, activity); err != nil {
		return nil, fmt.Errorf("store activity: %w", err)
	}

	s.metrics.ActivityIngested(string(activity.EventType))
	s.metrics.ActivityCombined(string(outcome.Rule))
	s.logger.Debug("activity ingested",
		zap.String("customer_id", customerID),
		zap.String("activity_id", activity.ID),
		zap.String("rule", string(outcome.Rule)),
		zap.String("absorbed_id", result.AbsorbedID))

	s.publishEvent(ctx, events.Event{
		Type:       events.EventActivityIngested,
		CustomerID: customerID,
		ActorID:    activity.ActorID,
		ActivityID: activity.ID,
		Payload: events.ActivityIngestedPayload{
			EventType:    activity.EventType,
			Event:        activity.Event,
			ActivityTime: activity.Timestamp,
		},
	})
	if outcome.Merged() {
		s.publishEvent(ctx, events.Event{
			Type:       events.EventActivityCombined,
			CustomerID: customerID,
			ActorID:    activity.ActorID,
			ActivityID: activity.ID,
			Payload: events.ActivityCombinedPayload{
				Rule:         string(outcome.Rule),
				AbsorbedID:   outcome.Absorbed.ID,
				AbsorbedTime: outcome.Absorbed.Timestamp,
				History:      len(activity.Combined),
			},
		})
	}
	return result, nil
}

// List returns a customer's stored activities in a time range.
func (s *ActivityService) List(ctx context.Context, customerID string, r TimeRange) ([]*domain.Activity, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.activities.ListWindow(ctx, customerID, r.From, r.To)
}

func (s *ActivityService) lock(ctx context.Context, scope string) (persistence.ReleaseFunc, error) {
	if s.locker == nil {
		return func(context.Context) error { return nil }, nil
	}
	release, err := s.locker.Acquire(ctx, scope)
	if err != nil {
		if errors.Is(err, persistence.ErrLockTimeout) {
			return nil, apperrors.NewUnavailable("activity stream busy, retry later", err)
		}
		return nil, fmt.Errorf("lock %s: %w", scope, err)
	}
	return release, nil
}

// ensureNotStored rejects an id that already names a stored record of the
// customer.
func (s *ActivityService) ensureNotStored(ctx context.Context, customerID, id string) error {
	stored, err := s.activities.GetByID(ctx, customerID, id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("lookup activity %s: %w", id, err)
	case stored != nil:
		return duplicateActivity(id, stored.ID)
	}
	return nil
}

// ensureNotAbsorbed rejects an id already folded into a survivor. Survivors
// carry the newest timestamp of their history, so only records at or after
// the activity can hold it.
func (s *ActivityService) ensureNotAbsorbed(ctx context.Context, customerID string, activity *domain.Activity) error {
	if activity.ActorID == "" {
		return nil
	}
	to := s.now().UTC()
	if activity.Timestamp.After(to) {
		to = activity.Timestamp
	}
	later, err := s.activities.ListByActor(ctx, customerID, activity.ActorID, activity.Timestamp, to)
	if err != nil {
		return fmt.Errorf("load later activities: %w", err)
	}
	if holder := absorbedBy(later, activity.ID); holder != "" {
		return duplicateActivity(activity.ID, holder)
	}
	return nil
}

// loadWindow returns the actor's stored activities that the new one may fold
// into, oldest first. Records of other actors and records newer than the
// activity never match, so a late delivery cannot pull a survivor backwards.
func (s *ActivityService) loadWindow(ctx context.Context, customerID string, activity *domain.Activity) ([]*domain.Activity, error) {
	if activity.ActorID == "" {
		return nil, nil
	}
	to := activity.Timestamp
	from := to.Add(-s.window)
	window, err := s.activities.ListByActor(ctx, customerID, activity.ActorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load combine window: %w", err)
	}
	return window, nil
}

func (s *ActivityService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// absorbedBy returns the id of the record whose history already holds id.
func absorbedBy(window []*domain.Activity, id string) string {
	for _, candidate := range window {
		for _, ref := range candidate.Combined {
			if ref.ActivityID == id {
				return candidate.ID
			}
		}
	}
	return ""
}

func duplicateActivity(id, storedAs string) error {
	return apperrors.NewConflict("activity already ingested", map[string]any{
		"id":       id,
		"storedAs": storedAs,
	})
}

func streamScope(customerID, actorID string) string {
	return customerID + ":" + actorID
}

func validateActivity(customerID string, activity *domain.Activity) error {
	if activity == nil {
		return apperrors.WrapValidation(ErrInvalidActivity, "activity body is required", nil)
	}
	details := map[string]any{}
	if strings.TrimSpace(customerID) == "" {
		details["customerId"] = "required"
	}
	if activity.Timestamp.IsZero() {
		details["timestamp"] = "required"
	}
	if !activity.Artifact.Valid() {
		details["artifact"] = fmt.Sprintf("unknown artifact %q", activity.Artifact)
	}
	if !activity.Action.Valid() {
		details["action"] = fmt.Sprintf("unknown action %q", activity.Action)
	}
	if !activity.EventType.Valid() {
		details["eventType"] = fmt.Sprintf("unknown event type %q", activity.EventType)
	}
	if strings.TrimSpace(activity.Event) == "" {
		details["event"] = "required"
	}
	if activity.Phase != "" && !activity.Phase.Valid() {
		details["phase"] = fmt.Sprintf("unknown phase %q", activity.Phase)
	}
	if activity.Effort != nil && *activity.Effort < 0 {
		details["effort"] = "must not be negative"
	}
	if len(details) > 0 {
		return apperrors.WrapValidation(ErrInvalidActivity, "invalid activity", details)
	}
	return nil
}
