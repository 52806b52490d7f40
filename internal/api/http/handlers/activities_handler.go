package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/activity-service/internal/api/dto"
	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/service"
	apperrors "github.com/spec-kit/activity-service/pkg/util/errorutil"
)

// ActivitiesHandler manages activity ingest and listing endpoints.
type ActivitiesHandler struct {
	service *service.ActivityService
	now     func() time.Time
}

// NewActivitiesHandler constructs handler.
func NewActivitiesHandler(activityService *service.ActivityService) *ActivitiesHandler {
	return &ActivitiesHandler{service: activityService, now: time.Now}
}

// Ingest POST /v1/customers/:customerId/activities.
func (h *ActivitiesHandler) Ingest(c *fiber.Ctx) error {
	var activity domain.Activity
	if err := c.BodyParser(&activity); err != nil {
		return apperrors.WrapValidation(service.ErrInvalidActivity, "invalid payload", map[string]any{"body": err.Error()})
	}
	result, err := h.service.Ingest(c.UserContext(), c.Params("customerId"), &activity)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.IngestActivityResponse{
		Activity:   result.Activity,
		Merged:     result.Merged(),
		Rule:       string(result.Rule),
		AbsorbedID: result.AbsorbedID,
	}})
}

// List GET /v1/customers/:customerId/activities.
func (h *ActivitiesHandler) List(c *fiber.Ctx) error {
	r, err := parseRange(c, h.now())
	if err != nil {
		return err
	}
	activities, err := h.service.List(c.UserContext(), c.Params("customerId"), r)
	if err != nil {
		return err
	}
	if activities == nil {
		activities = []*domain.Activity{}
	}
	return c.JSON(fiber.Map{"data": dto.ActivityListResponse{
		From:       r.From,
		To:         r.To,
		Count:      len(activities),
		Activities: activities,
	}})
}

// parseRange reads from/to query parameters. A missing to means now and a
// missing from means DefaultRange before to.
func parseRange(c *fiber.Ctx, now time.Time) (service.TimeRange, error) {
	var q dto.RangeQuery
	if err := c.QueryParser(&q); err != nil {
		return service.TimeRange{}, apperrors.NewValidationError("invalid query", nil)
	}
	to, err := parseTime(q.To, now.UTC())
	if err != nil {
		return service.TimeRange{}, apperrors.NewValidationError("invalid to", map[string]any{"to": q.To})
	}
	from, err := parseTime(q.From, to.Add(-dto.DefaultRange))
	if err != nil {
		return service.TimeRange{}, apperrors.NewValidationError("invalid from", map[string]any{"from": q.From})
	}
	return service.TimeRange{From: from, To: to}, nil
}

func parseTime(val string, def time.Time) (time.Time, error) {
	if val == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
