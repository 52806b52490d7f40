package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/activity-service/internal/api/dto"
	"github.com/spec-kit/activity-service/internal/service"
)

// InsightsHandler serves dashboard aggregates.
type InsightsHandler struct {
	service *service.InsightsService
	now     func() time.Time
}

// NewInsightsHandler constructs handler.
func NewInsightsHandler(insightsService *service.InsightsService) *InsightsHandler {
	return &InsightsHandler{service: insightsService, now: time.Now}
}

// GroupedActivities GET /v1/customers/:customerId/insights/activities.
func (h *InsightsHandler) GroupedActivities(c *fiber.Ctx) error {
	r, err := parseRange(c, h.now())
	if err != nil {
		return err
	}
	grouped, err := h.service.GroupedActivities(c.UserContext(), c.Params("customerId"), r)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grouped})
}

// ActorActivities GET /v1/customers/:customerId/insights/actors/:actorId.
func (h *InsightsHandler) ActorActivities(c *fiber.Ctx) error {
	r, err := parseRange(c, h.now())
	if err != nil {
		return err
	}
	grouped, err := h.service.GroupedActorActivities(c.UserContext(), c.Params("customerId"), c.Params("actorId"), r)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grouped})
}

// LaunchStats GET /v1/customers/:customerId/insights/launch-items.
func (h *InsightsHandler) LaunchStats(c *fiber.Ctx) error {
	r, err := parseRange(c, h.now())
	if err != nil {
		return err
	}
	stats, err := h.service.LaunchStats(c.UserContext(), c.Params("customerId"), r)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Summaries GET /v1/customers/:customerId/insights/summaries.
func (h *InsightsHandler) Summaries(c *fiber.Ctx) error {
	r, err := parseRange(c, h.now())
	if err != nil {
		return err
	}
	activities, err := h.service.Activities(c.UserContext(), c.Params("customerId"), r)
	if err != nil {
		return err
	}
	items := make([]dto.ActivitySummaryResponse, 0, len(activities))
	for _, a := range activities {
		items = append(items, dto.ActivitySummaryResponse{
			ID:        a.ID,
			ActorID:   a.ActorID,
			Timestamp: a.Timestamp,
			Artifact:  a.Artifact,
			Action:    a.Action,
			EventType: a.EventType,
			Summary:   a.Summary,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
