package worker

import (
	"github.com/spec-kit/activity-service/internal/service"
)

// StartInsightsWorker registers the handlers that keep daily ticket
// statistics and cached insight views in step with ingestion.
func StartInsightsWorker(insights *service.InsightsService) {
	if insights == nil {
		return
	}
	insights.RegisterHandlers()
}
