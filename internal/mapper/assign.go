package mapper

import (
	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/policy"
)

// Assigner tags activities with the first matching initiative and launch
// item.
type Assigner struct {
	initiatives Mapper
	launchItems Mapper
}

// NewAssigner compiles the policy's rule lists through the cache.
func NewAssigner(cache *Cache, p *policy.Policy) (*Assigner, error) {
	if cache == nil {
		cache = NewCache()
	}
	var initiativeRules, launchRules []policy.Rule
	if p != nil {
		initiativeRules, launchRules = p.Initiatives, p.LaunchItems
	}
	initiatives, err := cache.Get(initiativeRules)
	if err != nil {
		return nil, err
	}
	launchItems, err := cache.Get(launchRules)
	if err != nil {
		return nil, err
	}
	return &Assigner{initiatives: initiatives, launchItems: launchItems}, nil
}

// Assign fills InitiativeID and LaunchItemID when the activity does not
// carry them already.
func (a *Assigner) Assign(activity *domain.Activity) {
	if a == nil || activity == nil {
		return
	}
	if activity.InitiativeID == "" {
		if ids := a.initiatives.MapActivity(activity); len(ids) > 0 {
			activity.InitiativeID = ids[0]
		}
	}
	if activity.LaunchItemID == "" {
		if ids := a.launchItems.MapActivity(activity); len(ids) > 0 {
			activity.LaunchItemID = ids[0]
		}
	}
}
