package mapper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/activity-service/internal/domain"
)

// firstSuffix marks a path segment that reads element 0 of an array field.
const firstSuffix = "_1st"

// view is the JSON shaped, dot-path navigable form of an activity.
type view map[string]any

func newView(activity *domain.Activity) (view, error) {
	raw, err := json.Marshal(activity)
	if err != nil {
		return nil, fmt.Errorf("marshal activity: %w", err)
	}
	var v view
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal activity view: %w", err)
	}
	return v, nil
}

// lookup resolves a dot path such as "metadata.commits_1st.message". The
// second return value is false when any segment is missing.
func (v view) lookup(path string) (any, bool) {
	var current any = map[string]any(v)
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return nil, false
		}
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		first := false
		if name, found := strings.CutSuffix(segment, firstSuffix); found && name != "" {
			if _, exact := object[segment]; !exact {
				segment = name
				first = true
			}
		}
		next, ok := object[segment]
		if !ok || next == nil {
			return nil, false
		}
		if first {
			items, ok := next.([]any)
			if !ok || len(items) == 0 {
				return nil, false
			}
			next = items[0]
		}
		current = next
	}
	return current, true
}

// scalarString renders a leaf value for comparison. Objects and arrays have
// no scalar form.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}
