package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/activity-service/internal/domain"
)

// memoryActivities is an in-memory ActivityRepository keyed by customer and
// id. Records are stored as JSON so callers never share pointers with the
// store.
type memoryActivities struct {
	mu      sync.Mutex
	docs    map[string][]byte
	applied int
}

func newMemoryActivities() *memoryActivities {
	return &memoryActivities{docs: map[string][]byte{}}
}

func (m *memoryActivities) put(a *domain.Activity) {
	raw, _ := json.Marshal(a)
	m.docs[docKey(a.CustomerID, a.ID)] = raw
}

func docKey(customerID, id string) string {
	return customerID + "|" + id
}

func (m *memoryActivities) all(match func(*domain.Activity) bool) []*domain.Activity {
	var out []*domain.Activity
	for _, raw := range m.docs {
		var a domain.Activity
		_ = json.Unmarshal(raw, &a)
		if match(&a) {
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].CreatedTimestamp.Before(out[j].CreatedTimestamp)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func inRange(ts, from, to time.Time) bool {
	return !ts.Before(from) && !ts.After(to)
}

func (m *memoryActivities) ListWindow(_ context.Context, customerID string, from, to time.Time) ([]*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.all(func(a *domain.Activity) bool {
		return a.CustomerID == customerID && inRange(a.Timestamp, from, to)
	}), nil
}

func (m *memoryActivities) ListByActor(_ context.Context, customerID, actorID string, from, to time.Time) ([]*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.all(func(a *domain.Activity) bool {
		return a.CustomerID == customerID && a.ActorID == actorID && inRange(a.Timestamp, from, to)
	}), nil
}

func (m *memoryActivities) GetByID(_ context.Context, customerID, id string) (*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[docKey(customerID, id)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	var a domain.Activity
	_ = json.Unmarshal(raw, &a)
	return &a, nil
}

func (m *memoryActivities) Upsert(_ context.Context, a *domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(a)
	return nil
}

func (m *memoryActivities) Delete(_ context.Context, customerID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.docs, docKey(customerID, id))
	}
	return nil
}

func (m *memoryActivities) ApplyCombination(_ context.Context, survivor *domain.Activity, absorbed []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range absorbed {
		delete(m.docs, docKey(survivor.CustomerID, id))
	}
	m.put(survivor)
	m.applied++
	return nil
}

type memoryTicketStats struct {
	mu   sync.Mutex
	rows map[string]domain.DailyTicketStats
}

func newMemoryTicketStats() *memoryTicketStats {
	return &memoryTicketStats{rows: map[string]domain.DailyTicketStats{}}
}

func (m *memoryTicketStats) Upsert(_ context.Context, stats []domain.DailyTicketStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range stats {
		m.rows[row.CustomerID+"|"+row.ActorID+"|"+row.Day.Format(time.DateOnly)] = row
	}
	return nil
}

func (m *memoryTicketStats) ListRange(_ context.Context, customerID string, from, to time.Time) ([]domain.DailyTicketStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DailyTicketStats
	for _, row := range m.rows {
		if row.CustomerID == customerID && inRange(row.Day, from, to) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day.Equal(out[j].Day) {
			return out[i].ActorID < out[j].ActorID
		}
		return out[i].Day.Before(out[j].Day)
	})
	return out, nil
}

// memoryViews is a ViewStore with the same version-bump semantics as the
// Redis cache.
type memoryViews struct {
	mu       sync.Mutex
	versions map[string]int
	views    map[string][]byte
	hits     int
}

func newMemoryViews() *memoryViews {
	return &memoryViews{versions: map[string]int{}, views: map[string][]byte{}}
}

func (m *memoryViews) key(scope, view string) string {
	return fmt.Sprintf("%s|%d|%s", scope, m.versions[scope], view)
}

func (m *memoryViews) Get(_ context.Context, scope, view string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.views[m.key(scope, view)]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, json.Unmarshal(raw, dst)
}

func (m *memoryViews) Set(_ context.Context, scope, view string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.views[m.key(scope, view)] = raw
	return nil
}

func (m *memoryViews) Invalidate(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[scope]++
	return nil
}
