package mapper

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/spec-kit/activity-service/internal/policy"
)

// Cache owns compiled rule sets keyed by a hash of their definitions, so
// each configuration version is compiled once.
type Cache struct {
	mu   sync.RWMutex
	sets map[string]*RuleSet
}

// NewCache returns an empty compiled rule cache.
func NewCache() *Cache {
	return &Cache{sets: map[string]*RuleSet{}}
}

// Version returns the stable hash of a rule list.
func Version(rules []policy.Rule) (string, error) {
	raw, err := json.Marshal(rules)
	if err != nil {
		return "", fmt.Errorf("encode rules: %w", err)
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Get returns the compiled form of rules, compiling on first use.
func (c *Cache) Get(rules []policy.Rule) (*RuleSet, error) {
	version, err := Version(rules)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	set, ok := c.sets[version]
	c.mu.RUnlock()
	if ok {
		return set, nil
	}

	set, err = Compile(rules)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.sets[version]; ok {
		return existing, nil
	}
	c.sets[version] = set
	return set, nil
}

// Len returns the number of cached versions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets)
}
