// Package mapper assigns activities to initiatives and launch items by
// evaluating the policy's rule lists against a dot-path view of the activity.
package mapper

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spec-kit/activity-service/internal/domain"
	"github.com/spec-kit/activity-service/internal/policy"
)

// Mapper resolves the ids an activity belongs to, in rule order.
type Mapper interface {
	MapActivity(activity *domain.Activity) []string
}

const (
	MatchAll = "all"
	MatchAny = "any"
)

const (
	OpEq       = "eq"
	OpNeq      = "neq"
	OpContains = "contains"
	OpPrefix   = "prefix"
	OpRegex    = "regex"
	OpExists   = "exists"
)

var ErrInvalidRule = errors.New("invalid mapping rule")

// RuleSet is a compiled, immutable list of rules.
type RuleSet struct {
	rules []compiledRule
}

type compiledRule struct {
	id         string
	matchAny   bool
	conditions []compiledCondition
}

type compiledCondition struct {
	path  string
	op    string
	value string
	re    *regexp.Regexp
}

// Compile validates the rules and precompiles their regular expressions.
func Compile(rules []policy.Rule) (*RuleSet, error) {
	set := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		if strings.TrimSpace(rule.ID) == "" {
			return nil, fmt.Errorf("%w: rule %d has no id", ErrInvalidRule, i)
		}
		compiled := compiledRule{id: rule.ID}
		switch strings.ToLower(rule.Match) {
		case "", MatchAll:
		case MatchAny:
			compiled.matchAny = true
		default:
			return nil, fmt.Errorf("%w: rule %s: unknown match %q", ErrInvalidRule, rule.ID, rule.Match)
		}
		for _, cond := range rule.Conditions {
			c, err := compileCondition(cond)
			if err != nil {
				return nil, fmt.Errorf("%w: rule %s: %v", ErrInvalidRule, rule.ID, err)
			}
			compiled.conditions = append(compiled.conditions, c)
		}
		set.rules = append(set.rules, compiled)
	}
	return set, nil
}

func compileCondition(cond policy.Condition) (compiledCondition, error) {
	if strings.TrimSpace(cond.Path) == "" {
		return compiledCondition{}, errors.New("condition without path")
	}
	c := compiledCondition{path: cond.Path, op: strings.ToLower(cond.Op), value: cond.Value}
	switch c.op {
	case OpEq, OpNeq, OpContains, OpPrefix, OpExists:
	case OpRegex:
		re, err := regexp.Compile(cond.Value)
		if err != nil {
			return compiledCondition{}, fmt.Errorf("path %s: %w", cond.Path, err)
		}
		c.re = re
	default:
		return compiledCondition{}, fmt.Errorf("path %s: unknown op %q", cond.Path, cond.Op)
	}
	return c, nil
}

// Len returns the number of compiled rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// MapActivity returns the id of every rule the activity satisfies.
func (s *RuleSet) MapActivity(activity *domain.Activity) []string {
	if s.Len() == 0 || activity == nil {
		return nil
	}
	v, err := newView(activity)
	if err != nil {
		return nil
	}
	var ids []string
	for _, rule := range s.rules {
		if rule.matches(v) {
			ids = append(ids, rule.id)
		}
	}
	return ids
}

func (r compiledRule) matches(v view) bool {
	if len(r.conditions) == 0 {
		return false
	}
	for _, cond := range r.conditions {
		ok := cond.eval(v)
		if r.matchAny && ok {
			return true
		}
		if !r.matchAny && !ok {
			return false
		}
	}
	return !r.matchAny
}

func (c compiledCondition) eval(v view) bool {
	value, found := v.lookup(c.path)
	if c.op == OpExists {
		return found
	}
	if c.op == OpNeq {
		return !found || !equals(value, c.value)
	}
	if !found {
		return false
	}
	switch c.op {
	case OpEq:
		return equals(value, c.value)
	case OpContains:
		if items, ok := value.([]any); ok {
			for _, item := range items {
				if equals(item, c.value) {
					return true
				}
			}
			return false
		}
		s, ok := scalarString(value)
		return ok && strings.Contains(s, c.value)
	case OpPrefix:
		s, ok := scalarString(value)
		return ok && strings.HasPrefix(s, c.value)
	case OpRegex:
		s, ok := scalarString(value)
		return ok && c.re.MatchString(s)
	}
	return false
}

func equals(value any, want string) bool {
	s, ok := scalarString(value)
	return ok && s == want
}
