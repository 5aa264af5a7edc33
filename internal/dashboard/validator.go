package dashboard

import (
	"fmt"
	"sync"

	"github.com/onnwee/school-dashboard/internal/logger"
)

// RuleKind selects which shape check applies to a key's values.
type RuleKind int

const (
	// RuleCounter expects a non-negative CounterValue.
	RuleCounter RuleKind = iota
	// RuleActivityList expects an ActivityListValue of well-formed records.
	RuleActivityList
	// RuleReport expects a ReportValue with non-negative counts.
	RuleReport
)

// CrossCheck constrains a candidate counter against another cached counter:
// candidate must not exceed the other value times Tolerance. The tolerance
// band absorbs eventually-consistent upstream data.
type CrossCheck struct {
	OtherKey  string
	Tolerance float64
}

// Rule is the validation rule configured for one data key.
type Rule struct {
	Kind RuleKind
	// SoftCeiling, when > 0, flags suspiciously large counters in the log
	// without rejecting them.
	SoftCeiling int64
	// MaxRecords, when > 0, bounds the length of an activity list.
	MaxRecords  int
	CrossChecks []CrossCheck
}

// Validator verifies fetched values before they are allowed into the cache.
// Rules are looked up by key; a key without a rule is accepted as-is.
// Cross-key checks read other entries through the store but never write.
type Validator struct {
	mu    sync.RWMutex
	rules map[string]Rule
	store *Store
	log   interface {
		Warn(msg string, args ...any)
		Debug(msg string, args ...any)
	}
}

// NewValidator creates a validator reading cross-check context from store.
func NewValidator(store *Store) *Validator {
	return &Validator{
		rules: make(map[string]Rule),
		store: store,
		log:   logger.WithComponent("validator"),
	}
}

// SetRule installs or replaces the rule for key.
func (v *Validator) SetRule(key string, rule Rule) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules[key] = rule
}

// Rule returns the configured rule for key, if any.
func (v *Validator) Rule(key string) (Rule, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	rule, ok := v.rules[key]
	return rule, ok
}

// Validate checks value against the rule for key. A nil return means the
// value may be cached; any error means it must be discarded outright.
func (v *Validator) Validate(key string, value Value) error {
	if value == nil {
		return &ValidationError{Key: key, Reason: "value is nil"}
	}

	v.mu.RLock()
	rule, ok := v.rules[key]
	v.mu.RUnlock()
	if !ok {
		v.log.Debug("no validation rule for key, accepting", "data_key", key)
		return nil
	}

	switch rule.Kind {
	case RuleCounter:
		return v.validateCounter(key, value, rule)
	case RuleActivityList:
		return v.validateActivityList(key, value, rule)
	case RuleReport:
		return v.validateReport(key, value)
	default:
		return &ValidationError{Key: key, Reason: fmt.Sprintf("unknown rule kind %d", rule.Kind)}
	}
}

func (v *Validator) validateCounter(key string, value Value, rule Rule) error {
	counter, ok := value.(CounterValue)
	if !ok {
		return &ValidationError{Key: key, Reason: fmt.Sprintf("expected counter, got %T", value)}
	}
	if counter < 0 {
		return &ValidationError{Key: key, Reason: fmt.Sprintf("negative counter %d", counter)}
	}
	if rule.SoftCeiling > 0 && int64(counter) > rule.SoftCeiling {
		// Flagged, not rejected: an unusually high count is worth a look
		// but may be legitimate.
		v.log.Warn("counter above sanity ceiling", "data_key", key, "value", int64(counter), "ceiling", rule.SoftCeiling)
	}
	return v.crossCheck(key, int64(counter), rule.CrossChecks)
}

func (v *Validator) validateActivityList(key string, value Value, rule Rule) error {
	list, ok := value.(ActivityListValue)
	if !ok {
		return &ValidationError{Key: key, Reason: fmt.Sprintf("expected activity list, got %T", value)}
	}
	if rule.MaxRecords > 0 && len(list) > rule.MaxRecords {
		return &ValidationError{Key: key, Reason: fmt.Sprintf("%d records exceeds limit %d", len(list), rule.MaxRecords)}
	}
	for i, activity := range list {
		if activity.Text == "" {
			return &ValidationError{Key: key, Reason: fmt.Sprintf("record %d has empty text", i)}
		}
		if activity.When.IsZero() {
			return &ValidationError{Key: key, Reason: fmt.Sprintf("record %d has zero timestamp", i)}
		}
	}
	return nil
}

func (v *Validator) validateReport(key string, value Value) error {
	report, ok := value.(ReportValue)
	if !ok {
		return &ValidationError{Key: key, Reason: fmt.Sprintf("expected report, got %T", value)}
	}
	for name, count := range report {
		if count < 0 {
			return &ValidationError{Key: key, Reason: fmt.Sprintf("report field %q is negative", name)}
		}
	}
	return nil
}

// crossCheck enforces consistency against already-cached counters. A missing
// or non-counter reference entry skips the check rather than failing it.
func (v *Validator) crossCheck(key string, candidate int64, checks []CrossCheck) error {
	for _, check := range checks {
		entry, ok := v.store.Peek(check.OtherKey)
		if !ok {
			continue
		}
		other, ok := entry.Value.(CounterValue)
		if !ok {
			continue
		}
		limit := int64(float64(other) * check.Tolerance)
		if candidate > limit {
			return &ValidationError{
				Key:    key,
				Reason: fmt.Sprintf("%d exceeds %s (%d) with tolerance %.2f", candidate, check.OtherKey, int64(other), check.Tolerance),
			}
		}
	}
	return nil
}
