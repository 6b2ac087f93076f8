package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Frequency is the base unit of a recurrence rule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// ErrInvalidRule is returned when a recurrence rule cannot be used.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// RecurringRule describes how a task repeats. DaysOfWeek (Sunday = 0) only
// applies to weekly rules.
type RecurringRule struct {
	Frequency  Frequency `json:"frequency"`
	Interval   int       `json:"interval"`
	DaysOfWeek []int     `json:"daysOfWeek,omitempty"`
}

// Validate checks frequency and interval. Out-of-range weekdays are not an
// error; the recurrence engine ignores them.
func (r RecurringRule) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidRule, r.Interval)
	}
	return nil
}

// Weekdays returns the sorted, de-duplicated weekdays in 0..6.
func (r RecurringRule) Weekdays() []int {
	seen := make(map[int]bool, len(r.DaysOfWeek))
	days := make([]int, 0, len(r.DaysOfWeek))
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Clone returns a copy with its own DaysOfWeek slice.
func (r RecurringRule) Clone() RecurringRule {
	c := r
	if r.DaysOfWeek != nil {
		c.DaysOfWeek = append([]int{}, r.DaysOfWeek...)
	}
	return c
}

// Equal compares two rules field by field.
func (r RecurringRule) Equal(o RecurringRule) bool {
	if r.Frequency != o.Frequency || r.Interval != o.Interval || len(r.DaysOfWeek) != len(o.DaysOfWeek) {
		return false
	}
	for i := range r.DaysOfWeek {
		if r.DaysOfWeek[i] != o.DaysOfWeek[i] {
			return false
		}
	}
	return true
}

// MarshalRule serializes a rule into its storage form.
func MarshalRule(r RecurringRule) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseRule decodes and validates a serialized rule.
func ParseRule(raw string) (*RecurringRule, error) {
	var r RecurringRule
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
