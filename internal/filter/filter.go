// Package filter evaluates task filters used by views and smart filters.
package filter

import (
	"strings"

	"github.com/fentz26/cadence/internal/models"
)

// criterion pairs "is this field populated" with its predicate. Matches,
// CountActive and IsActive all walk the same table, so a new filter field only
// needs to be added here.
type criterion struct {
	name   string
	active func(f *models.Filter) bool
	match  func(t *models.Task, f *models.Filter) bool
}

var criteria = []criterion{
	{
		name:   "status",
		active: func(f *models.Filter) bool { return len(f.Status) > 0 },
		match: func(t *models.Task, f *models.Filter) bool {
			for _, s := range f.Status {
				if t.Status == s {
					return true
				}
			}
			return false
		},
	},
	{
		name:   "priority",
		active: func(f *models.Filter) bool { return len(f.Priority) > 0 },
		match: func(t *models.Task, f *models.Filter) bool {
			for _, p := range f.Priority {
				if t.Priority == p {
					return true
				}
			}
			return false
		},
	},
	{
		name:   "tags",
		active: func(f *models.Filter) bool { return len(f.Tags) > 0 },
		match: func(t *models.Task, f *models.Filter) bool {
			for _, tag := range f.Tags {
				if t.HasTag(tag) {
					return true
				}
			}
			return false
		},
	},
	{
		name:   "project",
		active: func(f *models.Filter) bool { return f.ProjectID.Set },
		match: func(t *models.Task, f *models.Filter) bool {
			return sameRef(t.ProjectID, f.ProjectID.Value)
		},
	},
	{
		name:   "area",
		active: func(f *models.Filter) bool { return f.AreaID.Set },
		match: func(t *models.Task, f *models.Filter) bool {
			return sameRef(t.AreaID, f.AreaID.Value)
		},
	},
	{
		name:   "dueDate",
		active: func(f *models.Filter) bool { return f.DueDateFrom != nil || f.DueDateTo != nil },
		match: func(t *models.Task, f *models.Filter) bool {
			if t.DueDate == nil {
				return false
			}
			if f.DueDateFrom != nil && *t.DueDate < *f.DueDateFrom {
				return false
			}
			if f.DueDateTo != nil && *t.DueDate > *f.DueDateTo {
				return false
			}
			return true
		},
	},
	{
		name:   "hasDate",
		active: func(f *models.Filter) bool { return f.HasDate != nil },
		match: func(t *models.Task, f *models.Filter) bool {
			return t.IsDated() == *f.HasDate
		},
	},
	{
		name:   "isEvening",
		active: func(f *models.Filter) bool { return f.IsEvening != nil },
		match: func(t *models.Task, f *models.Filter) bool {
			return t.IsEvening == *f.IsEvening
		},
	},
	{
		name:   "search",
		active: func(f *models.Filter) bool { return f.SearchQuery != "" },
		match: func(t *models.Task, f *models.Filter) bool {
			q := strings.ToLower(f.SearchQuery)
			return strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Notes), q)
		},
	},
}

// Matches reports whether the task satisfies every populated field of f.
func Matches(t models.Task, f models.Filter) bool {
	for _, c := range criteria {
		if c.active(&f) && !c.match(&t, &f) {
			return false
		}
	}
	return true
}

// Apply returns the matching tasks in input order.
func Apply(tasks []models.Task, f models.Filter) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, f) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// CountActive returns how many filter fields are populated. The due date
// bounds count as one.
func CountActive(f models.Filter) int {
	n := 0
	for _, c := range criteria {
		if c.active(&f) {
			n++
		}
	}
	return n
}

// IsActive reports whether any field is populated.
func IsActive(f models.Filter) bool {
	return CountActive(f) > 0
}

// ActiveNames lists the populated fields, for badges and logs.
func ActiveNames(f models.Filter) []string {
	var names []string
	for _, c := range criteria {
		if c.active(&f) {
			names = append(names, c.name)
		}
	}
	return names
}

func sameRef(have, want *string) bool {
	if have == nil || want == nil {
		return have == nil && want == nil
	}
	return *have == *want
}
