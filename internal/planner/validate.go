package planner

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/models"
)

// NewValidator returns a validator with the Cadence-specific tags registered:
// "datekey" (YYYY-MM-DD) and "clock" (HH:MM).
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("datekey", func(fl validator.FieldLevel) bool {
		_, err := datekit.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := datekit.ParseClockTime(fl.Field().String())
		return err == nil
	})
	return v
}

func validateRule(r *models.RecurringRule) error {
	if r == nil {
		return nil
	}
	if err := r.Validate(); err != nil {
		return invalid(err)
	}
	return nil
}

func validateDate(field string, d *string) error {
	if d == nil {
		return nil
	}
	if _, err := datekit.ParseDate(*d); err != nil {
		return invalidf("%s: %v", field, err)
	}
	return nil
}

// validatePatch checks the set fields of a patch.
func validatePatch(p models.TaskPatch) error {
	if p.Title.Set && strings.TrimSpace(p.Title.Value) == "" {
		return invalidf("title must not be empty")
	}
	if p.Status.Set && !p.Status.Value.Valid() {
		return invalidf("unknown status %q", p.Status.Value)
	}
	if p.Priority.Set && !p.Priority.Value.Valid() {
		return invalidf("priority must be 0-3, got %d", p.Priority.Value)
	}
	if p.DueDate.Set {
		if err := validateDate("dueDate", p.DueDate.Value); err != nil {
			return err
		}
	}
	if p.ScheduledDate.Set {
		if err := validateDate("scheduledDate", p.ScheduledDate.Value); err != nil {
			return err
		}
	}
	if p.DueTime.Set && p.DueTime.Value != nil {
		if _, err := datekit.ParseClockTime(*p.DueTime.Value); err != nil {
			return invalidf("dueTime: %v", err)
		}
	}
	if p.Duration.Set && p.Duration.Value != nil && (*p.Duration.Value < 1 || *p.Duration.Value > 24*60) {
		return invalidf("duration must be 1-1440 minutes, got %d", *p.Duration.Value)
	}
	if p.RecurringRule.Set {
		return validateRule(p.RecurringRule.Value)
	}
	return nil
}

// validateFilter checks the date bounds of a filter.
func validateFilter(f models.Filter) error {
	if err := validateDate("dueDateFrom", f.DueDateFrom); err != nil {
		return err
	}
	if err := validateDate("dueDateTo", f.DueDateTo); err != nil {
		return err
	}
	for _, st := range f.Status {
		if !st.Valid() {
			return invalidf("unknown status %q", st)
		}
	}
	for _, p := range f.Priority {
		if !p.Valid() {
			return invalidf("priority must be 0-3, got %d", p)
		}
	}
	return nil
}
