package filter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fentz26/cadence/internal/models"
)

func sample() models.Task {
	t := models.NewTask("t1", "Renew Passport", time.Now())
	t.Status = models.TaskStatusActive
	t.Priority = models.PriorityHigh
	t.Notes = "Bring the old photos"
	t.Tags = []string{"errands", "admin"}
	t.ProjectID = models.StringPtr("p1")
	t.DueDate = models.StringPtr("2024-02-10")
	return t
}

func boolPtr(b bool) *bool { return &b }

func TestEmptyFilterMatchesEverything(t *testing.T) {
	var f models.Filter
	if !Matches(sample(), f) {
		t.Error("Expected empty filter to match")
	}
	if IsActive(f) {
		t.Error("Expected empty filter to be inactive")
	}
	if CountActive(f) != 0 {
		t.Errorf("Expected 0 active filters, got %d", CountActive(f))
	}
}

func TestConjunction(t *testing.T) {
	f := models.Filter{
		Status:   []models.TaskStatus{models.TaskStatusActive},
		Priority: []models.Priority{models.PriorityHigh},
	}
	if CountActive(f) != 2 {
		t.Errorf("Expected 2 active filters, got %d", CountActive(f))
	}

	cases := []struct {
		status   models.TaskStatus
		priority models.Priority
		want     bool
	}{
		{models.TaskStatusActive, models.PriorityHigh, true},
		{models.TaskStatusInbox, models.PriorityHigh, false},
		{models.TaskStatusActive, models.PriorityLow, false},
		{models.TaskStatusInbox, models.PriorityLow, false},
	}
	for _, c := range cases {
		task := sample()
		task.Status = c.status
		task.Priority = c.priority
		if got := Matches(task, f); got != c.want {
			t.Errorf("status=%s priority=%d: got %v, want %v", c.status, c.priority, got, c.want)
		}
	}
}

func TestTagsAreOrWithinField(t *testing.T) {
	if !Matches(sample(), models.Filter{Tags: []string{"home", "admin"}}) {
		t.Error("Expected a single shared tag to match")
	}
	if Matches(sample(), models.Filter{Tags: []string{"home"}}) {
		t.Error("Expected no shared tag to fail")
	}
}

func TestProjectExplicitNull(t *testing.T) {
	inbox := sample()
	inbox.ProjectID = nil

	noProject := models.Filter{ProjectID: models.Some[*string](nil)}
	if !Matches(inbox, noProject) {
		t.Error("Explicit null should match tasks without project")
	}
	if Matches(sample(), noProject) {
		t.Error("Explicit null should not match tasks with a project")
	}

	p1 := models.Filter{ProjectID: models.Some(models.StringPtr("p1"))}
	if !Matches(sample(), p1) || Matches(inbox, p1) {
		t.Error("Explicit project id should match exactly")
	}

	area := models.Filter{AreaID: models.Some(models.StringPtr("a9"))}
	if Matches(sample(), area) {
		t.Error("Area filter should exclude tasks without that area")
	}
}

func TestDueDateBounds(t *testing.T) {
	from := models.StringPtr("2024-02-01")
	to := models.StringPtr("2024-02-10")

	if !Matches(sample(), models.Filter{DueDateFrom: from, DueDateTo: to}) {
		t.Error("Expected inclusive upper bound to match")
	}
	if Matches(sample(), models.Filter{DueDateFrom: models.StringPtr("2024-02-11")}) {
		t.Error("Expected due date before lower bound to fail")
	}

	undated := sample()
	undated.DueDate = nil
	if Matches(undated, models.Filter{DueDateTo: to}) {
		t.Error("Expected missing due date to fail when a bound is set")
	}
	if CountActive(models.Filter{DueDateFrom: from, DueDateTo: to}) != 1 {
		t.Error("Expected date bounds to count as one filter")
	}
}

func TestHasDateAndEvening(t *testing.T) {
	undated := sample()
	undated.DueDate = nil
	scheduledOnly := undated
	scheduledOnly.ScheduledDate = models.StringPtr("2024-02-02")

	if !Matches(sample(), models.Filter{HasDate: boolPtr(true)}) {
		t.Error("Expected dated task to match hasDate=true")
	}
	if !Matches(scheduledOnly, models.Filter{HasDate: boolPtr(true)}) {
		t.Error("Scheduled date counts as a date")
	}
	if !Matches(undated, models.Filter{HasDate: boolPtr(false)}) {
		t.Error("Expected undated task to match hasDate=false")
	}
	if Matches(sample(), models.Filter{HasDate: boolPtr(false)}) {
		t.Error("Expected dated task to fail hasDate=false")
	}

	if Matches(sample(), models.Filter{IsEvening: boolPtr(true)}) {
		t.Error("Expected non-evening task to fail isEvening=true")
	}
	if !Matches(sample(), models.Filter{IsEvening: boolPtr(false)}) {
		t.Error("Expected non-evening task to match isEvening=false")
	}
}

func TestSearchQuery(t *testing.T) {
	for _, q := range []string{"passport", "PHOTOS", "renew pass", " photos"} {
		if !Matches(sample(), models.Filter{SearchQuery: q}) {
			t.Errorf("Expected %q to match", q)
		}
	}
	for _, q := range []string{"visa", " renew", "  "} {
		if Matches(sample(), models.Filter{SearchQuery: q}) {
			t.Errorf("Expected %q not to match", q)
		}
	}
	if !IsActive(models.Filter{SearchQuery: "  "}) {
		t.Error("Whitespace query should count as active")
	}
	if IsActive(models.Filter{SearchQuery: ""}) {
		t.Error("Empty query should not count as active")
	}
}

func TestCountMatchesFieldTable(t *testing.T) {
	f := models.Filter{
		Status:      []models.TaskStatus{models.TaskStatusActive},
		Priority:    []models.Priority{models.PriorityHigh},
		Tags:        []string{"admin"},
		ProjectID:   models.Some(models.StringPtr("p1")),
		AreaID:      models.Some[*string](nil),
		DueDateFrom: models.StringPtr("2024-01-01"),
		HasDate:     boolPtr(true),
		IsEvening:   boolPtr(false),
		SearchQuery: "passport",
	}
	if got := CountActive(f); got != len(criteria) {
		t.Errorf("Expected every criterion active (%d), got %d", len(criteria), got)
	}
	if len(ActiveNames(f)) != len(criteria) {
		t.Errorf("ActiveNames out of sync with CountActive")
	}
}

func TestFilterJSONKeepsExplicitNull(t *testing.T) {
	var f models.Filter
	if err := json.Unmarshal([]byte(`{"projectId":null,"status":["active"]}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !f.ProjectID.Set || f.ProjectID.Value != nil {
		t.Errorf("Expected explicit null projectId, got %+v", f.ProjectID)
	}
	if f.AreaID.Set {
		t.Error("Expected areaId unset")
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back models.Filter
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal again: %v", err)
	}
	if !back.ProjectID.Set || back.AreaID.Set {
		t.Errorf("Round trip lost tri-state: %s", data)
	}
}

func TestApply(t *testing.T) {
	a := sample()
	b := sample()
	b.ID = "t2"
	b.Priority = models.PriorityLow

	got := Apply([]models.Task{a, b}, models.Filter{Priority: []models.Priority{models.PriorityLow}})
	if len(got) != 1 || got[0].ID != "t2" {
		t.Errorf("Expected only t2, got %v", got)
	}
}
