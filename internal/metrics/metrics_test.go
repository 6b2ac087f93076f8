package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestInstrumentsAreExported(t *testing.T) {
	m := New()
	m.Mutation("task.create", "success")
	m.Mutation("task.create", "success")
	m.Completed()
	m.Spawned()
	m.SpawnFailed()
	m.Batch("move", 3)
	m.Conflicts(2)
	m.Rollover()
	m.Request("GET", "/tasks", "200", 0.01)

	out := scrape(t, m)
	for _, want := range []string{
		`cadence_task_mutations_total{action="task.create",outcome="success"} 2`,
		`cadence_tasks_completed_total 1`,
		`cadence_recurrence_spawned_total 1`,
		`cadence_recurrence_spawn_failures_total 1`,
		`cadence_batch_size_count{op="move"} 1`,
		`cadence_conflicts_last_checked 2`,
		`cadence_day_rollovers_total 1`,
		`http_requests_total{method="GET",path="/tasks",status="200"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in scrape output", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Mutation("task.create", "success")
	m.Completed()
	m.Batch("move", 1)
	m.Request("GET", "/", "200", 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for nil metrics, got %d", rec.Code)
	}
}
