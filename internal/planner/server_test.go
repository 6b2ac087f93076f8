package planner

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fentz26/cadence/internal/metrics"
	"github.com/fentz26/cadence/internal/models"
)

func newTestServer(t *testing.T) (*Server, *Service) {
	t.Helper()
	svc := newTestService(t, newTestStore(t), nil)
	srv := NewServer(svc, ServerOptions{Addr: "127.0.0.1:0", Metrics: metrics.New()})
	return srv, svc
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" || body["today"] != "2024-01-10" {
		t.Errorf("Unexpected health body %v", body)
	}
}

func TestTaskLifecycleEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/tasks", `{"title":"Stretch","status":"active","dueDate":"2024-01-10","recurringRule":{"frequency":"daily","interval":1}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var task models.Task
	decode(t, w, &task)

	w = do(t, srv, http.MethodPatch, "/tasks/"+task.ID, `{"notes":"ten minutes","dueTime":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on patch, got %d: %s", w.Code, w.Body.String())
	}
	var patched models.Task
	decode(t, w, &patched)
	if patched.Notes != "ten minutes" || patched.Title != "Stretch" {
		t.Errorf("Unexpected patched task %+v", patched)
	}

	w = do(t, srv, http.MethodPost, "/tasks/"+task.ID+"/complete", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on complete, got %d", w.Code)
	}
	var done Completion
	decode(t, w, &done)
	if done.Next == nil || *done.Next.DueDate != "2024-01-11" {
		t.Errorf("Expected follow-up due 2024-01-11, got %+v", done.Next)
	}

	w = do(t, srv, http.MethodGet, "/tasks/"+task.ID+"/history", "")
	var records []models.DecisionRecord
	decode(t, w, &records)
	if len(records) < 3 {
		t.Errorf("Expected create, update and complete records, got %d", len(records))
	}

	w = do(t, srv, http.MethodPost, "/tasks/"+task.ID+"/reopen", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 on reopen, got %d", w.Code)
	}

	w = do(t, srv, http.MethodDelete, "/tasks/"+task.ID, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 on delete, got %d", w.Code)
	}
	w = do(t, srv, http.MethodGet, "/tasks/"+task.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
}

func TestErrorStatusCodes(t *testing.T) {
	srv, _ := newTestServer(t)

	do(t, srv, http.MethodPost, "/filters", `{"name":"Mine","filter":{}}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"blank title", http.MethodPost, "/tasks", `{"title":""}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/tasks", `{"title":`, http.StatusBadRequest},
		{"bad due time", http.MethodPatch, "/tasks/x", `{"dueTime":"noon"}`, http.StatusBadRequest},
		{"missing task", http.MethodGet, "/tasks/nope", "", http.StatusNotFound},
		{"missing patch target", http.MethodPatch, "/tasks/nope", `{"title":"x"}`, http.StatusNotFound},
		{"unknown bucket", http.MethodGet, "/views/someday-maybe", "", http.StatusNotFound},
		{"calendar without range", http.MethodGet, "/calendar", "", http.StatusBadRequest},
		{"calendar too wide", http.MethodGet, "/calendar?start=0001-01-01&end=9999-12-31", "", http.StatusBadRequest},
		{"timeline too long", http.MethodGet, "/timeline?days=3000000", "", http.StatusBadRequest},
		{"bad conflict date", http.MethodGet, "/conflicts?date=jan", "", http.StatusBadRequest},
		{"duplicate filter name", http.MethodPost, "/filters", `{"name":"Mine","filter":{}}`, http.StatusConflict},
		{"missing filter", http.MethodGet, "/filters/nope/tasks", "", http.StatusNotFound},
		{"bad rule", http.MethodPost, "/recurrence/next", `{"rule":{"frequency":"daily","interval":0}}`, http.StatusBadRequest},
		{"bad batch", http.MethodPost, "/tasks/batch", `{"op":"archive","ids":["a"]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			var body map[string]string
			decode(t, w, &body)
			if body["error"] == "" {
				t.Error("Expected error message in body")
			}
		})
	}
}

func TestViewEndpoints(t *testing.T) {
	srv, svc := newTestServer(t)
	viewFixture(t, svc)

	w := do(t, srv, http.MethodGet, "/views/today", "")
	var view BucketView
	decode(t, w, &view)
	if len(view.Tasks) != 3 {
		t.Errorf("Expected 3 tasks today, got %d", len(view.Tasks))
	}

	w = do(t, srv, http.MethodGet, "/views/board", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for board, got %d", w.Code)
	}

	w = do(t, srv, http.MethodGet, "/calendar/day/2024-01-10", "")
	var day DayView
	decode(t, w, &day)
	if len(day.Conflicts) != 1 || len(day.TimeBlocked) != 2 {
		t.Errorf("Unexpected day view %+v", day)
	}

	w = do(t, srv, http.MethodGet, "/calendar?start=2024-01-10&end=2024-01-12", "")
	var days []map[string]interface{}
	decode(t, w, &days)
	if len(days) != 3 {
		t.Errorf("Expected 3 calendar days, got %d", len(days))
	}

	w = do(t, srv, http.MethodGet, "/timeline?days=5", "")
	decode(t, w, &days)
	if len(days) != 5 {
		t.Errorf("Expected 5 timeline days, got %d", len(days))
	}

	w = do(t, srv, http.MethodGet, "/tasks?status=active&hasDate=false", "")
	var tasks []models.Task
	decode(t, w, &tasks)
	if len(tasks) != 1 || tasks[0].Title != "evening" {
		t.Errorf("Expected only the undated active task, got %+v", tasks)
	}

	w = do(t, srv, http.MethodPost, "/query", `{"searchQuery":"STAND"}`)
	decode(t, w, &tasks)
	if len(tasks) != 1 || tasks[0].Title != "standup" {
		t.Errorf("Expected search to find standup, got %+v", tasks)
	}

	w = do(t, srv, http.MethodPost, "/recurrence/next", `{"rule":{"frequency":"weekly","interval":1,"daysOfWeek":[1,3]},"from":"2024-01-10","count":2}`)
	var next map[string][]string
	decode(t, w, &next)
	if got := next["dates"]; len(got) != 2 || got[0] != "2024-01-15" || got[1] != "2024-01-17" {
		t.Errorf("Unexpected occurrences %v", got)
	}
}

func TestBatchEndpoint(t *testing.T) {
	srv, svc := newTestServer(t)
	ids := seedTasks(t, svc, "a", "b")

	body, _ := json.Marshal(map[string]interface{}{"op": "move", "ids": ids, "kanbanColumn": "doing"})
	w := do(t, srv, http.MethodPost, "/tasks/batch", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var res BatchResult
	decode(t, w, &res)
	if res.Count != 2 || res.Tasks[0].KanbanColumn == nil || *res.Tasks[0].KanbanColumn != "doing" {
		t.Errorf("Unexpected batch result %+v", res)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodGet, "/health", "")

	w := do(t, srv, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Error("Expected request counter in metrics output")
	}
}
