package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/models"
)

func execute(t *testing.T, dir string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	base := []string{"--config", filepath.Join(dir, "config.yaml"), "--db", filepath.Join(dir, "cadence.db")}
	rootCmd.SetArgs(append(base, args...))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("cadence %s failed: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestTaskCommands(t *testing.T) {
	dir := t.TempDir()
	today := datekit.Today(time.Now())

	out := execute(t, dir, "task", "add", "Water", "plants", "--due", today, "--repeat", "daily", "--status", "active")
	if !strings.HasPrefix(out, "Created task: ") {
		t.Fatalf("Unexpected add output %q", out)
	}
	id := strings.TrimSpace(strings.TrimPrefix(out, "Created task: "))

	out = execute(t, dir, "view", "today")
	if !strings.Contains(out, "Water plants") {
		t.Errorf("Expected task in today view, got:\n%s", out)
	}

	out = execute(t, dir, "task", "done", id[:8])
	if !strings.Contains(out, "Next occurrence:") {
		t.Errorf("Expected a spawned occurrence, got:\n%s", out)
	}

	out = execute(t, dir, "--json", "task", "list", "--status", "active")
	jsonOutput = false
	var tasks []models.Task
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("Failed to decode list output: %v\n%s", err, out)
	}
	if len(tasks) != 1 || tasks[0].ID == id {
		t.Errorf("Expected only the spawned task to be active, got %+v", tasks)
	}
}

func TestParseWeekdays(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"mon,wed,fri", []int{1, 3, 5}, false},
		{"Sunday, 6", []int{0, 6}, false},
		{"", nil, false},
		{"funday", nil, true},
		{"7", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseWeekdays(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseWeekdays failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNullable(t *testing.T) {
	if nullable("") != nil || nullable("none") != nil {
		t.Error("Expected empty and none to clear")
	}
	if v := nullable("work"); v == nil || *v != "work" {
		t.Errorf("Expected work, got %v", v)
	}
	if optional("none") == nil {
		t.Error("Expected optional to keep none as a value")
	}
}

func TestFilterListShowsCriteria(t *testing.T) {
	dir := t.TempDir()

	execute(t, dir, "filter", "save", "errands", "--tag", "errands")
	out := execute(t, dir, "filter", "list")
	if !strings.Contains(out, "CRITERIA") || !strings.Contains(out, "tags") {
		t.Errorf("Expected criteria column naming tags, got:\n%s", out)
	}
}

func TestWhen(t *testing.T) {
	tests := []struct {
		name string
		task models.Task
		want string
	}{
		{"untimed", models.Task{}, ""},
		{"start only", models.Task{DueTime: models.StringPtr("09:00")}, "09:00"},
		{"block", models.Task{DueTime: models.StringPtr("09:30"), Duration: models.IntPtr(45)}, "09:30-10:15"},
		{"past midnight", models.Task{DueTime: models.StringPtr("23:30"), Duration: models.IntPtr(60)}, "23:30-00:30"},
		{"malformed", models.Task{DueTime: models.StringPtr("noon"), Duration: models.IntPtr(30)}, "noon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := when(tt.task); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
