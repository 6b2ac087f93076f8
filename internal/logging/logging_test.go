package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadence.log")
	l, err := New(Options{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.WithComponent("store").WithTask("t1").Infow("task saved", "title", "Buy milk")
	_ = l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"component":"store"`, `"task_id":"t1"`, `"msg":"task saved"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in %s", want, out)
		}
	}
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	if l == nil || l.SugaredLogger == nil {
		t.Fatal("Expected usable no-op logger")
	}
	l.Warnw("discarded")
}
