package events

import (
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestPublishRoutesByTopic(t *testing.T) {
	h := NewHub()
	defer h.Close()

	tasks, cancelTasks := h.Subscribe(TasksChanged)
	defer cancelTasks()
	all, cancelAll := h.Subscribe()
	defer cancelAll()

	if n := h.Publish(Event{Topic: DayChanged, Date: "2024-01-11"}); n != 1 {
		t.Errorf("Expected 1 delivery, got %d", n)
	}
	if n := h.Publish(Event{Topic: TasksChanged, TaskIDs: []string{"t1"}}); n != 2 {
		t.Errorf("Expected 2 deliveries, got %d", n)
	}

	e := receive(t, tasks)
	if e.Topic != TasksChanged || e.TaskIDs[0] != "t1" || e.At.IsZero() {
		t.Errorf("Unexpected event %+v", e)
	}
	if e := receive(t, all); e.Topic != DayChanged {
		t.Errorf("Expected day.changed first, got %s", e.Topic)
	}
	if e := receive(t, all); e.Topic != TasksChanged {
		t.Errorf("Expected tasks.changed second, got %s", e.Topic)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	h := NewHub()
	defer h.Close()
	_, cancel := h.Subscribe(TasksChanged)
	defer cancel()

	for i := 0; i < subscriberBuffer*3; i++ {
		h.Publish(Event{Topic: TasksChanged})
	}
}

func TestCancelClosesChannel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("Expected closed channel after cancel")
	}
	if n := h.Publish(Event{Topic: TasksChanged}); n != 0 {
		t.Errorf("Expected no deliveries, got %d", n)
	}
}

func TestCloseHub(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	h.Close()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("Expected closed channel after hub close")
	}
	late, _ := h.Subscribe()
	if _, ok := <-late; ok {
		t.Error("Expected subscriptions after close to be closed")
	}
}
