// Package conflict finds overlapping time blocks among a day's tasks.
package conflict

import (
	"sort"

	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/schedule"
)

// Pair is two tasks whose time blocks overlap. A.ID < B.ID.
type Pair struct {
	A models.Task `json:"a"`
	B models.Task `json:"b"`
}

// Key is the canonical identity of the pair.
func (p Pair) Key() string {
	return p.A.ID + "|" + p.B.ID
}

type block struct {
	task       models.Task
	start, end int
}

// Find reports every unordered pair of timed tasks whose half-open intervals
// [start, start+duration) overlap. Touching intervals do not conflict. Tasks
// that are not timed, including malformed start times, are skipped. Callers
// pass tasks from a single date; see ForDate.
//
// Pairs are ordered by the earlier block's start time.
func Find(tasks []models.Task) []Pair {
	blocks := make([]block, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if !schedule.IsTimed(t) {
			continue
		}
		start, _ := schedule.StartMinutes(t)
		blocks = append(blocks, block{task: t.Clone(), start: start, end: start + *t.Duration})
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].start != blocks[j].start {
			return blocks[i].start < blocks[j].start
		}
		return blocks[i].task.ID < blocks[j].task.ID
	})

	pairs := []Pair{}
	seen := make(map[string]bool)
	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			a, b := blocks[i], blocks[j]
			if a.task.ID == b.task.ID {
				continue
			}
			if !(a.start < b.end && b.start < a.end) {
				continue
			}
			p := Pair{A: a.task, B: b.task}
			if p.A.ID > p.B.ID {
				p.A, p.B = p.B, p.A
			}
			if seen[p.Key()] {
				continue
			}
			seen[p.Key()] = true
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// ForDate restricts tasks to those on date before finding conflicts.
func ForDate(tasks []models.Task, date string) []Pair {
	return Find(schedule.OnDate(tasks, date))
}

// Conflicting returns the ids of every task involved in at least one pair.
func Conflicting(pairs []Pair) map[string]bool {
	ids := make(map[string]bool, len(pairs)*2)
	for _, p := range pairs {
		ids[p.A.ID] = true
		ids[p.B.ID] = true
	}
	return ids
}
