package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/events"
	"github.com/fentz26/cadence/internal/logging"
)

// Publisher receives rollover events.
type Publisher interface {
	Publish(e events.Event) int
}

// Scheduler polls the clock and publishes events.DayChanged whenever the
// calendar date differs from the last one it saw. Buckets depend on "today",
// so subscribers recompute on each rollover.
type Scheduler struct {
	pub    Publisher
	clock  datekit.Clock
	config *Config
	log    *logging.Logger

	mu        sync.Mutex
	today     string
	rollovers int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Stats is a snapshot of scheduler state.
type Stats struct {
	Today     string        `json:"today"`
	Rollovers int           `json:"rollovers"`
	Interval  time.Duration `json:"interval"`
}

// New creates a scheduler. A nil clock uses the system clock.
func New(pub Publisher, clock datekit.Clock, cfg *Config, log *logging.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if clock == nil {
		clock = datekit.SystemClock
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		pub:    pub,
		clock:  clock,
		config: cfg,
		log:    logging.OrNop(log).WithComponent("scheduler"),
		today:  datekit.Today(clock()),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the polling loop.
func (sch *Scheduler) Start() {
	sch.wg.Add(1)
	go sch.loop()
	sch.log.Infow("Scheduler started", "interval", sch.config.interval().String(), "today", sch.Today())
}

// Stop gracefully stops the scheduler.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()
	sch.log.Infow("Scheduler stopped")
}

func (sch *Scheduler) loop() {
	defer sch.wg.Done()

	ticker := time.NewTicker(sch.config.interval())
	defer ticker.Stop()

	for {
		select {
		case <-sch.ctx.Done():
			return
		case <-ticker.C:
			sch.Check()
		}
	}
}

// Check compares the clock's date with the last seen date and publishes a
// rollover when they differ. It reports whether a rollover happened. A clock
// that moves backwards also counts as a change.
func (sch *Scheduler) Check() bool {
	now := sch.clock()
	date := datekit.Today(now)

	sch.mu.Lock()
	previous := sch.today
	if date == previous {
		sch.mu.Unlock()
		return false
	}
	sch.today = date
	sch.rollovers++
	sch.mu.Unlock()

	sch.log.Infow("Day rolled over", "from", previous, "to", date)
	if sch.pub != nil {
		sch.pub.Publish(events.Event{Topic: events.DayChanged, Date: date, At: now})
	}
	return true
}

// Today returns the last date the scheduler observed.
func (sch *Scheduler) Today() string {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	return sch.today
}

// GetStats returns current scheduler statistics.
func (sch *Scheduler) GetStats() Stats {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	return Stats{Today: sch.today, Rollovers: sch.rollovers, Interval: sch.config.interval()}
}
