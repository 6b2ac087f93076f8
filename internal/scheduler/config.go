// Package scheduler runs the background day-rollover poller.
package scheduler

import "time"

// DefaultInterval is how often the clock is polled.
const DefaultInterval = time.Minute

// Config defines the scheduler configuration.
type Config struct {
	// Interval between clock polls. Rollover is noticed at most one
	// interval late.
	Interval time.Duration `yaml:"rollover_interval"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{Interval: DefaultInterval}
}

// interval returns the configured interval, falling back to the default for
// non-positive values.
func (c *Config) interval() time.Duration {
	if c == nil || c.Interval <= 0 {
		return DefaultInterval
	}
	return c.Interval
}
