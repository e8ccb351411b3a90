// Package monitor runs the exam-time snapshot loop: every tick it grabs
// a short burst of frames and uploads them for verification.
package monitor

import (
	"fmt"
	"strings"
	"time"
)

// Default cadence: a burst of 10 frames 250ms apart every 5 seconds.
const (
	DefaultTickInterval   = 5 * time.Second
	DefaultFrameInterval  = 250 * time.Millisecond
	DefaultFramesPerBatch = 10
)

// Config controls the monitoring cadence.
type Config struct {
	TickInterval   time.Duration
	FrameInterval  time.Duration
	FramesPerBatch int
}

// DefaultConfig returns the production cadence.
func DefaultConfig() Config {
	return Config{
		TickInterval:   DefaultTickInterval,
		FrameInterval:  DefaultFrameInterval,
		FramesPerBatch: DefaultFramesPerBatch,
	}
}

// Validate returns an error describing every out-of-range field.
func (c Config) Validate() error {
	var problems []string
	if c.TickInterval <= 0 {
		problems = append(problems, "tick interval must be positive")
	}
	if c.FrameInterval <= 0 {
		problems = append(problems, "frame interval must be positive")
	}
	if c.FramesPerBatch < 1 {
		problems = append(problems, "frames per batch must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("monitor: invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// BurstDuration is how long one batch capture takes.
func (c Config) BurstDuration() time.Duration {
	return time.Duration(c.FramesPerBatch) * c.FrameInterval
}
