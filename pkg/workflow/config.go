package workflow

import "time"

// Config holds engine settings populated from the environment.
type Config struct {
	// SweepSchedule is a robfig/cron expression for the eviction sweep.
	SweepSchedule string `env:"WORKFLOW_SWEEP_SCHEDULE" envDefault:"@every 1m"`
	// Timeout is the age after which the sweep evicts an instance.
	Timeout time.Duration `env:"WORKFLOW_TIMEOUT" envDefault:"24h"`
}

// DefaultConfig returns the settings used when none are supplied.
func DefaultConfig() Config {
	return Config{SweepSchedule: "@every 1m", Timeout: 24 * time.Hour}
}
