package digest

import (
	"slices"
	"time"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// GroupBy selects the key notifications are grouped on.
type GroupBy string

const (
	GroupByType     GroupBy = "type"
	GroupByPriority GroupBy = "priority"
)

// Config controls digest processing. Fields are populated from the environment
// with config.Load.
type Config struct {
	Enabled bool `env:"DIGEST_ENABLED" envDefault:"true"`
	// MaxNotifications is the group size above which a digest is sent instead
	// of individual notifications.
	MaxNotifications int `env:"DIGEST_MAX_NOTIFICATIONS" envDefault:"5"`
	// TimeWindow is informational; the backlog query is bounded by BatchLimit only.
	TimeWindow time.Duration           `env:"DIGEST_TIME_WINDOW" envDefault:"60m"`
	GroupBy    GroupBy                 `env:"DIGEST_GROUP_BY" envDefault:"type"`
	Channels   []notifications.Channel `env:"DIGEST_CHANNELS" envDefault:"email,inapp" envSeparator:","`
	BatchLimit int                     `env:"DIGEST_BATCH_LIMIT" envDefault:"50"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		MaxNotifications: 5,
		TimeWindow:       60 * time.Minute,
		GroupBy:          GroupByType,
		Channels:         []notifications.Channel{notifications.ChannelEmail, notifications.ChannelInApp},
		BatchLimit:       50,
	}
}

func (c Config) clone() Config {
	c.Channels = slices.Clone(c.Channels)
	return c
}

func (c Config) batchLimit() int {
	if c.BatchLimit <= 0 {
		return 50
	}
	return c.BatchLimit
}
