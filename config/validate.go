package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/nzhukovskiy/fundlink-api/models"
)

// Validate checks the funding engine settings before anything is wired.
func (c Config) Validate() error {
	env := strings.ToLower(strings.TrimSpace(c.Env))
	if env != "" && env != "development" && env != "production" {
		return fmt.Errorf("env must be 'development' or 'production', got %q", c.Env)
	}

	if _, err := models.ParseStageSequence(c.Funding.Stages); err != nil {
		return fmt.Errorf("funding.stages: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("funding.timezone: %w", err)
	}
	if c.Funding.SweepEnabled {
		if _, err := cron.ParseStandard(c.Funding.SweepSchedule); err != nil {
			return fmt.Errorf("funding.sweep_schedule %q: %w", c.Funding.SweepSchedule, err)
		}
	}

	seen := make(map[string]struct{}, len(c.Funding.Thresholds))
	for i, t := range c.Funding.Thresholds {
		if t.Tag == "" {
			return fmt.Errorf("funding.thresholds[%d].tag is required", i)
		}
		if _, ok := seen[t.Tag]; ok {
			return fmt.Errorf("funding.thresholds[%d].tag %q is duplicated", i, t.Tag)
		}
		seen[t.Tag] = struct{}{}
		if t.Before <= 0 {
			return fmt.Errorf("funding.thresholds[%d].before must be > 0, got %s", i, t.Before)
		}
		if i > 0 && t.Before >= c.Funding.Thresholds[i-1].Before {
			return fmt.Errorf("funding.thresholds must be ordered by descending 'before'")
		}
	}

	if c.Notifications.QueueSize < 0 {
		return fmt.Errorf("notifications.queue_size must be >= 0, got %d", c.Notifications.QueueSize)
	}
	return nil
}
