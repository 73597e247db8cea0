package runner

import (
	"context"

	experiment "github.com/goliatone/go-experiment"
)

// LogCollector forwards branch events through the runner logging contract,
// one structured line per branch.
type LogCollector struct {
	logger Logger
}

// NewLogCollector builds a collector over the given logger, falling back
// to the fmt logger when nil.
func NewLogCollector(logger Logger) *LogCollector {
	return &LogCollector{logger: normalizeLogger(logger)}
}

func (c *LogCollector) Collect(ctx context.Context, ev experiment.Event) {
	logger := withLoggerFields(c.logger.WithContext(ctx), map[string]any{
		"case_id":    ev.CaseID,
		"config_id":  ev.ConfigID,
		"experiment": ev.Function,
		"status":     string(ev.Status),
		"duration":   ev.EndedAt.Sub(ev.StartedAt).String(),
	})
	if ev.Status == experiment.StatusFailed {
		logger.Warn("branch finished: %s", ev.Error)
		return
	}
	logger.Info("branch finished")
}
