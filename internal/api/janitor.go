package api

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Purger drops expired in-memory entries.
type Purger interface {
	Purge(now time.Time) int
}

// StartJanitor runs every purger on spec (standard cron syntax or @every).
// Stop the returned scheduler on shutdown.
func StartJanitor(spec string, logger *log.Logger, purgers map[string]Purger) (*cron.Cron, error) {
	sched := cron.New()
	for name, p := range purgers {
		name, p := name, p
		if _, err := sched.AddFunc(spec, func() { runPurge(logger, name, p) }); err != nil {
			return nil, err
		}
	}
	sched.Start()
	return sched, nil
}

func runPurge(logger *log.Logger, name string, p Purger) {
	n := p.Purge(time.Now())
	janitorPurgedTotal.WithLabelValues(name).Add(float64(n))
	if n > 0 {
		logger.Debug("purged expired entries", "component", name, "count", n)
	}
}
