package hours

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultRefreshSpec = "5 0 * * *"

// StartRefresher recomputes cal on the given cron schedule until ctx is done.
// An invalid spec falls back to DefaultRefreshSpec.
func StartRefresher(ctx context.Context, cal *Calendar, spec string, loc *time.Location, logger *slog.Logger) *cron.Cron {
	if loc == nil {
		loc = time.Local
	}
	job := func() {
		if err := cal.Refresh(); err != nil {
			logger.Error("business hours refresh failed", "err", err)
			return
		}
		logger.Info("business hours refreshed", "anchor", cal.Anchor().String())
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, job); err != nil {
		logger.Warn("invalid business hours refresh schedule; using default", "spec", spec, "err", err)
		c = cron.New(cron.WithLocation(loc))
		_, _ = c.AddFunc(DefaultRefreshSpec, job)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c
}
