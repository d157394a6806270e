// internal/motion/runner.go
package motion

import (
	"context"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

// Persistent cycle failures are logged once per this many cycles, the
// first one always.
const failureLogEvery = 250

// Run drives cycles at the configured period until ctx is canceled.
//
// A failed cycle is not fatal. Frame loss on industrial segments comes
// in bursts and the bus recovers once the medium settles, so the loop
// logs, counts and keeps cycling.
func (c *Controller) Run(ctx context.Context) {
	// Bus cycles are timing sensitive, the loop stays on one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := time.NewTicker(c.opts.CyclePeriod)
	defer ticker.Stop()

	log.WithFields(log.Fields{
		"period": c.opts.CyclePeriod,
		"axes":   len(c.axes),
	}).Info("cycle loop started")

	var failures uint64
	for {
		select {
		case <-ctx.Done():
			log.Info("cycle loop stopped")
			return
		case <-ticker.C:
			err := c.RunOnce()
			if err == nil {
				if failures > 0 {
					log.WithField("failures", failures).Info("cycle recovered")
				}
				failures = 0
				continue
			}
			failures++
			if failures == 1 {
				c.notify(Event{Kind: EventCycleError, Axis: -1, Cycle: c.lastCycle(), Detail: err.Error()})
			}
			if failures == 1 || failures%failureLogEvery == 0 {
				log.WithError(err).WithField("failures", failures).Error("cycle failed")
			}
		}
	}
}
