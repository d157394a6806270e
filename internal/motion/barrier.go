// internal/motion/barrier.go
package motion

import "time"

// Verdict of one barrier evaluation.
type Verdict uint8

const (
	// VerdictHold: axes must keep their targets pinned to actuals.
	VerdictHold Verdict = iota
	// VerdictFire: the delay just expired this cycle. Targets snap to
	// actuals one last time, increments start next cycle.
	VerdictFire
	// VerdictOpen: the barrier fired in an earlier cycle.
	VerdictOpen
)

// gate is the one-shot motion barrier. It arms the first time every
// axis is enabled at once while a run command is active, holds for a
// fixed delay and then fires exactly once for the life of the
// controller. Re-enabling a demoted axis later does not re-arm it.
//
// Time is taken from the caller so the cycle goroutine controls when
// the clock is read. The delay comparison rides on Go's monotonic
// clock, wall time jumps do not stretch or shrink the hold.
type gate struct {
	delay   time.Duration
	armed   bool
	fired   bool
	armedAt time.Time
}

// Evaluate advances the barrier by one cycle. enabledAll must be true
// only when every axis currently reports operation enabled. While run
// is false the barrier neither arms nor fires, but an armed barrier
// stays armed.
func (g *gate) Evaluate(enabledAll, run bool, now time.Time) Verdict {
	if g.fired {
		return VerdictOpen
	}
	if !run {
		return VerdictHold
	}
	if !g.armed {
		if !enabledAll {
			return VerdictHold
		}
		g.armed = true
		g.armedAt = now
		return VerdictHold
	}
	if now.Sub(g.armedAt) < g.delay {
		return VerdictHold
	}
	g.fired = true
	return VerdictFire
}

func (g *gate) Armed() bool { return g.armed }
func (g *gate) Fired() bool { return g.fired }
