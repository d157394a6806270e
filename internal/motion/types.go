// internal/motion/types.go
package motion

// Command is the operator's motion request. Direction is -1, 0 or +1.
// Step is the per-cycle target increment in position units.
type Command struct {
	Run       bool
	Direction int
	Step      int32
}

// Event kinds reported through the Notify hook.
const (
	EventCommand      = "command"
	EventAxisEnabled  = "axis-enabled"
	EventAxisDemoted  = "axis-demoted"
	EventFaultReset   = "fault-reset"
	EventBarrierArmed = "barrier-armed"
	EventBarrierFired = "barrier-fired"
	EventCycleError   = "cycle-error"
)

// Event is one notable controller occurrence. Axis is -1 when the
// event is not axis-scoped.
type Event struct {
	Kind   string
	Axis   int
	Cycle  uint64
	Detail string
}

// axisState is the per-axis runtime owned by the cycle goroutine.
type axisState struct {
	enabled bool   // reached operation enabled and not demoted since
	warmup  int    // hold cycles remaining after enable
	target  int32  // commanded position, written every cycle
	cycles  uint64 // cycles spent enabled, diagnostics only
}
