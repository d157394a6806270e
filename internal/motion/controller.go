// internal/motion/controller.go

// Package motion owns the cyclic exchange with the drives: it walks
// every axis through the enable chain, holds positions behind the
// motion barrier and streams target increments once the barrier has
// fired. One Controller drives one bus from one goroutine.
package motion

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/axisworks/motiond/internal/cia402"
	"github.com/axisworks/motiond/internal/diag"
	"github.com/axisworks/motiond/internal/eni"
	"github.com/axisworks/motiond/internal/fieldbus"
	"github.com/axisworks/motiond/internal/pdo"
)

// Options tune one controller. Zero values are rejected or defaulted
// by New as documented per field.
type Options struct {
	// CyclePeriod is the bus cycle time. Required.
	CyclePeriod time.Duration
	// Mode is written to every axis every cycle. Defaults to cyclic
	// synchronous position.
	Mode cia402.Mode
	// WarmupCycles pins a freshly enabled axis to its actual position
	// for this many cycles. May be zero.
	WarmupCycles int
	// BarrierDelay is the hold time between arming and firing the
	// motion barrier. May be zero, the barrier then fires one cycle
	// after arming.
	BarrierDelay time.Duration
	// MaxDelta caps the per-cycle target increment. Required.
	MaxDelta int32
	// Policies resolves vendor state machine quirks. Defaults to the
	// built-in registry.
	Policies *cia402.Registry
	// Notify, when set, receives controller events. It is called from
	// the cycle goroutine and MUST NOT block.
	Notify func(Event)
	// Clock overrides the time source. Tests only.
	Clock func() time.Time
}

// Controller exchanges process data with every axis once per cycle.
// RunOnce and Run are cycle-goroutine only. SetCommand, Stop, Command
// and Snapshot are safe from any goroutine.
type Controller struct {
	opts     Options
	master   fieldbus.Master
	axes     []eni.AxisConfig
	table    *pdo.OffsetTable
	image    fieldbus.Image
	machines []*cia402.Machine
	state    []axisState
	gate     gate
	box      commandBox
	cycle    uint64
	epoch    time.Time
	snap     atomic.Pointer[diag.Snapshot]
	releaser sync.Once
}

// New wires a controller onto an activated master. The offset table
// and image must come from that master.
func New(master fieldbus.Master, axes []eni.AxisConfig, table *pdo.OffsetTable, image fieldbus.Image, opts Options) (*Controller, error) {
	if master == nil {
		return nil, errors.New("motion: master must not be nil")
	}
	if len(axes) == 0 {
		return nil, errors.New("motion: at least one axis required")
	}
	if table == nil {
		return nil, errors.New("motion: offset table must not be nil")
	}
	if table.AxisCount() != len(axes) {
		return nil, fmt.Errorf("motion: offset table covers %d axes, have %d", table.AxisCount(), len(axes))
	}
	if len(image) == 0 {
		return nil, errors.New("motion: process image must not be empty")
	}
	if opts.CyclePeriod <= 0 {
		return nil, errors.New("motion: cycle period must be > 0")
	}
	if opts.MaxDelta <= 0 {
		return nil, errors.New("motion: max delta must be > 0")
	}
	if opts.WarmupCycles < 0 {
		return nil, errors.New("motion: warmup cycles must be >= 0")
	}
	if opts.BarrierDelay < 0 {
		return nil, errors.New("motion: barrier delay must be >= 0")
	}
	if opts.Mode == 0 {
		opts.Mode = cia402.ModeCyclicSyncPos
	}
	if opts.Policies == nil {
		opts.Policies = cia402.NewRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	c := &Controller{
		opts:     opts,
		master:   master,
		axes:     axes,
		table:    table,
		image:    image,
		machines: make([]*cia402.Machine, len(axes)),
		state:    make([]axisState, len(axes)),
		gate:     gate{delay: opts.BarrierDelay},
		epoch:    opts.Clock(),
	}
	for i, ax := range axes {
		p := opts.Policies.Lookup(ax.VendorID, ax.ProductCode)
		c.machines[i] = cia402.NewMachine(p)
		log.WithFields(log.Fields{
			"axis":    i,
			"vendor":  fmt.Sprintf("%#08x", ax.VendorID),
			"product": fmt.Sprintf("%#08x", ax.ProductCode),
			"policy":  p.Name(),
		}).Debug("axis policy selected")
	}
	return c, nil
}

func (c *Controller) AxisCount() int { return len(c.axes) }

// SetCommand replaces the motion command. Direction is reduced to its
// sign, step is clamped into [MinStep, MaxStep]. The clamped command
// is returned.
func (c *Controller) SetCommand(run bool, direction int, step int32) Command {
	cmd := c.box.Set(run, direction, step)
	log.WithFields(log.Fields{
		"run":  cmd.Run,
		"dir":  cmd.Direction,
		"step": cmd.Step,
	}).Info("motion command accepted")
	c.notify(Event{
		Kind:   EventCommand,
		Axis:   -1,
		Cycle:  c.lastCycle(),
		Detail: fmt.Sprintf("run=%v dir=%d step=%d", cmd.Run, cmd.Direction, cmd.Step),
	})
	return cmd
}

// Stop clears run and direction. Axes hold position from the next
// cycle on.
func (c *Controller) Stop() Command {
	cmd := c.box.Stop()
	log.Info("motion stop")
	c.notify(Event{Kind: EventCommand, Axis: -1, Cycle: c.lastCycle(), Detail: "stop"})
	return cmd
}

// Command returns the current command.
func (c *Controller) Command() Command { return c.box.Load() }

// Snapshot returns the diagnostics published by the most recent cycle.
func (c *Controller) Snapshot() diag.Snapshot {
	if s := c.snap.Load(); s != nil {
		return *s
	}
	return diag.Snapshot{}
}

// Close releases the master. Safe to call more than once.
func (c *Controller) Close() {
	c.releaser.Do(c.master.Release)
}

// RunOnce performs one full bus cycle. A failure aborts the cycle but
// leaves the controller usable, the next cycle starts clean.
func (c *Controller) RunOnce() error {
	c.cycle++
	now := c.opts.Clock()

	c.master.SetApplicationTime(uint64(now.Sub(c.epoch)))
	if err := c.master.Receive(); err != nil {
		return fmt.Errorf("%w: receive: %w", ErrRuntime, err)
	}
	c.master.ProcessDomain()
	c.master.SyncSlaveClocks()

	cmd := c.box.Load()
	delta := commandDelta(cmd, c.opts.MaxDelta)

	enabledAll := true
	for i := range c.axes {
		if !c.stepAxis(i, delta) {
			enabledAll = false
		}
	}

	wasArmed := c.gate.Armed()
	if c.gate.Evaluate(enabledAll, cmd.Run, now) == VerdictFire {
		c.fireBarrier()
	} else if !wasArmed && c.gate.Armed() {
		log.WithField("delay", c.opts.BarrierDelay).Info("motion barrier armed")
		c.notify(Event{Kind: EventBarrierArmed, Axis: -1, Cycle: c.cycle})
	}

	c.publish(cmd)

	c.master.QueueDomain()
	if err := c.master.Send(); err != nil {
		return fmt.Errorf("%w: send: %w", ErrRuntime, err)
	}
	return nil
}

// stepAxis runs one axis for one cycle and reports whether it is in
// operation enabled afterwards.
func (c *Controller) stepAxis(i int, delta int32) bool {
	st := &c.state[i]
	status := cia402.StatusWord(c.image.U16(c.table.Offset(i, pdo.RoleStatusWord)))

	// An axis that leaves operation enabled goes back through the
	// enable chain. The barrier does not re-arm for it.
	if st.enabled && status.State() != cia402.StateOperationEnabled {
		st.enabled = false
		st.warmup = 0
		log.WithFields(log.Fields{
			"axis":   i,
			"status": fmt.Sprintf("%#04x", uint16(status)),
			"state":  status.State().String(),
		}).Warn("axis dropped out of operation enabled")
		c.notify(Event{Kind: EventAxisDemoted, Axis: i, Cycle: c.cycle, Detail: status.State().String()})
	}

	// The mode is asserted every cycle. Drives that rebooted silently
	// come back up in the right mode without extra handling.
	c.image.PutS8(c.table.Offset(i, pdo.RoleWorkMode), int8(c.opts.Mode))

	targetOff := c.table.Offset(i, pdo.RoleTargetPosition)
	actual := c.image.S32(c.table.Offset(i, pdo.RoleActualPosition))

	if !st.enabled {
		dec := c.machines[i].Step(status)
		c.image.PutU16(c.table.Offset(i, pdo.RoleControlWord), dec.Control)
		if dec.FaultReset && dec.Control == cia402.CtrlDisableVoltage {
			log.WithFields(log.Fields{
				"axis":   i,
				"status": fmt.Sprintf("%#04x", uint16(status)),
			}).Warn("fault reset pulse started")
			c.notify(Event{Kind: EventFaultReset, Axis: i, Cycle: c.cycle})
		}
		switch dec.Action {
		case cia402.ActionLatchTarget:
			st.target = actual
			c.image.PutS32(targetOff, st.target)
		case cia402.ActionEnable:
			st.enabled = true
			st.warmup = c.opts.WarmupCycles
			st.cycles = 0
			st.target = actual
			c.image.PutS32(targetOff, st.target)
			log.WithField("axis", i).Info("axis operation enabled")
			c.notify(Event{Kind: EventAxisEnabled, Axis: i, Cycle: c.cycle})
		}
		return st.enabled
	}

	c.image.PutU16(c.table.Offset(i, pdo.RoleControlWord), cia402.CtrlEnableOperation)
	st.cycles++

	switch {
	case st.warmup > 0:
		st.warmup--
		st.target = actual
	case c.gate.Fired():
		st.target += delta
	default:
		// Armed or idle: pin the target until the barrier opens.
		st.target = actual
	}
	c.image.PutS32(targetOff, st.target)
	return true
}

// fireBarrier snaps every target to its actual position one last time.
// Increments begin on the next cycle.
func (c *Controller) fireBarrier() {
	for i := range c.axes {
		actual := c.image.S32(c.table.Offset(i, pdo.RoleActualPosition))
		c.state[i].target = actual
		c.image.PutS32(c.table.Offset(i, pdo.RoleTargetPosition), actual)
	}
	log.Info("motion barrier fired")
	c.notify(Event{Kind: EventBarrierFired, Axis: -1, Cycle: c.cycle})
}

func (c *Controller) publish(cmd Command) {
	axes := make([]diag.AxisDiag, len(c.axes))
	for i := range c.axes {
		status := cia402.StatusWord(c.image.U16(c.table.Offset(i, pdo.RoleStatusWord)))
		axes[i] = diag.AxisDiag{
			Status:         uint16(status),
			State:          status.State().String(),
			StateCode:      uint16(status.State()),
			Mode:           c.image.S8(c.table.Offset(i, pdo.RoleWorkModeDisplay)),
			Target:         c.state[i].target,
			Actual:         c.image.S32(c.table.Offset(i, pdo.RoleActualPosition)),
			FollowingError: c.image.S32(c.table.Offset(i, pdo.RoleFollowingError)),
			ErrorCode:      c.image.U16(c.table.Offset(i, pdo.RoleErrorCode)),
			VendorError:    c.image.U16(c.table.Offset(i, pdo.RoleVendorError)),
			DigitalInputs:  c.image.U32(c.table.Offset(i, pdo.RoleDigitalInputs)),
			ProbeStatus:    c.image.U16(c.table.Offset(i, pdo.RoleProbeStatus)),
			ProbePosition:  c.image.S32(c.table.Offset(i, pdo.RoleProbePosition)),
			Enabled:        c.state[i].enabled,
			Warmup:         c.state[i].warmup,
		}
	}
	ms := c.master.MasterState()
	ds := c.master.DomainState()
	c.snap.Store(&diag.Snapshot{
		Cycle: c.cycle,
		Command: diag.CommandDiag{
			Run:       cmd.Run,
			Direction: cmd.Direction,
			Step:      cmd.Step,
		},
		Barrier: diag.BarrierDiag{
			Armed: c.gate.Armed(),
			Fired: c.gate.Fired(),
		},
		Link: diag.LinkHealth{
			SlavesResponding: ms.SlavesResponding,
			LinkUp:           ms.LinkUp,
			WorkingCounter:   ds.WorkingCounter,
			Complete:         ds.Complete,
		},
		Axes: axes,
	})
}

func (c *Controller) notify(e Event) {
	if c.opts.Notify != nil {
		c.opts.Notify(e)
	}
}

func (c *Controller) lastCycle() uint64 {
	if s := c.snap.Load(); s != nil {
		return s.Cycle
	}
	return 0
}
