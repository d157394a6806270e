// internal/fieldbus/sim/drive.go
package sim

import "github.com/axisworks/motiond/internal/fieldbus"

// Profile states a simulated drive can sit in.
type driveState uint8

const (
	stateNotReady driveState = iota
	stateSwitchOnDisabled
	stateReadyToSwitchOn
	stateSwitchedOn
	stateOperationEnabled
)

// Status words presented per state. The vendor bits (0x0200 remote,
// 0x1000 follows command) are set the way real servo drives set them.
const (
	statusNotReady         uint16 = 0x0000
	statusSwitchOnDisabled uint16 = 0x0250
	statusReadyToSwitchOn  uint16 = 0x0231
	statusSwitchedOn       uint16 = 0x0233
	statusOperationEnabled uint16 = 0x1237
	statusFault            uint16 = 0x0218
)

// Error codes reported while faulted.
const (
	faultErrorCode   uint16 = 0x8611 // following error
	faultVendorError uint16 = 0x0209
)

// drive is one simulated servo axis. It decodes control words the way
// a profile-conforming drive does and tracks its target position while
// operation is enabled.
type drive struct {
	identity fieldbus.SlaveIdentity
	outputs  []fieldbus.PDO
	inputs   []fieldbus.PDO

	state   driveState
	faulted bool

	lastCtrl    uint16
	pendingCtrl uint16
	pendingMode int8
	pendingTgt  int32

	modeDisplay int8
	target      int32
	actual      int32
	probeFunc   uint16
}

// mapped reports whether the drive's PDO assignment carries an object,
// and in which direction.
func (d *drive) mapped(index uint16, sub uint8) (output bool, ok bool) {
	for _, p := range d.outputs {
		for _, e := range p.Entries {
			if e.Index == index && e.SubIndex == sub {
				return true, true
			}
		}
	}
	for _, p := range d.inputs {
		for _, e := range p.Entries {
			if e.Index == index && e.SubIndex == sub {
				return false, true
			}
		}
	}
	return false, false
}

func (d *drive) status() uint16 {
	if d.faulted {
		return statusFault
	}
	switch d.state {
	case stateSwitchOnDisabled:
		return statusSwitchOnDisabled
	case stateReadyToSwitchOn:
		return statusReadyToSwitchOn
	case stateSwitchedOn:
		return statusSwitchedOn
	case stateOperationEnabled:
		return statusOperationEnabled
	default:
		return statusNotReady
	}
}

// inputValue renders one input object for the process image.
func (d *drive) inputValue(index uint16) uint32 {
	switch index {
	case 0x6041:
		return uint32(d.status())
	case 0x6064:
		return uint32(d.actual)
	case 0x6061:
		return uint32(uint8(d.modeDisplay))
	case 0x603F:
		if d.faulted {
			return uint32(faultErrorCode)
		}
		return 0
	case 0x60F4:
		return uint32(d.target - d.actual)
	case 0x60FD:
		return 0x00000003 // both end switches healthy
	case 0x60B9:
		return 0
	case 0x60BA:
		return 0
	case 0x213F:
		if d.faulted {
			return uint32(faultVendorError)
		}
		return 0
	default:
		return 0
	}
}

// applyOutput stages one output object from the process image.
func (d *drive) applyOutput(index uint16, v uint32) {
	switch index {
	case 0x6040:
		d.pendingCtrl = uint16(v)
	case 0x6060:
		d.pendingMode = int8(v)
	case 0x607A:
		d.pendingTgt = int32(v)
	case 0x60B8:
		d.probeFunc = uint16(v)
	}
}

// step advances the drive by one bus cycle using the staged outputs.
func (d *drive) step(slew int32) {
	ctrl := d.pendingCtrl

	// Fault reset needs a rising edge on bit 7.
	if ctrl&0x0080 != 0 && d.lastCtrl&0x0080 == 0 && d.faulted {
		d.faulted = false
		d.state = stateSwitchOnDisabled
	}
	d.lastCtrl = ctrl
	d.modeDisplay = d.pendingMode

	if d.faulted {
		return
	}

	if d.state == stateNotReady {
		// Power-up settles after one cycle regardless of commands.
		d.state = stateSwitchOnDisabled
		return
	}

	cmd := ctrl & 0x000F
	switch {
	case cmd&0x02 == 0: // disable voltage
		d.state = stateSwitchOnDisabled
	case cmd&0x06 == 0x02: // quick stop
		d.state = stateSwitchOnDisabled
	case cmd == 0x0F: // enable operation
		if d.state == stateSwitchedOn {
			d.state = stateOperationEnabled
		}
	case cmd == 0x07: // switch on
		switch d.state {
		case stateReadyToSwitchOn, stateOperationEnabled:
			d.state = stateSwitchedOn
		}
	case cmd&0x07 == 0x06: // shutdown
		d.state = stateReadyToSwitchOn
	}

	if d.state == stateOperationEnabled {
		d.target = d.pendingTgt
		diff := d.target - d.actual
		if slew > 0 {
			if diff > slew {
				diff = slew
			} else if diff < -slew {
				diff = -slew
			}
		}
		d.actual += diff
	}
}
