// internal/cia402/status.go

// Package cia402 implements the drive profile state machine used to
// bring servo drives into operation and hold them there. It decodes
// status words, chooses control words through per-vendor policies and
// sequences fault recovery.
package cia402

// Status word bits.
const (
	BitReadyToSwitchOn uint16 = 1 << 0
	BitSwitchedOn      uint16 = 1 << 1
	BitOperationOn     uint16 = 1 << 2
	BitFault           uint16 = 1 << 3
	BitVoltageEnabled  uint16 = 1 << 4
	BitQuickStop       uint16 = 1 << 5
	BitSwitchOnDisable uint16 = 1 << 6
	BitWarning         uint16 = 1 << 7
	BitRemote          uint16 = 1 << 9
	BitTargetReached   uint16 = 1 << 10
	BitFollowsCommand  uint16 = 1 << 12
)

// StateMask selects the bits that identify the drive state.
const StateMask uint16 = 0x006F

// StatusWord is the raw object 0x6041 value of one axis.
type StatusWord uint16

// Masked returns the state-identifying bits.
func (s StatusWord) Masked() uint16 { return uint16(s) & StateMask }

func (s StatusWord) Fault() bool   { return uint16(s)&BitFault != 0 }
func (s StatusWord) Warning() bool { return uint16(s)&BitWarning != 0 }

// FaultPending reports a latched fault that needs a reset pulse.
// Besides the profile fault bit, drives that park in switch-on-disabled
// with the ready bit clear are treated as faulted. That shape is what
// several vendors actually present after a trip.
func (s StatusWord) FaultPending() bool {
	if s.Fault() {
		return true
	}
	return uint16(s)&BitSwitchOnDisable != 0 && uint16(s)&BitReadyToSwitchOn == 0
}

// State is the decoded drive state.
type State uint8

const (
	StateNotReady State = iota
	StateSwitchOnDisabled
	StateReadyToSwitchOn
	StateSwitchedOn
	StateOperationEnabled
	StateQuickStopActive
	StateFault
	StateUnknown
)

var stateNames = [...]string{
	StateNotReady:         "not-ready",
	StateSwitchOnDisabled: "switch-on-disabled",
	StateReadyToSwitchOn:  "ready-to-switch-on",
	StateSwitchedOn:       "switched-on",
	StateOperationEnabled: "operation-enabled",
	StateQuickStopActive:  "quick-stop-active",
	StateFault:            "fault",
	StateUnknown:          "unknown",
}

func (st State) String() string {
	if int(st) < len(stateNames) {
		return stateNames[st]
	}
	return "unknown"
}

// State decodes the masked status word.
func (s StatusWord) State() State {
	switch s.Masked() {
	case 0x0000:
		return StateNotReady
	case 0x0040, 0x0060:
		return StateSwitchOnDisabled
	case 0x0021:
		return StateReadyToSwitchOn
	case 0x0023:
		return StateSwitchedOn
	case 0x0027:
		return StateOperationEnabled
	case 0x0007:
		return StateQuickStopActive
	case 0x0008, 0x000F:
		return StateFault
	default:
		return StateUnknown
	}
}
