// internal/cia402/control.go
package cia402

// Control word commands. Only the full-word forms the controller
// actually emits are named, not the individual bits.
const (
	CtrlDisableVoltage  uint16 = 0x0000
	CtrlShutdown        uint16 = 0x0006
	CtrlSwitchOn        uint16 = 0x0007
	CtrlEnableOperation uint16 = 0x000F
	CtrlFaultReset      uint16 = 0x0080
)

// Mode is the operation mode written to object 0x6060.
type Mode int8

const (
	ModeProfilePosition  Mode = 1
	ModeVelocity         Mode = 2
	ModeProfileVelocity  Mode = 3
	ModeProfileTorque    Mode = 4
	ModeHoming           Mode = 6
	ModeCyclicSyncPos    Mode = 8
	ModeCyclicSyncVel    Mode = 9
	ModeCyclicSyncTorque Mode = 10
)

var modeNames = map[Mode]string{
	ModeProfilePosition:  "pp",
	ModeVelocity:         "vl",
	ModeProfileVelocity:  "pv",
	ModeProfileTorque:    "tq",
	ModeHoming:           "hm",
	ModeCyclicSyncPos:    "csp",
	ModeCyclicSyncVel:    "csv",
	ModeCyclicSyncTorque: "cst",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return "unknown"
}

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, bool) {
	for m, n := range modeNames {
		if n == s {
			return m, true
		}
	}
	return 0, false
}
