// internal/cia402/vendors.go
package cia402

// eyouPolicy handles EYOU servo drives. These drives latch the warning
// bit across state transitions and then stall on the standard sequence,
// so while the warning is up the next command is chosen from the
// progress bits alone instead of the decoded state.
type eyouPolicy struct{}

func (eyouPolicy) Name() string { return "eyou" }

func (eyouPolicy) ControlWord(s StatusWord) (uint16, Action) {
	if s.Warning() && !s.Fault() {
		w := uint16(s)
		switch {
		case w&(BitReadyToSwitchOn|BitSwitchedOn|BitOperationOn) ==
			BitReadyToSwitchOn|BitSwitchedOn|BitOperationOn:
			return CtrlEnableOperation, ActionEnable
		case w&(BitReadyToSwitchOn|BitSwitchedOn) == BitReadyToSwitchOn|BitSwitchedOn:
			return CtrlEnableOperation, ActionNone
		case w&BitReadyToSwitchOn != 0:
			return CtrlSwitchOn, ActionLatchTarget
		default:
			return CtrlShutdown, ActionNone
		}
	}
	return StandardPolicy.ControlWord(s)
}
