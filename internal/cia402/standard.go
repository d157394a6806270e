// internal/cia402/standard.go
package cia402

// StandardPolicy walks the profile enable chain: shutdown, switch on,
// enable operation. Unknown and quick-stop states are answered with
// shutdown, which is the profile's safe re-entry point.
var StandardPolicy Policy = standardPolicy{}

type standardPolicy struct{}

func (standardPolicy) Name() string { return "standard" }

func (standardPolicy) ControlWord(s StatusWord) (uint16, Action) {
	switch s.State() {
	case StateReadyToSwitchOn:
		return CtrlSwitchOn, ActionLatchTarget
	case StateSwitchedOn:
		return CtrlEnableOperation, ActionNone
	case StateOperationEnabled:
		return CtrlEnableOperation, ActionEnable
	default:
		return CtrlShutdown, ActionNone
	}
}
