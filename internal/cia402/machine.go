// internal/cia402/machine.go
package cia402

// Machine sequences one axis through fault recovery and the enable
// chain. It is stateful where Policy is not: fault resets need a real
// edge on the wire, which takes two consecutive cycles, and must not
// repeat while the same fault stays latched.
//
// Not safe for concurrent use. Each axis owns one Machine driven from
// the cycle goroutine.
type Machine struct {
	policy    Policy
	pulseLeft int
	faultSeen bool
}

func NewMachine(p Policy) *Machine {
	return &Machine{policy: p}
}

func (m *Machine) PolicyName() string { return m.policy.Name() }

// Decision is the outcome of one Step.
type Decision struct {
	Control    uint16
	Action     Action
	FaultReset bool
}

// Step consumes the status word of the current cycle and decides the
// control word for it.
//
// A newly seen fault produces a two-cycle reset pulse: disable voltage
// first, then the reset command. Writing both in one cycle would leave
// only the last word on the wire and the drive would never see the
// reset edge. While the pulse runs, policy output is suppressed. A
// fault that stays latched after the pulse is not pulsed again until
// the pattern clears once.
func (m *Machine) Step(status StatusWord) Decision {
	if m.pulseLeft > 0 {
		m.pulseLeft--
		return Decision{Control: CtrlFaultReset, FaultReset: true}
	}

	pending := status.FaultPending()
	if pending && !m.faultSeen {
		m.faultSeen = true
		m.pulseLeft = 1
		return Decision{Control: CtrlDisableVoltage, FaultReset: true}
	}
	if !pending {
		m.faultSeen = false
	}

	ctrl, action := m.policy.ControlWord(status)
	return Decision{Control: ctrl, Action: action}
}
