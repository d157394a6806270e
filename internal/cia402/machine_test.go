// internal/cia402/machine_test.go
package cia402

import "testing"

func TestMachine_EnableChain(t *testing.T) {
	m := NewMachine(StandardPolicy)

	steps := []struct {
		status uint16
		ctrl   uint16
		action Action
	}{
		{0x0231, CtrlSwitchOn, ActionLatchTarget},
		{0x0233, CtrlEnableOperation, ActionNone},
		{0x0237, CtrlEnableOperation, ActionEnable},
	}

	for i, s := range steps {
		dec := m.Step(StatusWord(s.status))
		if dec.FaultReset {
			t.Fatalf("step %d: unexpected fault reset", i)
		}
		if dec.Control != s.ctrl {
			t.Fatalf("step %d: expected control %#04x, got %#04x", i, s.ctrl, dec.Control)
		}
		if dec.Action != s.action {
			t.Fatalf("step %d: expected action %d, got %d", i, s.action, dec.Action)
		}
	}
}

func TestMachine_FaultPulseIsTwoCycles(t *testing.T) {
	m := NewMachine(StandardPolicy)
	fault := StatusWord(0x0218)

	dec := m.Step(fault)
	if !dec.FaultReset || dec.Control != CtrlDisableVoltage {
		t.Fatalf("cycle 1: expected disable voltage, got %#04x (reset=%v)", dec.Control, dec.FaultReset)
	}

	dec = m.Step(fault)
	if !dec.FaultReset || dec.Control != CtrlFaultReset {
		t.Fatalf("cycle 2: expected fault reset, got %#04x (reset=%v)", dec.Control, dec.FaultReset)
	}

	// The same latched fault must not trigger another pulse.
	dec = m.Step(fault)
	if dec.FaultReset {
		t.Fatalf("cycle 3: pulse repeated while fault stayed latched")
	}
	if dec.Control != CtrlShutdown {
		t.Fatalf("cycle 3: expected policy shutdown, got %#04x", dec.Control)
	}
}

func TestMachine_FaultPulseReArmsAfterClear(t *testing.T) {
	m := NewMachine(StandardPolicy)
	fault := StatusWord(0x0218)

	m.Step(fault) // disable voltage
	m.Step(fault) // reset command
	m.Step(fault) // suppressed

	// Fault clears, the drive reports ready.
	dec := m.Step(StatusWord(0x0231))
	if dec.FaultReset {
		t.Fatalf("clean status: unexpected fault reset")
	}
	if dec.Control != CtrlSwitchOn {
		t.Fatalf("clean status: expected switch on, got %#04x", dec.Control)
	}

	// A new fault gets a new pulse.
	dec = m.Step(fault)
	if !dec.FaultReset || dec.Control != CtrlDisableVoltage {
		t.Fatalf("new fault: expected disable voltage, got %#04x (reset=%v)", dec.Control, dec.FaultReset)
	}
}
