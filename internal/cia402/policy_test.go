// internal/cia402/policy_test.go
package cia402

import "testing"

func TestStandardPolicy_ControlWords(t *testing.T) {
	cases := []struct {
		status uint16
		ctrl   uint16
		action Action
	}{
		{0x0000, CtrlShutdown, ActionNone}, // not ready
		{0x0250, CtrlShutdown, ActionNone}, // switch-on-disabled
		{0x0231, CtrlSwitchOn, ActionLatchTarget},
		{0x0233, CtrlEnableOperation, ActionNone},
		{0x0237, CtrlEnableOperation, ActionEnable},
		{0x0207, CtrlShutdown, ActionNone}, // quick stop
		{0x0011, CtrlShutdown, ActionNone}, // unknown
	}

	for _, c := range cases {
		ctrl, action := StandardPolicy.ControlWord(StatusWord(c.status))
		if ctrl != c.ctrl || action != c.action {
			t.Fatalf("status %#04x: expected (%#04x, %d), got (%#04x, %d)",
				c.status, c.ctrl, c.action, ctrl, action)
		}
	}
}

func TestEyouPolicy_WarningOverridesState(t *testing.T) {
	p := eyouPolicy{}

	cases := []struct {
		status uint16
		ctrl   uint16
		action Action
	}{
		// Warning latched, command chosen from the progress bits.
		{0x00B7, CtrlEnableOperation, ActionEnable}, // ready+on+operation
		{0x00B3, CtrlEnableOperation, ActionNone},   // ready+on
		{0x00B1, CtrlSwitchOn, ActionLatchTarget},   // ready only
		{0x0090, CtrlShutdown, ActionNone},          // nothing yet
		// Warning with fault goes back to the standard sequence.
		{0x00BF, CtrlShutdown, ActionNone},
		// No warning, plain standard behavior.
		{0x0231, CtrlSwitchOn, ActionLatchTarget},
	}

	for _, c := range cases {
		ctrl, action := p.ControlWord(StatusWord(c.status))
		if ctrl != c.ctrl || action != c.action {
			t.Fatalf("status %#04x: expected (%#04x, %d), got (%#04x, %d)",
				c.status, c.ctrl, c.action, ctrl, action)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	if got := r.Lookup(0x00001097, 0x00002406).Name(); got != "eyou" {
		t.Fatalf("expected eyou policy, got %s", got)
	}
	if got := r.Lookup(0x000116C7, 0x003E0402).Name(); got != "standard" {
		t.Fatalf("expected standard fallback, got %s", got)
	}

	r.Register(Signature{VendorID: 1, ProductCode: 2}, eyouPolicy{})
	if got := r.Lookup(1, 2).Name(); got != "eyou" {
		t.Fatalf("expected registered policy, got %s", got)
	}
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("csp")
	if !ok || m != ModeCyclicSyncPos {
		t.Fatalf("expected csp to parse to %d, got %d (ok=%v)", ModeCyclicSyncPos, m, ok)
	}
	if _, ok := ParseMode("bogus"); ok {
		t.Fatalf("expected bogus mode to fail")
	}
	if got := ModeCyclicSyncPos.String(); got != "csp" {
		t.Fatalf("expected csp, got %s", got)
	}
}
