// internal/fieldbus/sim/sim_test.go
package sim

import (
	"testing"
	"time"

	"github.com/axisworks/motiond/internal/eni"
	"github.com/axisworks/motiond/internal/fieldbus"
)

func slaveConfig(ax eni.AxisConfig) fieldbus.SlaveConfig {
	return fieldbus.SlaveConfig{
		Identity: fieldbus.SlaveIdentity{
			Position:    ax.Position,
			VendorID:    ax.VendorID,
			ProductCode: ax.ProductCode,
		},
		Outputs: ax.Outputs,
		Inputs:  ax.Inputs,
	}
}

// bench is one configured axis with the four objects the handshake
// needs claimed: control, target, status, actual.
type bench struct {
	m                      *Master
	img                    fieldbus.Image
	ctrl, tgt, status, act uint32
}

func newBench(t *testing.T, cfg Config) *bench {
	t.Helper()
	m := New(cfg)
	ax := eni.DefaultAxes(1)[0]
	if err := m.ConfigureSlave(slaveConfig(ax), nil); err != nil {
		t.Fatalf("configure: %v", err)
	}
	id := fieldbus.SlaveIdentity{Position: ax.Position, VendorID: ax.VendorID, ProductCode: ax.ProductCode}
	offsets, err := m.Register([]fieldbus.Registration{
		{Slave: id, Index: 0x6040},
		{Slave: id, Index: 0x607A},
		{Slave: id, Index: 0x6041},
		{Slave: id, Index: 0x6064},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.SelectReferenceClock(0); err != nil {
		t.Fatalf("reference clock: %v", err)
	}
	if err := m.ConfigureSync0(0, 4*time.Millisecond); err != nil {
		t.Fatalf("sync0: %v", err)
	}
	img, err := m.Activate()
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	return &bench{m: m, img: img, ctrl: offsets[0], tgt: offsets[1], status: offsets[2], act: offsets[3]}
}

// cycle runs one bus cycle writing the given control word and target.
// It returns the status word seen during the cycle.
func (b *bench) cycle(t *testing.T, ctrl uint16, tgt int32) uint16 {
	t.Helper()
	if err := b.m.Receive(); err != nil {
		t.Fatalf("receive: %v", err)
	}
	b.m.ProcessDomain()
	status := b.img.U16(b.status)
	b.img.PutU16(b.ctrl, ctrl)
	b.img.PutS32(b.tgt, tgt)
	b.m.QueueDomain()
	if err := b.m.Send(); err != nil {
		t.Fatalf("send: %v", err)
	}
	return status
}

func TestMaster_HandshakeToOperationEnabled(t *testing.T) {
	b := newBench(t, Config{})

	steps := []struct {
		ctrl uint16
		want uint16 // status observed in that cycle
	}{
		{0x0006, statusNotReady},         // power-up settles regardless
		{0x0006, statusSwitchOnDisabled}, // shutdown
		{0x0007, statusReadyToSwitchOn},  // switch on
		{0x000F, statusSwitchedOn},       // enable operation
		{0x000F, statusOperationEnabled},
	}

	for i, s := range steps {
		got := b.cycle(t, s.ctrl, 0)
		if got != s.want {
			t.Fatalf("cycle %d: expected status %#04x, got %#04x", i+1, s.want, got)
		}
	}
}

func TestMaster_PositionTracksTargetWithSlew(t *testing.T) {
	b := newBench(t, Config{PositionSlew: 10})

	// Walk to operation enabled.
	for _, ctrl := range []uint16{0x0006, 0x0006, 0x0007, 0x000F} {
		b.cycle(t, ctrl, 0)
	}

	b.cycle(t, 0x000F, 100)
	if got := b.m.Drive(0).Actual; got != 10 {
		t.Fatalf("after 1 cycle: expected actual 10, got %d", got)
	}
	for i := 0; i < 9; i++ {
		b.cycle(t, 0x000F, 100)
	}
	if got := b.m.Drive(0).Actual; got != 100 {
		t.Fatalf("after 10 cycles: expected actual 100, got %d", got)
	}
	// Holds once reached.
	b.cycle(t, 0x000F, 100)
	if got := b.m.Drive(0).Actual; got != 100 {
		t.Fatalf("expected actual to hold at 100, got %d", got)
	}
}

func TestMaster_FaultResetNeedsEdge(t *testing.T) {
	b := newBench(t, Config{})

	for _, ctrl := range []uint16{0x0006, 0x0006, 0x0007, 0x000F} {
		b.cycle(t, ctrl, 0)
	}
	b.m.InjectFault(0)

	if got := b.cycle(t, 0x000F, 0); got != statusFault {
		t.Fatalf("expected fault status, got %#04x", got)
	}

	// Bit 7 was low, this is a rising edge: the fault clears.
	b.cycle(t, 0x0080, 0)
	st := b.m.Drive(0)
	if st.Faulted {
		t.Fatalf("expected fault cleared after reset edge")
	}
	if st.Status != statusSwitchOnDisabled {
		t.Fatalf("expected switch-on-disabled after reset, got %#04x", st.Status)
	}

	// A held bit is no edge: a second fault stays latched.
	b.m.InjectFault(0)
	b.cycle(t, 0x0080, 0)
	if !b.m.Drive(0).Faulted {
		t.Fatalf("expected fault to stay latched without an edge")
	}
}

func TestMaster_RegisterRejectsUnknownObjects(t *testing.T) {
	m := New(Config{})
	ax := eni.DefaultAxes(1)[0]
	if err := m.ConfigureSlave(slaveConfig(ax), nil); err != nil {
		t.Fatalf("configure: %v", err)
	}
	id := fieldbus.SlaveIdentity{Position: ax.Position, VendorID: ax.VendorID, ProductCode: ax.ProductCode}

	if _, err := m.Register([]fieldbus.Registration{{Slave: id, Index: 0x9999}}); err == nil {
		t.Fatalf("expected error for unmapped object, got nil")
	}

	wrong := id
	wrong.ProductCode = 0xDEAD
	if _, err := m.Register([]fieldbus.Registration{{Slave: wrong, Index: 0x6040}}); err == nil {
		t.Fatalf("expected error for unknown identity, got nil")
	}
}

func TestMaster_FailureInjection(t *testing.T) {
	b := newBench(t, Config{})

	b.m.FailReceives(1)
	if err := b.m.Receive(); err == nil {
		t.Fatalf("expected injected receive failure")
	}
	if err := b.m.Receive(); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}

	b.m.FailSends(1)
	if err := b.m.Send(); err == nil {
		t.Fatalf("expected injected send failure")
	}
	if err := b.m.Send(); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

func TestMaster_LifecycleGuards(t *testing.T) {
	m := New(Config{})
	if err := m.Receive(); err == nil {
		t.Fatalf("expected receive before activate to fail")
	}
	if _, err := m.Activate(); err == nil {
		t.Fatalf("expected activate without slaves to fail")
	}

	b := newBench(t, Config{})
	if err := b.m.ConfigureSlave(slaveConfig(eni.DefaultAxes(1)[0]), nil); err == nil {
		t.Fatalf("expected configure after activate to fail")
	}
	b.m.Release()
	if st := b.m.MasterState(); st.LinkUp {
		t.Fatalf("expected link down after release")
	}
}
