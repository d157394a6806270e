// internal/fieldbus/sim/sim.go

// Package sim provides an in-process fieldbus master with simulated
// servo drives. The drives speak the profile handshake for real:
// command sequencing, fault reset edges and position tracking behave
// like hardware, so the full controller stack runs against it
// unchanged. Used by the -sim deployment mode and the tests.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/axisworks/motiond/internal/fieldbus"
)

// Config tunes the simulated bus.
type Config struct {
	// PositionSlew caps how far a drive moves per cycle. Zero lets
	// drives track their target instantly.
	PositionSlew int32
}

type regSlot struct {
	drive  int
	index  uint16
	offset uint32
	width  uint32
	output bool
}

// Master implements fieldbus.Master against simulated drives.
type Master struct {
	mu sync.Mutex

	cfg    Config
	drives []*drive
	slots  []regSlot
	size   uint32
	image  fieldbus.Image

	active   bool
	released bool
	refClock int
	sync0    map[int]time.Duration
	appTime  uint64

	failReceives int
	failSends    int
}

var _ fieldbus.Master = (*Master)(nil)

func New(cfg Config) *Master {
	return &Master{cfg: cfg, refClock: -1, sync0: make(map[int]time.Duration)}
}

func (m *Master) ConfigureSlave(cfg fieldbus.SlaveConfig, startup []fieldbus.SDORequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.configurable(); err != nil {
		return err
	}
	// Startup SDOs are accepted and dropped, simulated drives have no
	// parameter store.
	m.drives = append(m.drives, &drive{
		identity: cfg.Identity,
		outputs:  cfg.Outputs,
		inputs:   cfg.Inputs,
		state:    stateNotReady,
	})
	return nil
}

func (m *Master) Register(regs []fieldbus.Registration) ([]uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.configurable(); err != nil {
		return nil, err
	}
	offsets := make([]uint32, 0, len(regs))
	for _, reg := range regs {
		di := m.findDrive(reg.Slave)
		if di < 0 {
			return nil, fmt.Errorf("sim: no configured slave at position %d with identity %#08x/%#08x",
				reg.Slave.Position, reg.Slave.VendorID, reg.Slave.ProductCode)
		}
		output, ok := m.drives[di].mapped(reg.Index, reg.SubIndex)
		if !ok {
			return nil, fmt.Errorf("sim: object %#04x:%d not mapped on slave position %d",
				reg.Index, reg.SubIndex, reg.Slave.Position)
		}
		width := m.entryWidth(di, reg.Index, reg.SubIndex)
		if width == 0 {
			return nil, fmt.Errorf("sim: object %#04x:%d has zero width on slave position %d",
				reg.Index, reg.SubIndex, reg.Slave.Position)
		}
		m.slots = append(m.slots, regSlot{
			drive:  di,
			index:  reg.Index,
			offset: m.size,
			width:  width,
			output: output,
		})
		offsets = append(offsets, m.size)
		m.size += width
	}
	return offsets, nil
}

func (m *Master) SelectReferenceClock(slave int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.configurable(); err != nil {
		return err
	}
	if slave < 0 || slave >= len(m.drives) {
		return fmt.Errorf("sim: reference clock slave %d out of range", slave)
	}
	m.refClock = slave
	return nil
}

func (m *Master) ConfigureSync0(slave int, period time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.configurable(); err != nil {
		return err
	}
	if slave < 0 || slave >= len(m.drives) {
		return fmt.Errorf("sim: sync0 slave %d out of range", slave)
	}
	if period <= 0 {
		return fmt.Errorf("sim: sync0 period must be > 0, got %v", period)
	}
	m.sync0[slave] = period
	return nil
}

func (m *Master) Activate() (fieldbus.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.configurable(); err != nil {
		return nil, err
	}
	if len(m.drives) == 0 {
		return nil, errors.New("sim: no slaves configured")
	}
	if m.size == 0 {
		return nil, errors.New("sim: nothing registered")
	}
	m.image = make(fieldbus.Image, m.size)
	m.active = true
	return m.image, nil
}

func (m *Master) SetApplicationTime(ns uint64) {
	m.mu.Lock()
	m.appTime = ns
	m.mu.Unlock()
}

func (m *Master) Receive() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return errors.New("sim: receive before activate")
	}
	if m.failReceives > 0 {
		m.failReceives--
		return errors.New("sim: frame lost")
	}
	return nil
}

// ProcessDomain copies drive inputs into the image.
func (m *Master) ProcessDomain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	for _, s := range m.slots {
		if s.output {
			continue
		}
		m.put(s, m.drives[s.drive].inputValue(s.index))
	}
}

func (m *Master) SyncSlaveClocks() {}

// QueueDomain stages image outputs onto the drives.
func (m *Master) QueueDomain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	for _, s := range m.slots {
		if !s.output {
			continue
		}
		m.drives[s.drive].applyOutput(s.index, m.get(s))
	}
}

// Send applies the staged outputs and advances every drive one cycle.
func (m *Master) Send() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return errors.New("sim: send before activate")
	}
	if m.failSends > 0 {
		m.failSends--
		return errors.New("sim: send failed")
	}
	for _, d := range m.drives {
		d.step(m.cfg.PositionSlew)
	}
	return nil
}

func (m *Master) MasterState() fieldbus.MasterState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := fieldbus.MasterState{
		SlavesResponding: uint32(len(m.drives)),
		LinkUp:           !m.released,
	}
	if m.active {
		st.ALStates = 0x08 // OP
	} else {
		st.ALStates = 0x02 // PREOP
	}
	return st
}

func (m *Master) DomainState() fieldbus.DomainState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fieldbus.DomainState{
		WorkingCounter: uint32(len(m.drives) * 3),
		Complete:       m.active,
	}
}

func (m *Master) SlaveState(slave int) fieldbus.SlaveState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slave < 0 || slave >= len(m.drives) {
		return fieldbus.SlaveState{}
	}
	st := fieldbus.SlaveState{Online: !m.released, Operational: m.active}
	if m.active {
		st.ALState = 0x08
	} else {
		st.ALState = 0x02
	}
	return st
}

func (m *Master) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.released = true
}

// ------------------------------------------------------------
// TEST AND CONSOLE HOOKS
// ------------------------------------------------------------

// DriveState is an outside view of one simulated drive.
type DriveState struct {
	Status  uint16
	Control uint16
	Mode    int8
	Target  int32
	Actual  int32
	Faulted bool
}

// DriveCount returns the number of configured drives.
func (m *Master) DriveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drives)
}

// Drive returns the current state of one drive.
func (m *Master) Drive(i int) DriveState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.drives) {
		return DriveState{}
	}
	d := m.drives[i]
	return DriveState{
		Status:  d.status(),
		Control: d.lastCtrl,
		Mode:    d.modeDisplay,
		Target:  d.target,
		Actual:  d.actual,
		Faulted: d.faulted,
	}
}

// InjectFault trips one drive. It stays faulted until a reset edge.
func (m *Master) InjectFault(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.drives) {
		return
	}
	m.drives[i].faulted = true
}

// FailReceives makes the next n Receive calls fail.
func (m *Master) FailReceives(n int) {
	m.mu.Lock()
	m.failReceives = n
	m.mu.Unlock()
}

// FailSends makes the next n Send calls fail.
func (m *Master) FailSends(n int) {
	m.mu.Lock()
	m.failSends = n
	m.mu.Unlock()
}

// ------------------------------------------------------------
// INTERNALS
// ------------------------------------------------------------

func (m *Master) configurable() error {
	if m.released {
		return errors.New("sim: master released")
	}
	if m.active {
		return errors.New("sim: already activated")
	}
	return nil
}

func (m *Master) findDrive(id fieldbus.SlaveIdentity) int {
	for i, d := range m.drives {
		if d.identity.Position == id.Position &&
			d.identity.VendorID == id.VendorID &&
			d.identity.ProductCode == id.ProductCode {
			return i
		}
	}
	return -1
}

func (m *Master) entryWidth(di int, index uint16, sub uint8) uint32 {
	d := m.drives[di]
	for _, pdos := range [][]fieldbus.PDO{d.outputs, d.inputs} {
		for _, p := range pdos {
			for _, e := range p.Entries {
				if e.Index == index && e.SubIndex == sub {
					return (uint32(e.BitLen) + 7) / 8
				}
			}
		}
	}
	return 0
}

func (m *Master) put(s regSlot, v uint32) {
	switch s.width {
	case 1:
		m.image.PutU8(s.offset, uint8(v))
	case 2:
		m.image.PutU16(s.offset, uint16(v))
	default:
		m.image.PutU32(s.offset, v)
	}
}

func (m *Master) get(s regSlot) uint32 {
	switch s.width {
	case 1:
		return uint32(m.image.U8(s.offset))
	case 2:
		return uint32(m.image.U16(s.offset))
	default:
		return m.image.U32(s.offset)
	}
}
