//go:build linux && igh

// internal/fieldbus/igh/igh.go

// Package igh binds the fieldbus.Master contract to the IgH EtherCAT
// master library. Built only with the igh tag, which needs ecrt.h and
// libethercat on the build host.
package igh

/*
#cgo LDFLAGS: -lethercat
#include <stdlib.h>
#include <ecrt.h>

// Bitfield members are not reachable from cgo, so the state structs
// are unpacked through these helpers.
static unsigned int _master_al_states(ec_master_state_t s) { return s.al_states; }
static unsigned int _master_link_up(ec_master_state_t s) { return s.link_up; }
static unsigned int _domain_wc_state(ec_domain_state_t s) { return (unsigned int)s.wc_state; }
static unsigned int _sc_online(ec_slave_config_state_t s) { return s.online; }
static unsigned int _sc_operational(ec_slave_config_state_t s) { return s.operational; }
static unsigned int _sc_al_state(ec_slave_config_state_t s) { return s.al_state; }
*/
import "C"

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/axisworks/motiond/internal/fieldbus"
)

// Distributed clock assign/activate word for servo drives with a
// sync0 signal.
const dcAssignActivate = 0x0300

// Master drives real hardware through the IgH library.
type Master struct {
	master     *C.ec_master_t
	domain     *C.ec_domain_t
	scs        []*C.ec_slave_config_t
	byPosition map[uint16]*C.ec_slave_config_t
	image      fieldbus.Image
	active     bool
}

var _ fieldbus.Master = (*Master)(nil)

// Open requests master instance idx from the kernel module.
func Open(idx uint) (fieldbus.Master, error) {
	master := C.ecrt_request_master(C.uint(idx))
	if master == nil {
		return nil, fmt.Errorf("igh: request master %d failed, is the master module loaded", idx)
	}
	domain := C.ecrt_master_create_domain(master)
	if domain == nil {
		C.ecrt_release_master(master)
		return nil, errors.New("igh: create domain failed")
	}
	return &Master{
		master:     master,
		domain:     domain,
		byPosition: make(map[uint16]*C.ec_slave_config_t),
	}, nil
}

func (m *Master) ConfigureSlave(cfg fieldbus.SlaveConfig, startup []fieldbus.SDORequest) error {
	if m.active {
		return errors.New("igh: configure after activate")
	}
	id := cfg.Identity
	sc := C.ecrt_master_slave_config(m.master,
		C.uint16_t(id.Alias), C.uint16_t(id.Position),
		C.uint32_t(id.VendorID), C.uint32_t(id.ProductCode))
	if sc == nil {
		return fmt.Errorf("igh: slave config %d/%d (%#08x/%#08x) failed",
			id.Alias, id.Position, id.VendorID, id.ProductCode)
	}

	for _, r := range startup {
		var ret C.int
		switch r.Size {
		case 1:
			ret = C.ecrt_slave_config_sdo8(sc, C.uint16_t(r.Index), C.uint8_t(r.SubIndex), C.uint8_t(r.Value))
		case 2:
			ret = C.ecrt_slave_config_sdo16(sc, C.uint16_t(r.Index), C.uint8_t(r.SubIndex), C.uint16_t(r.Value))
		case 4:
			ret = C.ecrt_slave_config_sdo32(sc, C.uint16_t(r.Index), C.uint8_t(r.SubIndex), C.uint32_t(r.Value))
		default:
			return fmt.Errorf("igh: sdo %#04x:%d has unsupported size %d", r.Index, r.SubIndex, r.Size)
		}
		if ret < 0 {
			return fmt.Errorf("igh: startup sdo %#04x:%d on position %d failed: %d",
				r.Index, r.SubIndex, id.Position, int(ret))
		}
	}

	syncs, free := buildSyncs(cfg)
	defer free()
	if ret := C.ecrt_slave_config_pdos(sc, C.EC_END, syncs); ret < 0 {
		return fmt.Errorf("igh: pdo assignment on position %d failed: %d", id.Position, int(ret))
	}

	m.scs = append(m.scs, sc)
	m.byPosition[id.Position] = sc
	return nil
}

// buildSyncs lays the slave's PDO assignment out as C sync-manager
// descriptors: SM0/SM1 mailbox, SM2 outputs with watchdog, SM3 inputs.
// The library copies the data, the returned free releases it.
func buildSyncs(cfg fieldbus.SlaveConfig) (*C.ec_sync_info_t, func()) {
	var allocs []unsafe.Pointer
	calloc := func(n, size int) unsafe.Pointer {
		p := C.calloc(C.size_t(n), C.size_t(size))
		allocs = append(allocs, p)
		return p
	}

	pdoArray := func(pdos []fieldbus.PDO) *C.ec_pdo_info_t {
		if len(pdos) == 0 {
			return nil
		}
		arr := (*C.ec_pdo_info_t)(calloc(len(pdos), C.sizeof_ec_pdo_info_t))
		infos := unsafe.Slice(arr, len(pdos))
		for i, p := range pdos {
			var entries *C.ec_pdo_entry_info_t
			if len(p.Entries) > 0 {
				entries = (*C.ec_pdo_entry_info_t)(calloc(len(p.Entries), C.sizeof_ec_pdo_entry_info_t))
				ents := unsafe.Slice(entries, len(p.Entries))
				for j, e := range p.Entries {
					ents[j] = C.ec_pdo_entry_info_t{
						index:      C.uint16_t(e.Index),
						subindex:   C.uint8_t(e.SubIndex),
						bit_length: C.uint8_t(e.BitLen),
					}
				}
			}
			infos[i] = C.ec_pdo_info_t{
				index:     C.uint16_t(p.Index),
				n_entries: C.uint(len(p.Entries)),
				entries:   entries,
			}
		}
		return arr
	}

	syncs := (*C.ec_sync_info_t)(calloc(5, C.sizeof_ec_sync_info_t))
	ss := unsafe.Slice(syncs, 5)
	ss[0] = C.ec_sync_info_t{index: 0, dir: C.EC_DIR_OUTPUT, watchdog_mode: C.EC_WD_DISABLE}
	ss[1] = C.ec_sync_info_t{index: 1, dir: C.EC_DIR_INPUT, watchdog_mode: C.EC_WD_DISABLE}
	ss[2] = C.ec_sync_info_t{
		index: 2, dir: C.EC_DIR_OUTPUT,
		n_pdos: C.uint(len(cfg.Outputs)), pdos: pdoArray(cfg.Outputs),
		watchdog_mode: C.EC_WD_ENABLE,
	}
	ss[3] = C.ec_sync_info_t{
		index: 3, dir: C.EC_DIR_INPUT,
		n_pdos: C.uint(len(cfg.Inputs)), pdos: pdoArray(cfg.Inputs),
		watchdog_mode: C.EC_WD_DISABLE,
	}
	ss[4] = C.ec_sync_info_t{index: 0xff}

	return syncs, func() {
		for _, p := range allocs {
			C.free(p)
		}
	}
}

func (m *Master) Register(regs []fieldbus.Registration) ([]uint32, error) {
	if m.active {
		return nil, errors.New("igh: register after activate")
	}
	offsets := make([]uint32, 0, len(regs))
	for _, reg := range regs {
		sc := m.byPosition[reg.Slave.Position]
		if sc == nil {
			return nil, fmt.Errorf("igh: no slave config for position %d", reg.Slave.Position)
		}
		var bitPos C.uint
		off := C.ecrt_slave_config_reg_pdo_entry(sc,
			C.uint16_t(reg.Index), C.uint8_t(reg.SubIndex), m.domain, &bitPos)
		if off < 0 {
			return nil, fmt.Errorf("igh: object %#04x:%d not mapped on position %d: %d",
				reg.Index, reg.SubIndex, reg.Slave.Position, int(off))
		}
		if bitPos != 0 {
			return nil, fmt.Errorf("igh: object %#04x:%d on position %d is bit-aligned, unsupported",
				reg.Index, reg.SubIndex, reg.Slave.Position)
		}
		offsets = append(offsets, uint32(off))
	}
	return offsets, nil
}

func (m *Master) SelectReferenceClock(slave int) error {
	if slave < 0 || slave >= len(m.scs) {
		return fmt.Errorf("igh: reference clock slave %d out of range", slave)
	}
	if ret := C.ecrt_master_select_reference_clock(m.master, m.scs[slave]); ret < 0 {
		return fmt.Errorf("igh: select reference clock failed: %d", int(ret))
	}
	return nil
}

func (m *Master) ConfigureSync0(slave int, period time.Duration) error {
	if slave < 0 || slave >= len(m.scs) {
		return fmt.Errorf("igh: sync0 slave %d out of range", slave)
	}
	C.ecrt_slave_config_dc(m.scs[slave], dcAssignActivate,
		C.uint32_t(period.Nanoseconds()), 0, 0, 0)
	return nil
}

func (m *Master) Activate() (fieldbus.Image, error) {
	if ret := C.ecrt_master_activate(m.master); ret < 0 {
		return nil, fmt.Errorf("igh: activate failed: %d", int(ret))
	}
	data := C.ecrt_domain_data(m.domain)
	if data == nil {
		return nil, errors.New("igh: domain data unavailable")
	}
	size := C.ecrt_domain_size(m.domain)
	m.image = unsafe.Slice((*byte)(unsafe.Pointer(data)), int(size))
	m.active = true
	return m.image, nil
}

func (m *Master) SetApplicationTime(ns uint64) {
	C.ecrt_master_application_time(m.master, C.uint64_t(ns))
}

func (m *Master) Receive() error {
	C.ecrt_master_receive(m.master)
	return nil
}

func (m *Master) ProcessDomain() {
	C.ecrt_domain_process(m.domain)
}

func (m *Master) SyncSlaveClocks() {
	C.ecrt_master_sync_reference_clock(m.master)
	C.ecrt_master_sync_slave_clocks(m.master)
}

func (m *Master) QueueDomain() {
	C.ecrt_domain_queue(m.domain)
}

func (m *Master) Send() error {
	C.ecrt_master_send(m.master)
	return nil
}

func (m *Master) MasterState() fieldbus.MasterState {
	var st C.ec_master_state_t
	C.ecrt_master_state(m.master, &st)
	return fieldbus.MasterState{
		SlavesResponding: uint32(st.slaves_responding),
		ALStates:         uint8(C._master_al_states(st)),
		LinkUp:           C._master_link_up(st) != 0,
	}
}

func (m *Master) DomainState() fieldbus.DomainState {
	var st C.ec_domain_state_t
	C.ecrt_domain_state(m.domain, &st)
	return fieldbus.DomainState{
		WorkingCounter: uint32(st.working_counter),
		Complete:       C._domain_wc_state(st) == C.EC_WC_COMPLETE,
	}
}

func (m *Master) SlaveState(slave int) fieldbus.SlaveState {
	if slave < 0 || slave >= len(m.scs) {
		return fieldbus.SlaveState{}
	}
	var st C.ec_slave_config_state_t
	C.ecrt_slave_config_state(m.scs[slave], &st)
	return fieldbus.SlaveState{
		Online:      C._sc_online(st) != 0,
		Operational: C._sc_operational(st) != 0,
		ALState:     uint8(C._sc_al_state(st)),
	}
}

func (m *Master) Release() {
	if m.master != nil {
		C.ecrt_release_master(m.master)
		m.master = nil
		m.domain = nil
		m.scs = nil
		m.byPosition = nil
		m.image = nil
		m.active = false
	}
}
