// internal/fieldbus/provider.go
package fieldbus

import "time"

// PDOEntry is one mapped object inside a process data object.
type PDOEntry struct {
	Index    uint16
	SubIndex uint8
	BitLen   uint8
}

// PDO is one process data object and its mapped entries.
type PDO struct {
	Index   uint16
	Entries []PDOEntry
}

// SlaveIdentity addresses one drive on the bus.
type SlaveIdentity struct {
	Alias       uint16
	Position    uint16
	VendorID    uint32
	ProductCode uint32
}

// SlaveConfig is the sync-manager PDO assignment for one drive.
// Outputs flow controller to drive, inputs flow drive to controller.
type SlaveConfig struct {
	Identity SlaveIdentity
	Outputs  []PDO
	Inputs   []PDO
}

// SDORequest is a startup parameter the provider applies before cyclic
// exchange begins. Size is the payload width in bytes: 1, 2 or 4.
type SDORequest struct {
	Index    uint16
	SubIndex uint8
	Size     uint8
	Value    uint32
}

// Registration claims one PDO entry for cyclic access.
// The slave must already be configured.
type Registration struct {
	Slave    SlaveIdentity
	Index    uint16
	SubIndex uint8
}

// MasterState is a diagnostic snapshot of the bus master.
type MasterState struct {
	SlavesResponding uint32
	ALStates         uint8
	LinkUp           bool
}

// DomainState is a diagnostic snapshot of one exchange domain.
type DomainState struct {
	WorkingCounter uint32
	Complete       bool
}

// SlaveState is a diagnostic snapshot of one configured drive.
type SlaveState struct {
	Online      bool
	Operational bool
	ALState     uint8
}

// Master abstracts the cyclic fieldbus provider.
// Configuration calls (ConfigureSlave, Register, SelectReferenceClock,
// ConfigureSync0) are only legal before Activate. The per-cycle calls
// (SetApplicationTime through Send) are only legal after it, from a
// single goroutine. State snapshots never block and never fail.
type Master interface {
	ConfigureSlave(cfg SlaveConfig, startup []SDORequest) error

	// Register claims PDO entries and returns their byte offsets into
	// the process image, index-aligned with regs.
	Register(regs []Registration) ([]uint32, error)

	SelectReferenceClock(slave int) error
	ConfigureSync0(slave int, period time.Duration) error

	// Activate locks configuration and returns the process image.
	Activate() (Image, error)

	SetApplicationTime(ns uint64)
	Receive() error
	ProcessDomain()
	SyncSlaveClocks()
	QueueDomain()
	Send() error

	MasterState() MasterState
	DomainState() DomainState
	SlaveState(slave int) SlaveState

	Release()
}
