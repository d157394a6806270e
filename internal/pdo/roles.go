// internal/pdo/roles.go

// Package pdo names the cyclic process data objects the controller
// exchanges with every axis and maps them to process image offsets.
package pdo

import (
	"github.com/axisworks/motiond/internal/eni"
	"github.com/axisworks/motiond/internal/fieldbus"
)

// Direction of a role relative to the controller.
type Direction uint8

const (
	DirOutput Direction = iota // controller writes, drive reads
	DirInput                   // drive writes, controller reads
)

// Role is one cyclic object the controller claims on every axis.
// The declaration order below is the registration order on the bus.
type Role uint8

const (
	RoleControlWord Role = iota
	RoleWorkMode
	RoleTargetPosition
	RoleProbeFunction
	RoleStatusWord
	RoleActualPosition
	RoleWorkModeDisplay
	RoleErrorCode
	RoleFollowingError
	RoleDigitalInputs
	RoleProbeStatus
	RoleProbePosition
	RoleVendorError
	roleCount
)

type roleSpec struct {
	name     string
	index    uint16
	subindex uint8
	bits     uint8
	dir      Direction
}

var roleTable = [roleCount]roleSpec{
	RoleControlWord:     {"control-word", 0x6040, 0, 16, DirOutput},
	RoleWorkMode:        {"work-mode", 0x6060, 0, 8, DirOutput},
	RoleTargetPosition:  {"target-position", 0x607A, 0, 32, DirOutput},
	RoleProbeFunction:   {"probe-function", 0x60B8, 0, 16, DirOutput},
	RoleStatusWord:      {"status-word", 0x6041, 0, 16, DirInput},
	RoleActualPosition:  {"actual-position", 0x6064, 0, 32, DirInput},
	RoleWorkModeDisplay: {"work-mode-display", 0x6061, 0, 8, DirInput},
	RoleErrorCode:       {"error-code", 0x603F, 0, 16, DirInput},
	RoleFollowingError:  {"following-error", 0x60F4, 0, 32, DirInput},
	RoleDigitalInputs:   {"digital-inputs", 0x60FD, 0, 32, DirInput},
	RoleProbeStatus:     {"probe-status", 0x60B9, 0, 16, DirInput},
	RoleProbePosition:   {"probe-position", 0x60BA, 0, 32, DirInput},
	RoleVendorError:     {"vendor-error", 0x213F, 0, 16, DirInput},
}

func (r Role) String() string { return roleTable[r].name }

// Object returns the CANopen index and subindex behind the role.
func (r Role) Object() (uint16, uint8) {
	return roleTable[r].index, roleTable[r].subindex
}

func (r Role) Direction() Direction { return roleTable[r].dir }

// Bytes is the width of the role in the process image.
func (r Role) Bytes() uint32 { return uint32(roleTable[r].bits) / 8 }

// Roles returns every role in registration order.
func Roles() []Role {
	rs := make([]Role, roleCount)
	for i := range rs {
		rs[i] = Role(i)
	}
	return rs
}

// Registrations builds the full claim list for a set of axes: every
// role on every axis, axes outermost, roles in registration order.
// The claim is unconditional. An axis whose mapping cannot satisfy a
// role is rejected by the provider, not silently degraded.
func Registrations(axes []eni.AxisConfig) []fieldbus.Registration {
	regs := make([]fieldbus.Registration, 0, len(axes)*int(roleCount))
	for _, ax := range axes {
		for r := Role(0); r < roleCount; r++ {
			idx, sub := r.Object()
			regs = append(regs, fieldbus.Registration{
				Slave: fieldbus.SlaveIdentity{
					Position:    ax.Position,
					VendorID:    ax.VendorID,
					ProductCode: ax.ProductCode,
				},
				Index:    idx,
				SubIndex: sub,
			})
		}
	}
	return regs
}
