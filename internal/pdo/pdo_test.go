// internal/pdo/pdo_test.go
package pdo

import (
	"strings"
	"testing"

	"github.com/axisworks/motiond/internal/eni"
)

func TestRegistrations_OrderAndIdentity(t *testing.T) {
	axes := eni.DefaultAxes(2)
	axes[1].Position = 5

	regs := Registrations(axes)
	if len(regs) != 26 { // 2 axes x 13 roles
		t.Fatalf("expected 26 registrations, got %d", len(regs))
	}

	// Registration order starts with the output objects of axis 0.
	wantFirst := []uint16{0x6040, 0x6060, 0x607A, 0x60B8, 0x6041}
	for i, idx := range wantFirst {
		if regs[i].Index != idx {
			t.Fatalf("registration %d: expected index %#04x, got %#04x", i, idx, regs[i].Index)
		}
		if regs[i].Slave.Position != 0 {
			t.Fatalf("registration %d: expected axis 0, got position %d", i, regs[i].Slave.Position)
		}
	}

	// Axis 1 block repeats the same roles against its own identity.
	second := regs[13]
	if second.Index != 0x6040 || second.Slave.Position != 5 {
		t.Fatalf("axis 1 first registration: got index %#04x position %d",
			second.Index, second.Slave.Position)
	}
}

func TestRole_Metadata(t *testing.T) {
	idx, sub := RoleStatusWord.Object()
	if idx != 0x6041 || sub != 0 {
		t.Fatalf("status word object: got %#04x:%d", idx, sub)
	}
	if RoleControlWord.Direction() != DirOutput {
		t.Fatalf("control word direction: expected output")
	}
	if RoleActualPosition.Direction() != DirInput {
		t.Fatalf("actual position direction: expected input")
	}
	if RoleTargetPosition.Bytes() != 4 {
		t.Fatalf("target position width: expected 4 bytes, got %d", RoleTargetPosition.Bytes())
	}
	if RoleWorkMode.Bytes() != 1 {
		t.Fatalf("work mode width: expected 1 byte, got %d", RoleWorkMode.Bytes())
	}
	if got := RoleVendorError.String(); got != "vendor-error" {
		t.Fatalf("expected vendor-error, got %s", got)
	}
}

func sequentialOffsets(axisCount int) []uint32 {
	offsets := make([]uint32, 0, axisCount*int(roleCount))
	var off uint32
	for axis := 0; axis < axisCount; axis++ {
		for r := Role(0); r < roleCount; r++ {
			offsets = append(offsets, off)
			off += r.Bytes()
		}
	}
	return offsets
}

func TestBuildTable_Lookup(t *testing.T) {
	offsets := sequentialOffsets(2)

	table, err := BuildTable(2, offsets)
	if err != nil {
		t.Fatalf("BuildTable err=%v", err)
	}
	if table.AxisCount() != 2 {
		t.Fatalf("expected axis count 2, got %d", table.AxisCount())
	}
	if got := table.Offset(0, RoleControlWord); got != 0 {
		t.Fatalf("axis 0 control word: expected offset 0, got %d", got)
	}
	if got := table.Offset(1, RoleControlWord); got != offsets[13] {
		t.Fatalf("axis 1 control word: expected %d, got %d", offsets[13], got)
	}
}

func TestBuildTable_CountMismatch(t *testing.T) {
	if _, err := BuildTable(2, make([]uint32, 13)); err == nil {
		t.Fatalf("expected count mismatch error, got nil")
	}
	if _, err := BuildTable(0, nil); err == nil {
		t.Fatalf("expected axis count error, got nil")
	}
}

func TestBuildTable_OverlapRejected(t *testing.T) {
	offsets := sequentialOffsets(1)
	// Park the probe function on top of the target position.
	offsets[RoleProbeFunction] = offsets[RoleTargetPosition] + 1

	_, err := BuildTable(1, offsets)
	if err == nil {
		t.Fatalf("expected overlap error, got nil")
	}
	if !strings.Contains(err.Error(), "overlap") {
		t.Fatalf("expected overlap in error, got %v", err)
	}
}
