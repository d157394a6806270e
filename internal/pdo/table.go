// internal/pdo/table.go
package pdo

import (
	"fmt"
	"sort"
)

// OffsetTable resolves (axis, role) pairs to byte offsets in the
// process image. It is built once after activation and read-only
// afterwards, so lookups are safe from the cycle goroutine.
type OffsetTable struct {
	axisCount int
	offsets   []uint32
}

type span struct {
	start, end uint32 // inclusive byte range
	axis       int
	role       Role
}

// BuildTable pairs provider offsets with roles. The offsets must be in
// Registrations order, one per role per axis. Overlapping spans mean
// two roles would read or write the same image bytes. This is always
// a provider fault.
func BuildTable(axisCount int, offsets []uint32) (*OffsetTable, error) {
	if axisCount <= 0 {
		return nil, fmt.Errorf("pdo: axis count must be > 0, got %d", axisCount)
	}
	want := axisCount * int(roleCount)
	if len(offsets) != want {
		return nil, fmt.Errorf("pdo: got %d offsets, want %d (%d axes x %d roles)",
			len(offsets), want, axisCount, roleCount)
	}

	spans := make([]span, 0, len(offsets))
	for axis := 0; axis < axisCount; axis++ {
		for r := Role(0); r < roleCount; r++ {
			off := offsets[axis*int(roleCount)+int(r)]
			spans = append(spans, span{
				start: off,
				end:   off + r.Bytes() - 1,
				axis:  axis,
				role:  r,
			})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		p, c := spans[i-1], spans[i]
		if c.start <= p.end {
			return nil, fmt.Errorf(
				"pdo: image overlap, axis %d %s [%d..%d] collides with axis %d %s [%d..%d]",
				p.axis, p.role, p.start, p.end, c.axis, c.role, c.start, c.end)
		}
	}

	cp := make([]uint32, len(offsets))
	copy(cp, offsets)
	return &OffsetTable{axisCount: axisCount, offsets: cp}, nil
}

func (t *OffsetTable) AxisCount() int { return t.axisCount }

// Offset returns the image offset of a role on an axis.
func (t *OffsetTable) Offset(axis int, r Role) uint32 {
	return t.offsets[axis*int(roleCount)+int(r)]
}
