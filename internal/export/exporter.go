// internal/export/exporter.go

// Package export publishes diagnostic snapshots into the holding
// register space of a supervisory endpoint, typically a PLC or SCADA
// gateway polling over Modbus TCP.
package export

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/axisworks/motiond/internal/diag"
)

// endpointClient is the endpoint contract the exporter writes through.
//
// There must be NO other version of this interface anywhere. The
// exporter owns the contract, transports implement it.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Plan fixes where snapshots land on the endpoint: the header block at
// BaseAddr, axis block i at BaseAddr + HeaderSlots + i*SlotsPerAxis.
type Plan struct {
	UnitID   uint8
	BaseAddr uint16
}

// Exporter writes snapshots with per-block change detection. After any
// failed export the next success re-asserts every block. Any partial
// failure leaves doubt about what the endpoint holds.
type Exporter struct {
	plan     Plan
	cli      endpointClient
	needFull bool
	header   []uint16
	axes     [][]uint16
}

func New(plan Plan, cli endpointClient) (*Exporter, error) {
	if cli == nil {
		return nil, errors.New("export: endpoint client must not be nil")
	}
	return &Exporter{plan: plan, cli: cli, needFull: true}, nil
}

// Export writes one snapshot. Blocks equal to the last successfully
// written state are skipped unless a full re-assert is due.
func (e *Exporter) Export(s diag.Snapshot) error {
	if len(s.Axes) != len(e.axes) {
		// Shape change, previous cache is meaningless.
		e.axes = make([][]uint16, len(s.Axes))
		e.needFull = true
	}

	var errs error
	full := e.needFull

	header := diag.EncodeHeader(s)
	if full || !regsEqual(header, e.header) {
		if err := e.cli.WriteRegisters(e.plan.UnitID, e.plan.BaseAddr, header); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			e.header = header
		}
	}

	for i := range s.Axes {
		block := diag.EncodeAxis(s.Axes[i])
		if !full && regsEqual(block, e.axes[i]) {
			continue
		}
		addr := e.plan.BaseAddr + diag.HeaderSlots + uint16(i)*diag.SlotsPerAxis
		if err := e.cli.WriteRegisters(e.plan.UnitID, addr, block); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		e.axes[i] = block
	}

	if errs != nil {
		e.needFull = true
		return errs
	}
	e.needFull = false
	return nil
}

func regsEqual(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
