// internal/diag/encode.go
package diag

// Encoding of snapshots into export registers. Geometry only: no IO,
// no side effects.

func splitU32(v uint32) (hi, lo uint16) {
	return uint16(v >> 16), uint16(v)
}

func saturateU16(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

// EncodeHeader renders the header block of a snapshot.
func EncodeHeader(s Snapshot) []uint16 {
	regs := make([]uint16, HeaderSlots)
	regs[HeaderCycleHi], regs[HeaderCycleLo] = splitU32(uint32(s.Cycle))
	if s.Command.Run {
		regs[HeaderRun] = 1
	}
	regs[HeaderDirection] = uint16(int16(s.Command.Direction))
	regs[HeaderStepHi], regs[HeaderStepLo] = splitU32(uint32(s.Command.Step))
	if s.Barrier.Armed {
		regs[HeaderBarrier] |= 1 << 0
	}
	if s.Barrier.Fired {
		regs[HeaderBarrier] |= 1 << 1
	}
	if s.Link.SlavesResponding > 0xFFFF {
		regs[HeaderSlaves] = 0xFFFF
	} else {
		regs[HeaderSlaves] = uint16(s.Link.SlavesResponding)
	}
	return regs
}

// EncodeAxis renders one axis block.
func EncodeAxis(a AxisDiag) []uint16 {
	regs := make([]uint16, SlotsPerAxis)
	regs[SlotStatusWord] = a.Status
	regs[SlotStateCode] = a.StateCode
	regs[SlotErrorCode] = a.ErrorCode
	regs[SlotVendorError] = a.VendorError
	regs[SlotMode] = uint16(int16(a.Mode))
	if a.Enabled {
		regs[SlotFlags] |= 1 << 0
	}
	regs[SlotTargetHi], regs[SlotTargetLo] = splitU32(uint32(a.Target))
	regs[SlotActualHi], regs[SlotActualLo] = splitU32(uint32(a.Actual))
	regs[SlotFollowingHi], regs[SlotFollowingLo] = splitU32(uint32(a.FollowingError))
	regs[SlotDigitalHi], regs[SlotDigitalLo] = splitU32(a.DigitalInputs)
	regs[SlotProbeStatus] = a.ProbeStatus
	regs[SlotWarmup] = saturateU16(a.Warmup)
	return regs
}
