// internal/diag/constants.go
package diag

// Register layout of the supervisory export. A snapshot maps to one
// header block followed by one block per axis. Layout is
// protocol-locked: supervisory pollers address these slots directly,
// renumbering is a breaking change.

// HeaderSlots is the size of the header block.
const HeaderSlots = 8

// Header block slots.
const (
	// HeaderCycleHi/Lo carry the low 32 bits of the cycle counter.
	HeaderCycleHi = 0
	HeaderCycleLo = 1
	// HeaderRun is 1 while a run command is active.
	HeaderRun = 2
	// HeaderDirection is the direction as a two's complement int16.
	HeaderDirection = 3
	// HeaderStepHi/Lo carry the commanded step.
	HeaderStepHi = 4
	HeaderStepLo = 5
	// HeaderBarrier: bit 0 armed, bit 1 fired.
	HeaderBarrier = 6
	// HeaderSlaves is the number of responding slaves, saturated at
	// 65535.
	HeaderSlaves = 7
)

// SlotsPerAxis is the size of one axis block.
const SlotsPerAxis = 16

// Axis block slots.
const (
	// SlotStatusWord is the raw status word.
	SlotStatusWord = 0
	// SlotStateCode is the decoded drive state.
	SlotStateCode = 1
	// SlotErrorCode is the profile error code, object 0x603F.
	SlotErrorCode = 2
	// SlotVendorError is the manufacturer error code, object 0x213F.
	SlotVendorError = 3
	// SlotMode is the reported operation mode as an int16.
	SlotMode = 4
	// SlotFlags: bit 0 enabled.
	SlotFlags = 5
	// 32-bit values are split high word first.
	SlotTargetHi    = 6
	SlotTargetLo    = 7
	SlotActualHi    = 8
	SlotActualLo    = 9
	SlotFollowingHi = 10
	SlotFollowingLo = 11
	SlotDigitalHi   = 12
	SlotDigitalLo   = 13
	SlotProbeStatus = 14
	// SlotWarmup is the remaining warmup, saturated at 65535.
	SlotWarmup = 15
)
