// internal/diag/snapshot.go

// Package diag defines the diagnostics snapshot the controller
// publishes every cycle and its fixed register encoding for the
// supervisory export. Pure data, no IO.
package diag

// AxisDiag is the per-axis diagnostic view of one cycle. JSON names
// match the drive object shorthand used by the HTTP surface.
type AxisDiag struct {
	Status         uint16 `json:"status"`
	State          string `json:"state"`
	StateCode      uint16 `json:"-"`
	Mode           int8   `json:"mode"`
	Target         int32  `json:"tgt"`
	Actual         int32  `json:"act"`
	FollowingError int32  `json:"followingErr"`
	ErrorCode      uint16 `json:"err"`
	VendorError    uint16 `json:"servoErr"`
	DigitalInputs  uint32 `json:"din"`
	ProbeStatus    uint16 `json:"tpst"`
	ProbePosition  int32  `json:"tpp"`
	Enabled        bool   `json:"enabled"`
	Warmup         int    `json:"warmup"`
}

// CommandDiag mirrors the accepted motion command.
type CommandDiag struct {
	Run       bool  `json:"run"`
	Direction int   `json:"dir"`
	Step      int32 `json:"step"`
}

// BarrierDiag mirrors the motion barrier.
type BarrierDiag struct {
	Armed bool `json:"armed"`
	Fired bool `json:"fired"`
}

// LinkHealth mirrors the bus master and domain state.
type LinkHealth struct {
	SlavesResponding uint32 `json:"slavesResponding"`
	LinkUp           bool   `json:"linkUp"`
	WorkingCounter   uint32 `json:"workingCounter"`
	Complete         bool   `json:"wcComplete"`
}

// Snapshot is one cycle's full diagnostic state. Values are copies,
// holding a Snapshot never blocks the cycle.
type Snapshot struct {
	Cycle   uint64      `json:"cycle"`
	Command CommandDiag `json:"command"`
	Barrier BarrierDiag `json:"barrier"`
	Link    LinkHealth  `json:"link"`
	Axes    []AxisDiag  `json:"axes"`
}
