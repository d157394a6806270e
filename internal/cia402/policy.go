// internal/cia402/policy.go
package cia402

// Action tells the controller what bookkeeping a transition needs
// beyond writing the control word.
type Action uint8

const (
	// ActionNone: write the control word, nothing else.
	ActionNone Action = iota
	// ActionLatchTarget: the drive is about to close its position loop.
	// The target must be latched to the actual position in the same
	// cycle or the drive would jump on enable.
	ActionLatchTarget
	// ActionEnable: the drive reports operation enabled. The controller
	// marks the axis live and starts its warmup.
	ActionEnable
)

// Policy chooses the control word for a status word. Implementations
// must be stateless and safe for concurrent use.
//
// There must be NO other control word selection anywhere. Every write
// of object 0x6040 outside fault recovery goes through a Policy.
type Policy interface {
	Name() string
	ControlWord(s StatusWord) (uint16, Action)
}

// Signature identifies a drive model for policy lookup.
type Signature struct {
	VendorID    uint32
	ProductCode uint32
}

// Registry maps drive signatures to vendor policies and falls back to
// the standard profile sequence for everything unlisted.
type Registry struct {
	byID     map[Signature]Policy
	fallback Policy
}

// NewRegistry returns a registry seeded with the built-in vendor
// policies.
func NewRegistry() *Registry {
	r := &Registry{
		byID:     make(map[Signature]Policy),
		fallback: StandardPolicy,
	}
	r.Register(Signature{VendorID: 0x00001097, ProductCode: 0x00002406}, eyouPolicy{})
	return r
}

// Register installs or replaces the policy for one drive model.
func (r *Registry) Register(sig Signature, p Policy) {
	r.byID[sig] = p
}

// Lookup returns the policy for a drive, never nil.
func (r *Registry) Lookup(vendorID, productCode uint32) Policy {
	if p, ok := r.byID[Signature{VendorID: vendorID, ProductCode: productCode}]; ok {
		return p
	}
	return r.fallback
}
