// internal/motion/errors.go
package motion

import "errors"

// Failure classes, matched with errors.Is. Wrapped errors carry the
// concrete cause.
var (
	// ErrInit: the provider could not be brought up at all.
	ErrInit = errors.New("motion: provider initialization failed")
	// ErrConfig: descriptor, mapping or parameter rejected.
	ErrConfig = errors.New("motion: configuration rejected")
	// ErrRuntime: a cycle failed after successful activation.
	ErrRuntime = errors.New("motion: runtime failure")
)
