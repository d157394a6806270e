//go:build !linux || !igh

// internal/fieldbus/igh/igh_stub.go
package igh

import (
	"errors"

	"github.com/axisworks/motiond/internal/fieldbus"
)

// ErrUnavailable is returned by Open in builds without the igh tag.
var ErrUnavailable = errors.New("igh: built without EtherCAT support, rebuild with -tags igh")

// Open always fails. Hardware support needs the igh build tag and the
// IgH EtherCAT master library on the build host.
func Open(idx uint) (fieldbus.Master, error) {
	return nil, ErrUnavailable
}
