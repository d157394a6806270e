// internal/motion/build.go
package motion

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/axisworks/motiond/internal/eni"
	"github.com/axisworks/motiond/internal/fieldbus"
	"github.com/axisworks/motiond/internal/pdo"
)

// Startup parameters written to every axis before cyclic exchange.
// 0x60C2 is the interpolation time period, 0x6081 and 0x6083/0x6084
// are the profile velocity and ramp limits the drives fall back to
// outside cyclic modes.
func startupSDOs(period time.Duration) []fieldbus.SDORequest {
	ms := uint32(period / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	return []fieldbus.SDORequest{
		{Index: 0x60C2, SubIndex: 2, Size: 1, Value: 0xFD}, // time index -3, units of 10^-3 s
		{Index: 0x60C2, SubIndex: 1, Size: 1, Value: ms},
		{Index: 0x6081, SubIndex: 0, Size: 4, Value: 100000},
		{Index: 0x6083, SubIndex: 0, Size: 4, Value: 50000},
		{Index: 0x6084, SubIndex: 0, Size: 4, Value: 50000},
	}
}

// Build brings a controller up on a master: configure every axis,
// claim the process data, set up distributed clocks, activate and wire
// the cycle engine. On any failure the master is released before the
// error is returned, the caller owns nothing half-built.
func Build(master fieldbus.Master, axes []eni.AxisConfig, opts Options) (ctrl *Controller, err error) {
	if master == nil {
		return nil, fmt.Errorf("%w: master must not be nil", ErrInit)
	}
	defer func() {
		if err != nil {
			master.Release()
		}
	}()

	if len(axes) == 0 {
		return nil, fmt.Errorf("%w: no axes to configure", ErrConfig)
	}
	if opts.CyclePeriod <= 0 {
		return nil, fmt.Errorf("%w: cycle period must be > 0", ErrConfig)
	}

	sdos := startupSDOs(opts.CyclePeriod)
	for i, ax := range axes {
		cfg := fieldbus.SlaveConfig{
			Identity: fieldbus.SlaveIdentity{
				Position:    ax.Position,
				VendorID:    ax.VendorID,
				ProductCode: ax.ProductCode,
			},
			Outputs: ax.Outputs,
			Inputs:  ax.Inputs,
		}
		if err := master.ConfigureSlave(cfg, sdos); err != nil {
			return nil, fmt.Errorf("%w: configure axis %d (position %d): %w", ErrConfig, i, ax.Position, err)
		}
		log.WithFields(log.Fields{
			"axis":     i,
			"position": ax.Position,
			"vendor":   fmt.Sprintf("%#08x", ax.VendorID),
			"product":  fmt.Sprintf("%#08x", ax.ProductCode),
		}).Debug("axis configured")
	}

	offsets, err := master.Register(pdo.Registrations(axes))
	if err != nil {
		return nil, fmt.Errorf("%w: register process data: %w", ErrConfig, err)
	}

	// Axis 0 carries the reference clock, every axis gets a sync0
	// pulse at the cycle period.
	if err := master.SelectReferenceClock(0); err != nil {
		return nil, fmt.Errorf("%w: reference clock: %w", ErrConfig, err)
	}
	for i := range axes {
		if err := master.ConfigureSync0(i, opts.CyclePeriod); err != nil {
			return nil, fmt.Errorf("%w: sync0 on axis %d: %w", ErrConfig, i, err)
		}
	}

	image, err := master.Activate()
	if err != nil {
		return nil, fmt.Errorf("%w: activate: %w", ErrInit, err)
	}
	table, err := pdo.BuildTable(len(axes), offsets)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	c, err := New(master, axes, table, image, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	log.WithFields(log.Fields{
		"axes":   len(axes),
		"period": opts.CyclePeriod,
		"image":  len(image),
	}).Info("controller ready")
	return c, nil
}
