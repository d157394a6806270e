// internal/export/runner.go
package export

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/axisworks/motiond/internal/diag"
)

// Run exports the latest snapshot at a fixed interval until ctx is
// canceled. Failures are logged and retried on the next tick, the
// endpoint being down must never disturb the cycle loop.
func (e *Exporter) Run(ctx context.Context, interval time.Duration, source func() diag.Snapshot) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.WithField("interval", interval).Info("export loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info("export loop stopped")
			return
		case <-ticker.C:
			if err := e.Export(source()); err != nil {
				log.WithError(err).Warn("export failed")
			}
		}
	}
}
