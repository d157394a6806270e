// internal/httpapi/ws.go
package httpapi

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// streamDiag pushes the diagnostics snapshot over a websocket at the
// stream interval until the peer goes away.
func (s *Server) streamDiag(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()
	log.WithField("remote", conn.RemoteAddr()).Debug("diag stream opened")

	// The read pump only notices the close handshake, clients never
	// send data.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.StreamInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			log.WithField("remote", conn.RemoteAddr()).Debug("diag stream closed")
			return
		case <-ticker.C:
			if err := conn.WriteJSON(s.controls.Snapshot()); err != nil {
				log.WithError(err).Debug("diag stream write failed")
				return
			}
		}
	}
}
