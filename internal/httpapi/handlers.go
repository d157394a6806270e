// internal/httpapi/handlers.go
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"
)

var errLimit = errors.New("limit must be a positive integer")

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "motiond: ok\n")
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	cmd := s.controls.Command()
	render.JSON(w, r, statusPayload{
		Run:  cmd.Run,
		Dir:  cmd.Direction,
		Step: cmd.Step,
	})
}

func (s *Server) getDiag(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.controls.Snapshot())
}

// postControl accepts a motion request. Validation failures answer
// with the legacy {"ok":false} ack and a 400, which is what existing
// supervisory clients expect.
func (s *Server) postControl(w http.ResponseWriter, r *http.Request) {
	data := &controlPayload{}
	if err := render.Bind(r, data); err != nil {
		log.WithError(err).Warn("control request rejected")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ackPayload{OK: false})
		return
	}
	s.controls.SetCommand(true, data.direction(), int32(data.Step))
	render.JSON(w, r, ackPayload{OK: true})
}

func (s *Server) postStop(w http.ResponseWriter, r *http.Request) {
	s.controls.Stop()
	render.JSON(w, r, ackPayload{OK: true})
}

func (s *Server) postShutdown(w http.ResponseWriter, r *http.Request) {
	log.Info("shutdown requested over http")
	render.JSON(w, r, ackPayload{OK: true})
	if s.cfg.Shutdown != nil {
		s.cfg.Shutdown()
	}
}

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			render.Render(w, r, errInvalidRequest(errLimit))
			return
		}
		limit = n
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	events, err := s.events.Recent(limit)
	if err != nil {
		render.Render(w, r, errInternal(err))
		return
	}
	render.JSON(w, r, events)
}
