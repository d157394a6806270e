// internal/httpapi/payload.go
package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Steps beyond this are rejected as garbage rather than clamped. The
// controller clamps accepted values into its own bounds afterwards.
const stepSanityLimit = 100000000

// controlPayload is the POST /control request body.
type controlPayload struct {
	Direction string `json:"direction"`
	Step      int64  `json:"step"`
}

func (p *controlPayload) Bind(*http.Request) error {
	switch p.Direction {
	case "forward", "reverse":
	default:
		return errors.New("direction must be \"forward\" or \"reverse\"")
	}
	if p.Step <= 0 {
		return errors.New("step must be > 0")
	}
	if p.Step > stepSanityLimit {
		return fmt.Errorf("step must be <= %d", stepSanityLimit)
	}
	return nil
}

func (p *controlPayload) direction() int {
	if p.Direction == "reverse" {
		return -1
	}
	return 1
}

// ackPayload is the legacy acknowledge shape of the command endpoints.
// Supervisory clients check the ok flag, not the HTTP status.
type ackPayload struct {
	OK bool `json:"ok"`
}

// statusPayload is the GET /status response.
type statusPayload struct {
	Run  bool  `json:"run"`
	Dir  int   `json:"dir"`
	Step int32 `json:"step"`
}

// loginPayload is the POST /login request body.
type loginPayload struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

func (p *loginPayload) Bind(*http.Request) error {
	if p.User == "" || p.Password == "" {
		return errors.New("user and password are required")
	}
	return nil
}

// tokenPayload is the POST /login response.
type tokenPayload struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// ErrResponse is the render payload for error statuses.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "invalid request",
		ErrorText:      err.Error(),
	}
}

func errUnauthorized(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnauthorized,
		StatusText:     "unauthorized",
		ErrorText:      err.Error(),
	}
}

func errInternal(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "internal error",
		ErrorText:      err.Error(),
	}
}
