// internal/httpapi/server_test.go
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/axisworks/motiond/internal/diag"
	"github.com/axisworks/motiond/internal/journal"
	"github.com/axisworks/motiond/internal/motion"
)

// ---- fake controller ----

type commandCall struct {
	run       bool
	direction int
	step      int32
}

type fakeControls struct {
	commands []commandCall
	stops    int
	cmd      motion.Command
	snap     diag.Snapshot
}

func (f *fakeControls) SetCommand(run bool, direction int, step int32) motion.Command {
	f.commands = append(f.commands, commandCall{run: run, direction: direction, step: step})
	return motion.Command{Run: run, Direction: direction, Step: step}
}

func (f *fakeControls) Stop() motion.Command {
	f.stops++
	return motion.Command{Step: f.cmd.Step}
}

func (f *fakeControls) Command() motion.Command { return f.cmd }

func (f *fakeControls) Snapshot() diag.Snapshot { return f.snap }

// ---- fake event source ----

type fakeEvents struct {
	limits []int
	events []journal.Event
	err    error
}

func (f *fakeEvents) Recent(limit int) ([]journal.Event, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

// ---- helpers ----

func newTestServer(t *testing.T, cfg Config, controls Controls, events EventSource) *Server {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = ":0"
	}
	s, err := New(cfg, controls, events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeAck(t *testing.T, rec *httptest.ResponseRecorder) ackPayload {
	t.Helper()
	var ack ackPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ack
}

func testAuth(t *testing.T) *AuthConfig {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &AuthConfig{
		User:         "admin",
		PasswordHash: string(hash),
		Secret:       []byte("0123456789abcdef"),
	}
}

// ---- tests ----

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}, &fakeControls{}, nil); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := New(Config{Addr: ":0"}, nil, nil); err == nil {
		t.Fatalf("expected error for nil controls")
	}
	partial := &AuthConfig{User: "admin"}
	if _, err := New(Config{Addr: ":0", Auth: partial}, &fakeControls{}, nil); err == nil {
		t.Fatalf("expected error for partial auth config")
	}
}

func TestNew_DefaultStreamInterval(t *testing.T) {
	s := newTestServer(t, Config{}, &fakeControls{}, nil)
	if s.cfg.StreamInterval != defaultStreamInterval {
		t.Fatalf("expected default interval %v, got %v", defaultStreamInterval, s.cfg.StreamInterval)
	}
}

func TestControl_ForwardAndReverse(t *testing.T) {
	fake := &fakeControls{}
	r := newTestServer(t, Config{}, fake, nil).Router()

	rec := postJSON(t, r, "/control", `{"direction":"forward","step":100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ack := decodeAck(t, rec); !ack.OK {
		t.Fatalf("expected ok ack, got %s", rec.Body.String())
	}

	rec = postJSON(t, r, "/control", `{"direction":"reverse","step":250}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if len(fake.commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(fake.commands))
	}
	if got := fake.commands[0]; !got.run || got.direction != 1 || got.step != 100 {
		t.Fatalf("unexpected forward command: %+v", got)
	}
	if got := fake.commands[1]; !got.run || got.direction != -1 || got.step != 250 {
		t.Fatalf("unexpected reverse command: %+v", got)
	}
}

func TestControl_RejectsBadRequests(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown direction", `{"direction":"up","step":10}`},
		{"zero step", `{"direction":"forward","step":0}`},
		{"negative step", `{"direction":"forward","step":-5}`},
		{"step beyond sanity limit", `{"direction":"forward","step":100000001}`},
		{"not json", `direction=forward`},
	}

	for _, tc := range cases {
		fake := &fakeControls{}
		r := newTestServer(t, Config{}, fake, nil).Router()

		rec := postJSON(t, r, "/control", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
		if ack := decodeAck(t, rec); ack.OK {
			t.Fatalf("%s: expected ok=false ack", tc.name)
		}
		if len(fake.commands) != 0 {
			t.Fatalf("%s: expected no command, got %d", tc.name, len(fake.commands))
		}
	}
}

func TestStop_StopsController(t *testing.T) {
	fake := &fakeControls{}
	r := newTestServer(t, Config{}, fake, nil).Router()

	rec := postJSON(t, r, "/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ack := decodeAck(t, rec); !ack.OK {
		t.Fatalf("expected ok ack, got %s", rec.Body.String())
	}
	if fake.stops != 1 {
		t.Fatalf("expected 1 stop, got %d", fake.stops)
	}
}

func TestStatus_ReportsCommand(t *testing.T) {
	fake := &fakeControls{cmd: motion.Command{Run: true, Direction: -1, Step: 50}}
	r := newTestServer(t, Config{}, fake, nil).Router()

	rec := get(t, r, "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got statusPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Run || got.Dir != -1 || got.Step != 50 {
		t.Fatalf("unexpected status: %+v", got)
	}
}

func TestDiag_ReturnsSnapshot(t *testing.T) {
	fake := &fakeControls{snap: diag.Snapshot{
		Cycle:   42,
		Command: diag.CommandDiag{Run: true, Direction: 1, Step: 10},
		Barrier: diag.BarrierDiag{Armed: true},
		Link:    diag.LinkHealth{SlavesResponding: 3, LinkUp: true, WorkingCounter: 9, Complete: true},
		Axes: []diag.AxisDiag{
			{State: "operation enabled", Target: 100, Actual: 90, Enabled: true},
		},
	}}
	r := newTestServer(t, Config{}, fake, nil).Router()

	rec := get(t, r, "/diag")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got diag.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cycle != 42 {
		t.Fatalf("expected cycle 42, got %d", got.Cycle)
	}
	if len(got.Axes) != 1 || got.Axes[0].Target != 100 || !got.Axes[0].Enabled {
		t.Fatalf("unexpected axes: %+v", got.Axes)
	}
	if !got.Link.LinkUp || got.Link.SlavesResponding != 3 {
		t.Fatalf("unexpected link health: %+v", got.Link)
	}
}

func TestEvents_LimitHandling(t *testing.T) {
	src := &fakeEvents{events: []journal.Event{
		{ID: 2, Kind: "barrier-fired", Cycle: 13},
		{ID: 1, Kind: "command", Cycle: 8},
	}}
	r := newTestServer(t, Config{}, &fakeControls{}, src).Router()

	rec := get(t, r, "/events")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []journal.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Kind != "barrier-fired" {
		t.Fatalf("unexpected events: %+v", got)
	}

	if rec := get(t, r, "/events?limit=2"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := get(t, r, "/events?limit=9999"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if len(src.limits) != 3 {
		t.Fatalf("expected 3 queries, got %d", len(src.limits))
	}
	if src.limits[0] != 50 { // default
		t.Fatalf("expected default limit 50, got %d", src.limits[0])
	}
	if src.limits[1] != 2 {
		t.Fatalf("expected limit 2, got %d", src.limits[1])
	}
	if src.limits[2] != 500 { // capped
		t.Fatalf("expected capped limit 500, got %d", src.limits[2])
	}

	if rec := get(t, r, "/events?limit=zero"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := get(t, r, "/events?limit=-1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(src.limits) != 3 {
		t.Fatalf("expected rejected limits to skip the source, got %d queries", len(src.limits))
	}
}

func TestEvents_NotMountedWithoutSource(t *testing.T) {
	r := newTestServer(t, Config{}, &fakeControls{}, nil).Router()

	if rec := get(t, r, "/events"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEvents_SourceErrorIsInternal(t *testing.T) {
	src := &fakeEvents{err: errors.New("db closed")}
	r := newTestServer(t, Config{}, &fakeControls{}, src).Router()

	if rec := get(t, r, "/events"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAuth_MutatingEndpointsNeedToken(t *testing.T) {
	fake := &fakeControls{}
	r := newTestServer(t, Config{Auth: testAuth(t)}, fake, nil).Router()

	rec := postJSON(t, r, "/control", `{"direction":"forward","step":10}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(fake.commands) != 0 {
		t.Fatalf("expected no command, got %d", len(fake.commands))
	}

	if rec := postJSON(t, r, "/stop?token=not-a-jwt", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
	if fake.stops != 0 {
		t.Fatalf("expected no stop, got %d", fake.stops)
	}

	// read-only endpoints stay open
	if rec := get(t, r, "/status"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_LoginRejectsBadCredentials(t *testing.T) {
	r := newTestServer(t, Config{Auth: testAuth(t)}, &fakeControls{}, nil).Router()

	rec := postJSON(t, r, "/login", `{"user":"admin","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = postJSON(t, r, "/login", `{"user":"admin"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuth_TokenUnlocksControl(t *testing.T) {
	fake := &fakeControls{}
	r := newTestServer(t, Config{Auth: testAuth(t)}, fake, nil).Router()

	rec := postJSON(t, r, "/login", `{"user":"admin","password":"open sesame"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tok tokenPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Token == "" || tok.ExpiresAt == 0 {
		t.Fatalf("unexpected token payload: %+v", tok)
	}

	// bearer header
	req := httptest.NewRequest(http.MethodPost, "/control", strings.NewReader(`{"direction":"forward","step":10}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", rec2.Code)
	}

	// query parameter
	if rec := postJSON(t, r, "/stop?token="+tok.Token, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with query token, got %d", rec.Code)
	}

	if len(fake.commands) != 1 || fake.stops != 1 {
		t.Fatalf("expected 1 command and 1 stop, got %d and %d", len(fake.commands), fake.stops)
	}
}

func TestShutdown_InvokesHook(t *testing.T) {
	called := 0
	r := newTestServer(t, Config{Shutdown: func() { called++ }}, &fakeControls{}, nil).Router()

	rec := postJSON(t, r, "/shutdown", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if called != 1 {
		t.Fatalf("expected 1 shutdown call, got %d", called)
	}
}

func TestStreamDiag_PushesSnapshots(t *testing.T) {
	fake := &fakeControls{snap: diag.Snapshot{Cycle: 7}}
	s := newTestServer(t, Config{StreamInterval: 10 * time.Millisecond}, fake, nil)

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/diag"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got diag.Snapshot
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cycle != 7 {
		t.Fatalf("expected cycle 7, got %d", got.Cycle)
	}
}
