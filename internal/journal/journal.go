// internal/journal/journal.go

// Package journal persists controller events to an embedded store so
// enable chains, fault resets and barrier firings survive restarts and
// can be read back over the HTTP surface.
//
// Recording is decoupled from persistence: Record never blocks, events
// flow through a buffered channel into the store. When the buffer is
// full events are dropped and counted. The cycle loop outranks the
// journal.
package journal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/asdine/storm/v3"
	log "github.com/sirupsen/logrus"
)

// Event is one persisted controller occurrence.
type Event struct {
	ID     int       `storm:"id,increment" json:"id"`
	At     time.Time `storm:"index" json:"at"`
	Kind   string    `storm:"index" json:"kind"`
	Axis   int       `json:"axis"`
	Cycle  uint64    `json:"cycle"`
	Detail string    `json:"detail,omitempty"`
}

const bufferSize = 256

// Journal is the event store.
type Journal struct {
	db      *storm.DB
	ch      chan Event
	dropped atomic.Uint64
}

// Open creates or opens the store at path.
func Open(path string) (*Journal, error) {
	db, err := storm.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := db.Init(&Event{}); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: init schema: %w", err)
	}
	return &Journal{db: db, ch: make(chan Event, bufferSize)}, nil
}

// Record queues an event for persistence. Never blocks. A zero At is
// stamped with the current time.
func (j *Journal) Record(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	select {
	case j.ch <- e:
	default:
		j.dropped.Add(1)
	}
}

// Run drains the queue into the store until ctx is canceled, then
// flushes whatever is still buffered.
func (j *Journal) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e := <-j.ch:
					j.save(e)
				default:
					return
				}
			}
		case e := <-j.ch:
			j.save(e)
		}
	}
}

func (j *Journal) save(e Event) {
	if err := j.db.Save(&e); err != nil {
		log.WithError(err).Warn("journal save failed")
	}
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Event
	if err := j.db.All(&out, storm.Limit(limit), storm.Reverse()); err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	return out, nil
}

// Dropped returns how many events were lost to a full buffer.
func (j *Journal) Dropped() uint64 { return j.dropped.Load() }

func (j *Journal) Close() error { return j.db.Close() }
