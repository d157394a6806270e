// internal/journal/journal_test.go
package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open err=%v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j := openTemp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	j.Record(Event{Kind: "axis-enabled", Axis: 0, Cycle: 7})
	j.Record(Event{Kind: "barrier-armed", Axis: -1, Cycle: 8})
	j.Record(Event{Kind: "barrier-fired", Axis: -1, Cycle: 13})

	cancel() // Run flushes what is buffered before returning
	<-done

	events, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent err=%v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	// Newest first.
	if events[0].Kind != "barrier-fired" || events[2].Kind != "axis-enabled" {
		t.Fatalf("expected newest-first order, got %s .. %s", events[0].Kind, events[2].Kind)
	}
	if events[0].Cycle != 13 {
		t.Fatalf("expected cycle 13, got %d", events[0].Cycle)
	}
	if events[2].At.IsZero() {
		t.Fatalf("expected recorded time to be stamped")
	}
}

func TestJournal_RecentLimit(t *testing.T) {
	j := openTemp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	for i := 0; i < 10; i++ {
		j.Record(Event{Kind: "command", Cycle: uint64(i), At: time.Unix(int64(1000+i), 0)})
	}
	cancel()
	<-done

	events, err := j.Recent(4)
	if err != nil {
		t.Fatalf("Recent err=%v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[0].Cycle != 9 {
		t.Fatalf("expected the newest event first, got cycle %d", events[0].Cycle)
	}
}

func TestJournal_DropsWhenFull(t *testing.T) {
	j := openTemp(t)

	// No Run draining: overfill the buffer.
	for i := 0; i < bufferSize+10; i++ {
		j.Record(Event{Kind: "command"})
	}
	if got := j.Dropped(); got != 10 {
		t.Fatalf("expected 10 dropped events, got %d", got)
	}
}
