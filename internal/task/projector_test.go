package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type scriptedFetcher struct {
	mu      sync.Mutex
	calls   int
	results []fetchResult
	block   chan struct{} // when non-nil, GetTask waits on it before returning
}

type fetchResult struct {
	snap *Snapshot
	err  error
}

func (f *scriptedFetcher) GetTask(ctx context.Context, taskID string) (*Snapshot, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	r := f.results[idx]
	return r.snap, r.err
}

type routedFetcher struct {
	routes map[string]*scriptedFetcher
}

func (f *routedFetcher) GetTask(ctx context.Context, taskID string) (*Snapshot, error) {
	route, ok := f.routes[taskID]
	if !ok {
		return nil, errors.New("no route for " + taskID)
	}
	return route.GetTask(ctx, taskID)
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func running(id string, progress int) *Snapshot {
	p := progress
	return &Snapshot{ID: id, Status: StatusRunning, Progress: &p}
}

func succeeded(id, summary string) *Snapshot {
	return &Snapshot{ID: id, Status: StatusSuccess, Output: &Output{SummaryText: summary}}
}

func TestProjectorStopsOnTerminalStatus(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []fetchResult{
		{snap: running("t1", 40)},
		{snap: running("t1", 80)},
		{snap: succeeded("t1", "Report ready")},
	}}

	updates := make(chan Update, 16)
	p := NewProjector(fetcher, func(u Update) { updates <- u }, WithInterval(time.Millisecond))
	p.Bind(context.Background(), "t1")

	var last Update
	deadline := time.After(2 * time.Second)
	for last.Snapshot == nil || !last.Snapshot.Status.Terminal() {
		select {
		case last = <-updates:
		case <-deadline:
			t.Fatal("timed out waiting for terminal snapshot")
		}
	}

	if last.Snapshot.Output == nil || last.Snapshot.Output.SummaryText != "Report ready" {
		t.Fatalf("unexpected terminal snapshot: %+v", last.Snapshot)
	}
	if got := p.State(); got != Settled {
		t.Fatalf("expected Settled state, got %v", got)
	}

	// No further fetches once settled.
	settledCalls := fetcher.callCount()
	time.Sleep(20 * time.Millisecond)
	if got := fetcher.callCount(); got != settledCalls {
		t.Fatalf("projector kept polling after terminal status: %d -> %d", settledCalls, got)
	}
	if snap := p.Snapshot(); snap == nil || snap.Status != StatusSuccess {
		t.Fatalf("latest snapshot not retained: %+v", snap)
	}
}

func TestProjectorRebindDiscardsLateResponse(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	fetcher := &routedFetcher{routes: map[string]*scriptedFetcher{
		"task-a": {
			results: []fetchResult{{snap: succeeded("task-a", "A done")}},
			block:   release,
		},
		"task-b": {results: []fetchResult{{snap: succeeded("task-b", "B done")}}},
	}}

	var mu sync.Mutex
	var applied []string
	onUpdate := func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		if u.Snapshot != nil {
			applied = append(applied, u.Snapshot.ID)
		}
	}

	p := NewProjector(fetcher, onUpdate, WithInterval(time.Millisecond))
	p.Bind(context.Background(), "task-a")

	// Give the in-flight fetch for task-a time to start, then rebind.
	time.Sleep(5 * time.Millisecond)
	p.Bind(context.Background(), "task-b")
	close(release)

	deadline := time.After(2 * time.Second)
	for {
		if snap := p.Snapshot(); snap != nil && snap.ID == "task-b" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for task-b snapshot")
		case <-time.After(time.Millisecond):
		}
	}
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, id := range applied {
		if id == "task-a" {
			t.Fatal("late response for abandoned task id was applied")
		}
	}
}

func TestProjectorMarksStatusUnknownAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []fetchResult{{err: errors.New("connection refused")}}}

	updates := make(chan Update, 16)
	p := NewProjector(fetcher, func(u Update) { updates <- u }, WithInterval(time.Millisecond))
	p.Bind(context.Background(), "t1")

	select {
	case u := <-updates:
		if !u.Unknown {
			t.Fatalf("expected Unknown update, got %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status-unknown update")
	}
	if !p.StatusUnknown() {
		t.Fatal("StatusUnknown should report true")
	}
	if fetcher.callCount() < maxConsecutiveFailures {
		t.Fatalf("expected at least %d fetch attempts, got %d", maxConsecutiveFailures, fetcher.callCount())
	}

	// A successful fetch clears the unknown flag.
	fetcher.mu.Lock()
	fetcher.results = []fetchResult{{snap: running("t1", 10)}}
	fetcher.calls = 0
	fetcher.mu.Unlock()

	deadline := time.After(2 * time.Second)
	for p.StatusUnknown() {
		select {
		case <-deadline:
			t.Fatal("unknown flag never cleared after recovery")
		case <-time.After(time.Millisecond):
		}
	}
	p.Unbind()
}

func TestProjectorUnbindReturnsToIdle(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []fetchResult{{snap: running("t1", 5)}}}
	p := NewProjector(fetcher, nil, WithInterval(time.Millisecond))
	p.Bind(context.Background(), "t1")
	time.Sleep(5 * time.Millisecond)
	p.Unbind()

	if got := p.State(); got != Idle {
		t.Fatalf("expected Idle after Unbind, got %v", got)
	}
	if p.Snapshot() != nil {
		t.Fatal("Unbind must discard the previous snapshot")
	}

	idleCalls := fetcher.callCount()
	time.Sleep(10 * time.Millisecond)
	if got := fetcher.callCount(); got != idleCalls {
		t.Fatal("projector kept fetching while idle")
	}
}

func TestProjectorBindCancelledByContext(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []fetchResult{{snap: running("t1", 5)}}}
	ctx, cancel := context.WithCancel(context.Background())
	p := NewProjector(fetcher, nil, WithInterval(time.Millisecond))
	p.Bind(ctx, "t1")
	time.Sleep(5 * time.Millisecond)
	cancel()
	time.Sleep(5 * time.Millisecond)

	stopped := fetcher.callCount()
	time.Sleep(10 * time.Millisecond)
	if got := fetcher.callCount(); got > stopped+1 {
		t.Fatalf("polling survived context cancellation: %d -> %d", stopped, got)
	}
}
