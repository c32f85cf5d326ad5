package task

import (
	"context"
	"sync"
	"time"

	"phi/internal/logging"
)

// Fetcher is the one-shot "fetch task by id" operation the projector turns
// into a continuously updated view.
type Fetcher interface {
	GetTask(ctx context.Context, taskID string) (*Snapshot, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, taskID string) (*Snapshot, error)

func (f FetcherFunc) GetTask(ctx context.Context, taskID string) (*Snapshot, error) {
	return f(ctx, taskID)
}

// State is the projector's client-side lifecycle for the bound task id.
type State int

const (
	// Idle: no task id bound, no requests issued.
	Idle State = iota
	// Polling: a task id is bound and fetches are being issued.
	Polling
	// Settled: a terminal snapshot was observed; no further fetches.
	Settled
)

// Update is delivered to the observer after every polling cycle that changed
// what the projector knows.
type Update struct {
	TaskID   string
	Snapshot *Snapshot
	// Unknown is set when repeated fetch failures mean the latest snapshot
	// can no longer be trusted to be current.
	Unknown bool
}

const (
	// DefaultInterval matches the original client's 2000 ms refetch cadence.
	DefaultInterval = 2 * time.Second

	// maxConsecutiveFailures is how many failed fetch cycles are tolerated
	// before the projection is surfaced as "status unknown". Polling still
	// continues at the same cadence; the counter resets on the next
	// successful fetch.
	maxConsecutiveFailures = 5
)

// Projector converts task fetches into a continuously updated snapshot view.
// It is owned by exactly one view instance; rebinding discards all polling
// state for the previous id.
type Projector struct {
	fetcher  Fetcher
	interval time.Duration
	onUpdate func(Update)
	log      *logging.Logger

	mu       sync.Mutex
	gen      int
	cancel   context.CancelFunc
	bound    string
	latest   *Snapshot
	failures int
	unknown  bool
	state    State
}

// Option configures a Projector.
type Option func(*Projector)

// WithInterval overrides the polling interval.
func WithInterval(d time.Duration) Option {
	return func(p *Projector) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger attaches a component logger.
func WithLogger(log *logging.Logger) Option {
	return func(p *Projector) { p.log = log }
}

// NewProjector creates a projector in the Idle state. onUpdate may be nil;
// when set it is invoked from the polling goroutine after each applied cycle.
func NewProjector(fetcher Fetcher, onUpdate func(Update), opts ...Option) *Projector {
	p := &Projector{
		fetcher:  fetcher,
		interval: DefaultInterval,
		onUpdate: onUpdate,
		log:      logging.ForComponent("projector"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bind starts polling taskID under the given lifetime context. Any previous
// binding is cancelled first; a late response from the old id is never
// applied. Binding an empty id is equivalent to Unbind.
func (p *Projector) Bind(ctx context.Context, taskID string) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	gen := p.gen
	p.bound = taskID
	p.latest = nil
	p.failures = 0
	p.unknown = false
	if taskID == "" {
		p.state = Idle
		p.mu.Unlock()
		return
	}
	p.state = Polling
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	go p.poll(loopCtx, gen, taskID)
}

// Unbind stops polling and returns the projector to Idle.
func (p *Projector) Unbind() {
	p.Bind(context.Background(), "")
}

// Snapshot returns the latest applied snapshot, or nil before the first
// successful fetch.
func (p *Projector) Snapshot() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// State returns the projector's current lifecycle state.
func (p *Projector) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// StatusUnknown reports whether repeated fetch failures have made the
// projection stale.
func (p *Projector) StatusUnknown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unknown
}

func (p *Projector) poll(ctx context.Context, gen int, taskID string) {
	timer := time.NewTimer(0) // first fetch is immediate
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		snap, err := p.fetcher.GetTask(ctx, taskID)
		if !p.apply(gen, taskID, snap, err) {
			return
		}
		timer.Reset(p.interval)
	}
}

// apply records a fetch result and reports whether polling should continue.
// Results from an abandoned generation are discarded.
func (p *Projector) apply(gen int, taskID string, snap *Snapshot, err error) bool {
	var update Update
	notify := false

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return false
	}
	if err != nil {
		p.failures++
		p.log.Warn("poll fetch for task %s failed (%d consecutive): %v", taskID, p.failures, err)
		if p.failures >= maxConsecutiveFailures && !p.unknown {
			p.unknown = true
			update = Update{TaskID: taskID, Snapshot: p.latest, Unknown: true}
			notify = true
		}
		p.mu.Unlock()
		if notify {
			p.notify(update)
		}
		return true
	}

	p.failures = 0
	p.unknown = false
	p.latest = snap
	settled := snap != nil && snap.Status.Terminal()
	if settled {
		p.state = Settled
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
	}
	update = Update{TaskID: taskID, Snapshot: snap}
	p.mu.Unlock()

	p.notify(update)
	return !settled
}

func (p *Projector) notify(update Update) {
	if p.onUpdate != nil {
		p.onUpdate(update)
	}
}
