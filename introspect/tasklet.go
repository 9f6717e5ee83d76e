package introspect

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a tasklet lifecycle event.
type EventKind int

const (
	EventScheduled EventKind = iota
	EventRunning
	EventBeforeAwait
	EventAfterAwait
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventScheduled:
		return "scheduled"
	case EventRunning:
		return "running"
	case EventBeforeAwait:
		return "before_await"
	case EventAfterAwait:
		return "after_await"
	case EventFinished:
		return "finished"
	default:
		return "invalid"
	}
}

// Event is one entry in a tasklet's log.
type Event struct {
	When    time.Time
	Kind    EventKind
	Details string
}

// Tasklet tracks one logical async activity. A nil *Tasklet is valid and
// ignores every call.
type Tasklet struct {
	id     string
	pool   string
	title  string
	parent string

	mu       sync.Mutex
	events   []Event
	finished bool
}

// ID returns the tasklet's unique id.
func (t *Tasklet) ID() string {
	if t == nil {
		return ""
	}
	return t.id
}

// Title returns the human-readable label.
func (t *Tasklet) Title() string {
	if t == nil {
		return ""
	}
	return t.title
}

func (t *Tasklet) record(kind EventKind, details string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.events = append(t.events, Event{When: time.Now(), Kind: kind, Details: details})
	if kind == EventFinished {
		t.finished = true
	}
	t.mu.Unlock()
}

// OnRunning records that the activity started executing.
func (t *Tasklet) OnRunning() { t.record(EventRunning, "") }

// OnBeforeAwait records entry into a suspension point.
func (t *Tasklet) OnBeforeAwait(what string) { t.record(EventBeforeAwait, what) }

// OnAfterAwait records resumption after a suspension point.
func (t *Tasklet) OnAfterAwait() { t.record(EventAfterAwait, "") }

// OnFinished records completion; the tasklet becomes eligible for pruning.
func (t *Tasklet) OnFinished() { t.record(EventFinished, "") }

// Events returns a copy of the event log.
func (t *Tasklet) Events() []Event {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Info is a point-in-time description of one tasklet.
type Info struct {
	ID       string
	Pool     string
	Title    string
	Parent   string
	Finished bool
	Events   []Event
}

// Admin owns the process's tasklets and the capture switch.
type Admin struct {
	mu       sync.Mutex
	capture  bool
	tasklets []*Tasklet
}

// NewAdmin creates an Admin with capture disabled.
func NewAdmin() *Admin { return &Admin{} }

// SetCapture turns tasklet creation on or off.
func (a *Admin) SetCapture(on bool) {
	a.mu.Lock()
	a.capture = on
	a.mu.Unlock()
}

// Capturing reports whether tasklets are being created.
func (a *Admin) Capturing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capture
}

// NewTasklet creates a tracked tasklet, or nil when capture is off. parent
// may be nil.
func (a *Admin) NewTasklet(pool, title string, parent *Tasklet) *Tasklet {
	a.mu.Lock()
	if !a.capture {
		a.mu.Unlock()
		return nil
	}
	t := &Tasklet{
		id:     uuid.NewString(),
		pool:   pool,
		title:  title,
		parent: parent.ID(),
	}
	a.tasklets = append(a.tasklets, t)
	a.mu.Unlock()
	t.record(EventScheduled, "")
	return t
}

// Snapshot describes every live tasklet.
func (a *Admin) Snapshot() []Info {
	a.mu.Lock()
	tasklets := make([]*Tasklet, len(a.tasklets))
	copy(tasklets, a.tasklets)
	a.mu.Unlock()

	out := make([]Info, 0, len(tasklets))
	for _, t := range tasklets {
		t.mu.Lock()
		info := Info{
			ID:       t.id,
			Pool:     t.pool,
			Title:    t.title,
			Parent:   t.parent,
			Finished: t.finished,
			Events:   append([]Event(nil), t.events...),
		}
		t.mu.Unlock()
		out = append(out, info)
	}
	return out
}

// PruneFinished drops finished tasklets, returning how many were removed.
func (a *Admin) PruneFinished() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.tasklets[:0]
	removed := 0
	for _, t := range a.tasklets {
		t.mu.Lock()
		finished := t.finished
		t.mu.Unlock()
		if finished {
			removed++
		} else {
			kept = append(kept, t)
		}
	}
	a.tasklets = kept
	return removed
}
