// Package progress is the pull-based aggregate-counter data provider a
// terminal progress renderer (an external collaborator, not implemented
// here) would consume. It also broadcasts per-job state-change events to
// any subscriber that wants live updates rather than polling a snapshot.
package progress

import (
	"sync"
	"time"

	"github.com/cuemby/stride/pkg/ids"
	"github.com/cuemby/stride/pkg/job"
)

// EventType identifies the kind of job transition being reported.
type EventType string

const (
	EventJobStarted  EventType = "job.started"
	EventJobFinished EventType = "job.finished"
)

// Event is one job state transition.
type Event struct {
	Type      EventType
	IID       ids.IID
	State     job.State
	Result    job.ResultState
	Timestamp time.Time
}

// Subscriber is a channel that receives events.
type Subscriber chan Event

// Broker fans out job events to any number of subscribers, dropping events
// for a subscriber whose buffer is full rather than blocking the
// scheduler.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]bool
}

// NewBroker creates an empty event broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[Subscriber]bool)}
}

// Subscribe registers a new subscriber with a small internal buffer.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := make(Subscriber, 64)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes and closes sub.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish broadcasts event to every current subscriber.
func (b *Broker) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// Counts is a snapshot of aggregate job outcomes for one run, the data a
// progress bar or status line would render.
type Counts struct {
	Total      int
	Finished   int
	Running    int
	BestKnown  int
	Suboptimal int
	Infeasible int
	Incomplete int
	Error      int
	Timeout    int
}

// Aggregator accumulates Counts as the scheduler reports job outcomes.
type Aggregator struct {
	mu     sync.Mutex
	counts Counts
}

// NewAggregator creates an Aggregator with Total set to the size of the
// instance queue for this run.
func NewAggregator(total int) *Aggregator {
	return &Aggregator{counts: Counts{Total: total}}
}

func (a *Aggregator) JobStarted() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts.Running++
}

func (a *Aggregator) JobFinished(state job.ResultState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts.Running--
	a.counts.Finished++
	switch state {
	case job.ResultBestKnown:
		a.counts.BestKnown++
	case job.ResultSuboptimal:
		a.counts.Suboptimal++
	case job.ResultInfeasible:
		a.counts.Infeasible++
	case job.ResultIncomplete:
		a.counts.Incomplete++
	case job.ResultTimeout:
		a.counts.Timeout++
	default:
		a.counts.Error++
	}
}

// Snapshot returns the current Counts.
func (a *Aggregator) Snapshot() Counts {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts
}
