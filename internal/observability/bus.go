// Package observability provides the in-process notification bus, the
// append-only event log, and Prometheus metrics.
package observability

import (
	"sync"

	"github.com/valter-silva-au/remedy/pkg/models"
)

// EventKind distinguishes the two event families on the bus.
type EventKind string

const (
	// KindStatus carries a state transition plus a human-readable message.
	KindStatus EventKind = "status"
	// KindOutput carries one line of externally streamed transcript text.
	KindOutput EventKind = "output"
)

// BusEvent is one observable occurrence: a status change or an output line
// belonging to a task or workflow attempt.
type BusEvent struct {
	Kind EventKind `json:"kind"`
	// ID identifies the task or workflow attempt the event belongs to.
	ID string `json:"id"`
	// State is set for status events.
	State string `json:"state,omitempty"`
	// Message is the human-readable text for status events.
	Message string `json:"message,omitempty"`
	// Line is the transcript line for output events.
	Line string `json:"line,omitempty"`
}

// StatusEvent builds a status BusEvent for a task state.
func StatusEvent(id string, state models.TaskState, message string) BusEvent {
	return BusEvent{Kind: KindStatus, ID: id, State: string(state), Message: message}
}

// FixStatusEvent builds a status BusEvent for a workflow state.
func FixStatusEvent(id string, state models.FixState, message string) BusEvent {
	return BusEvent{Kind: KindStatus, ID: id, State: string(state), Message: message}
}

// OutputEvent builds an output-line BusEvent.
func OutputEvent(id, line string) BusEvent {
	return BusEvent{Kind: KindOutput, ID: id, Line: line}
}

// Bus fans events out to independent observers. Publishing never blocks the
// orchestration thread: each subscriber has a bounded buffer and when it is
// full the oldest buffered event is dropped to make room. Delivery is
// at-least-once within a process lifetime; nothing survives a crash.
type Bus interface {
	// Publish delivers the event to every current subscriber without blocking.
	Publish(event BusEvent)
	// Subscribe registers a new observer and returns its channel plus a
	// cancel function that closes the channel and removes the observer.
	Subscribe() (<-chan BusEvent, func())
}

type eventBus struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]chan BusEvent
	bufSize int
}

// NewBus creates a Bus whose subscribers each buffer up to bufSize events.
// A bufSize below 1 falls back to a default of 256.
func NewBus(bufSize int) Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	return &eventBus{
		subs:    make(map[int]chan BusEvent),
		bufSize: bufSize,
	}
}

func (b *eventBus) Publish(event BusEvent) {
	EventsPublished.WithLabelValues(string(event.Kind)).Inc()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		for {
			select {
			case ch <- event:
			default:
				// Buffer full: drop the oldest event and retry.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

func (b *eventBus) Subscribe() (<-chan BusEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan BusEvent, b.bufSize)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}
