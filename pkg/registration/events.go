package registration

import (
	"github.com/darkweak/offline/pkg/worker"
)

// EventType names the registration notifications
type EventType string

const (
	UpdateFound      EventType = "updatefound"
	StateChange      EventType = "statechange"
	ControllerChange EventType = "controllerchange"
	Message          EventType = "message"
)

const subscriberBuffer = 32

// Event is a registration notification
type Event struct {
	Type     EventType    `json:"type"`
	WorkerID string       `json:"worker_id"`
	Version  string       `json:"version"`
	State    worker.State `json:"state"`
	Data     string       `json:"data,omitempty"`
}

func eventFor(t EventType, w *worker.Worker) Event {
	return Event{
		Type:     t,
		WorkerID: w.ID(),
		Version:  w.Version(),
		State:    w.State(),
	}
}

// Subscribe returns the events channel and the function to stop receiving them.
// A subscriber that doesn't keep up loses events.
func (r *Registration) Subscribe() (<-chan Event, func()) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	id := r.nextSubscriber
	r.nextSubscriber++
	ch := make(chan Event, subscriberBuffer)
	r.subscribers[id] = ch

	return ch, func() {
		r.subsMu.Lock()
		defer r.subsMu.Unlock()
		if c, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(c)
		}
	}
}

func (r *Registration) publish(e Event) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	for _, ch := range r.subscribers {
		select {
		case ch <- e:
		default:
			r.logger.Sugar().Debugf("Dropped the %s event for a slow subscriber", e.Type)
		}
	}
}
