package shipper

import "github.com/rusenback/logship/internal/model"

// EventKind tells what happened in the loop.
type EventKind int

const (
	EventState EventKind = iota
	EventDelivered
	EventDeliveryFailed
	EventRefreshFailed
	EventReadFailed
	EventInterrupted
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventDelivered:
		return "delivered"
	case EventDeliveryFailed:
		return "delivery-failed"
	case EventRefreshFailed:
		return "refresh-failed"
	case EventReadFailed:
		return "read-failed"
	case EventInterrupted:
		return "interrupted"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event is passed to the Observer of a Shipper.
type Event struct {
	Kind    EventKind
	State   model.ContainerState
	Records []model.LogRecord
	Result  model.DeliveryResult
	Err     error
}

// Observer is called synchronously from the loop and must not block for
// long.
type Observer func(Event)
