package protocol

// EventAction identifies what a callback event reports.
type EventAction string

const (
	EventInitiate EventAction = "INITIATE"
	EventAdd      EventAction = "ADD"
	EventUpdate   EventAction = "UPDATE"
	EventCancel   EventAction = "CANCEL"
	EventError    EventAction = "ERROR"
)

// EventMessage is one entry in an event's Data payload.
type EventMessage struct {
	Message string `json:"message"`
}

// Event is delivered to the caller's OnSuccess/OnError hooks. Action and
// Event always carry the same value; both are kept for callers that only
// read one of them.
type Event struct {
	Status      int            `json:"status"`
	Data        []EventMessage `json:"data"`
	Action      EventAction    `json:"action"`
	Event       EventAction    `json:"event"`
	Integration string         `json:"integration"`
	RequestID   string         `json:"request_id,omitempty"`
}

// Hooks are the caller-facing callbacks. Either may be nil.
type Hooks struct {
	OnSuccess func(Event)
	OnError   func(Event)
}

// Success invokes OnSuccess if set.
func (h Hooks) Success(e Event) {
	if h.OnSuccess != nil {
		h.OnSuccess(e)
	}
}

// Error invokes OnError if set.
func (h Hooks) Error(e Event) {
	if h.OnError != nil {
		h.OnError(e)
	}
}
