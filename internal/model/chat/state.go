package chat

// State is a point-in-time copy of everything the chat screen renders.
type State struct {
	Session        Session          `json:"session"`
	Greeting       string           `json:"greeting"`
	Messages       []Message        `json:"messages"`
	Composing      bool             `json:"composing"`
	Pending        int              `json:"pending"`
	Input          string           `json:"input"`
	Modal          Modal            `json:"modal"`
	Feedback       string           `json:"feedback"`
	FeedbackStatus SubmissionStatus `json:"feedbackStatus"`
	Rating         int              `json:"rating"`
	RatingStatus   SubmissionStatus `json:"ratingStatus"`
	Notice         string           `json:"notice,omitempty"`
	LastError      string           `json:"lastError,omitempty"`
}

// EventKind names what changed in the state carried by an Event.
type EventKind string

const (
	EventState   EventKind = "state"
	EventInput   EventKind = "input"
	EventMessage EventKind = "message"
	EventModal   EventKind = "modal"
	EventNotice  EventKind = "notice"
	EventError   EventKind = "error"
)

// Event is pushed to subscribers after every mutation. State is always complete,
// so a subscriber that skipped earlier events is still up to date.
type Event struct {
	Kind  EventKind `json:"kind"`
	State State     `json:"state"`
}
