package chat

import "fmt"

// Modal selects the overlay shown on top of the chat screen. At most one is open.
type Modal string

const (
	ModalNone     Modal = "none"
	ModalFeedback Modal = "feedback"
	ModalRating   Modal = "rating"
)

// ParseModal maps a wire value onto a Modal. The empty string means ModalNone.
func ParseModal(raw string) (Modal, error) {
	switch Modal(raw) {
	case "", ModalNone:
		return ModalNone, nil
	case ModalFeedback:
		return ModalFeedback, nil
	case ModalRating:
		return ModalRating, nil
	default:
		return ModalNone, fmt.Errorf("unknown modal %q", raw)
	}
}
