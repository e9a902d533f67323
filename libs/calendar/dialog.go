package calendar

import (
	"errors"

	"github.com/teampro-ai/teampro/libs/availability"
)

type DialogState string

const (
	DialogClosed        DialogState = "closed"
	DialogSlotSelected  DialogState = "slot-selected"
	DialogSubmitting    DialogState = "submitting"
	DialogSelectedError DialogState = "slot-selected-with-error"
)

// Open reports whether the dialog is visible.
func (s DialogState) Open() bool { return s != DialogClosed }

const GenericSubmitError = "Failed to create booking. Please try again."

// Dialog is a snapshot of the booking dialog.
type Dialog struct {
	State DialogState
	Slot  *availability.TimeSlot
	Form  Form
	Error string
}

// userMessager is implemented by collaborator errors that carry a message
// meant for people.
type userMessager interface {
	UserMessage() string
}

// SubmitErrorMessage returns the server's message verbatim when there is one.
func SubmitErrorMessage(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return GenericSubmitError
}
