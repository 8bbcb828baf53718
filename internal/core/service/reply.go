package service

import "github.com/rl1809/accommodator/internal/core/domain"

type ReplyKind int

const (
	ReplyFailure ReplyKind = iota
	ReplyWelcome
	ReplyHelp
	ReplyReservations
	ReplyCatalog
	ReplyInvalidUnit
	ReplyAskDates
	ReplyInvalidDates
	ReplyConfirmPrompt
	ReplyConfirmed
	ReplyRejected
	ReplyDeclined
	ReplyCancelled
	ReplyNotInFlow
)

var replyKindNames = map[ReplyKind]string{
	ReplyFailure:       "failure",
	ReplyWelcome:       "welcome",
	ReplyHelp:          "help",
	ReplyReservations:  "reservations",
	ReplyCatalog:       "catalog",
	ReplyInvalidUnit:   "invalid_unit",
	ReplyAskDates:      "ask_dates",
	ReplyInvalidDates:  "invalid_dates",
	ReplyConfirmPrompt: "confirm_prompt",
	ReplyConfirmed:     "confirmed",
	ReplyRejected:      "rejected",
	ReplyDeclined:      "declined",
	ReplyCancelled:     "cancelled",
	ReplyNotInFlow:     "not_in_flow",
}

func (k ReplyKind) String() string {
	if name, ok := replyKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Reply is what the engine produced for one message. Rendering it to text is
// left to the transport.
type Reply struct {
	Kind  ReplyKind
	Stage domain.Stage
	// StateKept means the stored conversation was not read or written, so
	// Stage does not describe it.
	StateKept bool

	// Code is set on ReplyRejected: NO_CAPACITY, DATE_CONFLICT or UNIT_NOT_FOUND.
	Code string

	DisplayName  string
	Units        []domain.Unit
	Unit         *domain.Unit
	Pending      *domain.Reservation
	Reservations []domain.ReservationView
}
