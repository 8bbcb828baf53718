package domain

// Stage is the step of the booking conversation a user is in.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingSelection
	StageAwaitingDates
	StageAwaitingConfirmation
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "IDLE"
	case StageAwaitingSelection:
		return "AWAITING_SELECTION"
	case StageAwaitingDates:
		return "AWAITING_DATES"
	case StageAwaitingConfirmation:
		return "AWAITING_CONFIRMATION"
	default:
		return "UNKNOWN"
	}
}

// ConversationState is the per-user record of an in-progress booking flow.
type ConversationState struct {
	Stage   Stage        `json:"stage"`
	UnitID  int64        `json:"unit_id,omitempty"`
	Pending *Reservation `json:"pending,omitempty"`
}

func (c ConversationState) IsIdle() bool {
	return c.Stage == StageIdle
}

// Message is one inbound chat message.
type Message struct {
	UserID    int64
	FirstName string
	LastName  string
	Username  string
	Text      string
}
