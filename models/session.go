package models

// SessionState identifies where a user currently is in the conversation.
type SessionState string

const (
	StateStart            SessionState = "START"
	StateSelectCounselor  SessionState = "SELECT_COUNSELOR"
	StateSelectDate       SessionState = "SELECT_DATE"
	StateSelectSlot       SessionState = "SELECT_SLOT"
	StatePaymentPending   SessionState = "PAYMENT_PENDING"
	StateRescheduleSelect SessionState = "RESCHEDULE_SELECT"
	StateRescheduleDate   SessionState = "RESCHEDULE_DATE"
	StateRescheduleSlot   SessionState = "RESCHEDULE_SLOT"
)

// SessionData carries the working fields collected across turns.
type SessionData struct {
	CounselorID         string `json:"counselorId,omitempty"`
	Date                string `json:"date,omitempty"`
	TimeSlot            string `json:"timeSlot,omitempty"`
	RescheduleBookingID string `json:"rescheduleBookingId,omitempty"`
	NewDate             string `json:"newDate,omitempty"`
}

// Session holds the per-user conversation state between messages.
// Keyed by the user's phone number in the session store.
type Session struct {
	State SessionState `json:"state"`
	Data  SessionData  `json:"data"`
}

// NewSession returns a fresh session at the START state.
func NewSession() *Session {
	return &Session{State: StateStart}
}
