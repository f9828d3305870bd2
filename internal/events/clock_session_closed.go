package events

import "time"

const ClockSessionClosedTopic = "hr.clock_session.closed.v1"

// ClockSessionClosedEvent is emitted through the outbox when a session is
// clocked out. The consumer performs the timesheet merge, so a merge failure
// can never block the clock-out itself.
type ClockSessionClosedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	ClockOut   time.Time `json:"clock_out"`
	TotalHours float64   `json:"total_hours"`
	OccurredAt time.Time `json:"occurred_at"`
}
