package events

import "time"

const TimesheetUpdatedTopic = "hr.timesheet.updated.v1"

type TimesheetUpdatedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id,omitempty"`
	TimesheetID string    `json:"timesheet_id"`
	UserID      string    `json:"user_id"`
	WeekStart   string    `json:"week_start"`
	Source      string    `json:"source"`
	OccurredAt  time.Time `json:"occurred_at"`
}
