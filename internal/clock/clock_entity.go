package clock

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusClockedIn  = "clocked_in"
	StatusPaused     = "paused"
	StatusClockedOut = "clocked_out"
)

// ClockSession is one clock-in/clock-out cycle. TotalHours is set when the
// session closes; ReconciledAt marks the session as already merged into a
// timesheet, which is what makes the backfill batch re-runnable.
type ClockSession struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClockIn    time.Time  `gorm:"type:timestamptz;not null"`
	ClockOut   *time.Time `gorm:"type:timestamptz"`
	TotalHours *float64   `gorm:"type:numeric(10,2)"`

	ProjectName  *string `gorm:"type:varchar(255)"`
	IssueID      *int64  `gorm:"type:bigint"`
	IssueTitle   *string `gorm:"type:text"`
	IssueProject *string `gorm:"type:varchar(255)"`

	Status       string     `gorm:"type:varchar(20);not null;default:'clocked_in';index"`
	ReconciledAt *time.Time `gorm:"type:timestamptz;index"`
	Notes        *string    `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ClockSession) TableName() string {
	return "clock_sessions"
}

// EntryProject derives the timesheet entry project: the session's own
// project name, then the linked issue's project. Empty falls through to the
// merge engine's default.
func (s *ClockSession) EntryProject() string {
	if s.ProjectName != nil && *s.ProjectName != "" {
		return *s.ProjectName
	}
	if s.IssueProject != nil && *s.IssueProject != "" {
		return *s.IssueProject
	}
	return ""
}

// EntryTask derives the timesheet entry task from the linked issue.
func (s *ClockSession) EntryTask() string {
	if s.IssueID != nil {
		title := ""
		if s.IssueTitle != nil {
			title = *s.IssueTitle
		}
		return fmt.Sprintf("Issue #%d: %s", *s.IssueID, title)
	}
	return ""
}

// Eligible reports whether the session may contribute hours to a timesheet:
// closed, with a positive total.
func (s *ClockSession) Eligible() bool {
	return s.Status == StatusClockedOut && s.ClockOut != nil &&
		s.TotalHours != nil && *s.TotalHours > 0
}
