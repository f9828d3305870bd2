package leave

import (
	"context"
	"time"

	"github.com/google/uuid"

	"go-timesheet/internal/timesheet"
)

// timesheetSource adapts the leave repository to the read projection's
// LeaveSource. Dates coming back from the date columns are re-anchored to
// the company timezone so the projection's day-by-day comparison works on
// local calendar dates.
type timesheetSource struct {
	repo Repository
	loc  *time.Location
}

func NewTimesheetSource(repo Repository, loc *time.Location) timesheet.LeaveSource {
	if loc == nil {
		loc = time.UTC
	}
	return &timesheetSource{repo: repo, loc: loc}
}

func (s *timesheetSource) ApprovedOverlapping(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]timesheet.LeaveSpan, error) {
	leaves, err := s.repo.FindApprovedOverlapping(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	spans := make([]timesheet.LeaveSpan, len(leaves))
	for i, l := range leaves {
		spans[i] = timesheet.LeaveSpan{
			Type:      l.LeaveType,
			Reason:    l.Reason,
			StartDate: localDate(l.StartDate, s.loc),
			EndDate:   localDate(l.EndDate, s.loc),
		}
	}
	return spans, nil
}

func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
