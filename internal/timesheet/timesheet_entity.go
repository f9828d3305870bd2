package timesheet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-timesheet/internal/week"
)

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"

	SourceManual    = "manual"
	SourceTimeClock = "time_clock"
	SourceLeave     = "leave"

	DefaultProject = "General"
	DefaultTask    = "General Work"
)

// Timesheet owns one Monday-aligned week for one user. At most one live row
// may exist per (user_id, week_start); the dedup pass collapses violations.
type Timesheet struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_timesheets_user_week"`
	WeekStart time.Time `gorm:"type:date;not null;index:idx_timesheets_user_week"`
	WeekEnd   time.Time `gorm:"type:date;not null"`
	Status    string    `gorm:"type:varchar(20);not null;default:'draft'"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Timesheet) TableName() string {
	return "timesheets"
}

// TimesheetEntry is one (project, task, source) row inside a timesheet.
// The triple must never have two live rows within the same timesheet.
type TimesheetEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TimesheetID uuid.UUID `gorm:"type:uuid;not null;index:idx_entries_key,unique,where:deleted_at IS NULL"`
	Project     string    `gorm:"type:varchar(255);not null;index:idx_entries_key,unique,where:deleted_at IS NULL"`
	Task        string    `gorm:"type:text;not null;index:idx_entries_key,unique,where:deleted_at IS NULL"`
	Source      string    `gorm:"type:varchar(20);not null;default:'manual';index:idx_entries_key,unique,where:deleted_at IS NULL"`

	MonHours float64 `gorm:"type:numeric(10,2);not null;default:0"`
	TueHours float64 `gorm:"type:numeric(10,2);not null;default:0"`
	WedHours float64 `gorm:"type:numeric(10,2);not null;default:0"`
	ThuHours float64 `gorm:"type:numeric(10,2);not null;default:0"`
	FriHours float64 `gorm:"type:numeric(10,2);not null;default:0"`
	SatHours float64 `gorm:"type:numeric(10,2);not null;default:0"`
	SunHours float64 `gorm:"type:numeric(10,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (TimesheetEntry) TableName() string {
	return "timesheet_entries"
}

// dayColumns indexes the seven hour fields by week.DayIndex so all day math
// goes through array indexing instead of column-name strings.
func (e *TimesheetEntry) dayColumns() [7]*float64 {
	return [7]*float64{
		&e.MonHours, &e.TueHours, &e.WedHours, &e.ThuHours,
		&e.FriHours, &e.SatHours, &e.SunHours,
	}
}

func (e *TimesheetEntry) DayHours(d week.DayIndex) float64 {
	return *e.dayColumns()[d]
}

func (e *TimesheetEntry) SetDayHours(d week.DayIndex, hours float64) {
	*e.dayColumns()[d] = RoundHours(hours)
}

// AddDayHours accumulates hours into one day column, rounded to 2 decimals.
// Contributions are additive, never overwriting.
func (e *TimesheetEntry) AddDayHours(d week.DayIndex, hours float64) {
	col := e.dayColumns()[d]
	*col = AddHours(*col, hours)
}

// MergeColumns folds all seven day columns of other into e. Used when two
// whole entries under the same key are collapsed.
func (e *TimesheetEntry) MergeColumns(other *TimesheetEntry) {
	dst, src := e.dayColumns(), other.dayColumns()
	for i := range dst {
		*dst[i] = AddHours(*dst[i], *src[i])
	}
}

func (e *TimesheetEntry) Total() float64 {
	total := decimal.Zero
	for _, col := range e.dayColumns() {
		total = total.Add(decimal.NewFromFloat(*col))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Key identifies one entry row within a timesheet.
type Key struct {
	Project string
	Task    string
	Source  string
}

func (e *TimesheetEntry) Key() Key {
	return Key{Project: e.Project, Task: e.Task, Source: e.Source}
}

// RoundHours rounds to 2 decimal places with standard half-up rounding,
// not truncation.
func RoundHours(hours float64) float64 {
	f, _ := decimal.NewFromFloat(hours).Round(2).Float64()
	return f
}

// AddHours returns a + b rounded to 2 decimals, computed in decimal space so
// repeated accumulation never drifts.
func AddHours(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}
