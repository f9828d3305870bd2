package recon

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"go-timesheet/internal/clock"
	"go-timesheet/internal/timesheet"
	"go-timesheet/internal/week"
)

// fakeTimesheetRepo is an in-memory timesheet.Repository.
type fakeTimesheetRepo struct {
	timesheets map[uuid.UUID]*timesheet.Timesheet
	entries    map[uuid.UUID]*timesheet.TimesheetEntry
	deleted    map[uuid.UUID]bool
}

func newFakeTimesheetRepo() *fakeTimesheetRepo {
	return &fakeTimesheetRepo{
		timesheets: make(map[uuid.UUID]*timesheet.Timesheet),
		entries:    make(map[uuid.UUID]*timesheet.TimesheetEntry),
		deleted:    make(map[uuid.UUID]bool),
	}
}

func (f *fakeTimesheetRepo) WithTx(tx *sql.Tx) timesheet.Repository { return f }

func (f *fakeTimesheetRepo) Create(ctx context.Context, ts *timesheet.Timesheet) error {
	cp := *ts
	f.timesheets[ts.ID] = &cp
	return nil
}

func (f *fakeTimesheetRepo) Update(ctx context.Context, ts *timesheet.Timesheet) error {
	cp := *ts
	f.timesheets[ts.ID] = &cp
	return nil
}

func (f *fakeTimesheetRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	f.deleted[id] = true
	return nil
}

func (f *fakeTimesheetRepo) FindByID(ctx context.Context, id uuid.UUID) (*timesheet.Timesheet, error) {
	ts, ok := f.timesheets[id]
	if !ok || f.deleted[id] {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ts
	return &cp, nil
}

func (f *fakeTimesheetRepo) FindByUserAndWeekStart(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]timesheet.Timesheet, error) {
	var out []timesheet.Timesheet
	for id, ts := range f.timesheets {
		if f.deleted[id] {
			continue
		}
		if ts.UserID == userID && ts.WeekStart.Equal(weekStart) {
			out = append(out, *ts)
		}
	}
	return out, nil
}

func (f *fakeTimesheetRepo) FindContaining(ctx context.Context, userID uuid.UUID, date time.Time) (*timesheet.Timesheet, error) {
	for id, ts := range f.timesheets {
		if f.deleted[id] {
			continue
		}
		if ts.UserID == userID && !date.Before(ts.WeekStart) && !date.After(ts.WeekEnd) {
			cp := *ts
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTimesheetRepo) FindByWeekStart(ctx context.Context, weekStart time.Time) ([]timesheet.Timesheet, error) {
	var out []timesheet.Timesheet
	for id, ts := range f.timesheets {
		if !f.deleted[id] && ts.WeekStart.Equal(weekStart) {
			out = append(out, *ts)
		}
	}
	return out, nil
}

func (f *fakeTimesheetRepo) FindAll(ctx context.Context) ([]timesheet.Timesheet, error) {
	var out []timesheet.Timesheet
	for id, ts := range f.timesheets {
		if !f.deleted[id] {
			out = append(out, *ts)
		}
	}
	return out, nil
}

func (f *fakeTimesheetRepo) CreateEntry(ctx context.Context, e *timesheet.TimesheetEntry) error {
	cp := *e
	f.entries[e.ID] = &cp
	return nil
}

func (f *fakeTimesheetRepo) UpdateEntry(ctx context.Context, e *timesheet.TimesheetEntry) error {
	cp := *e
	f.entries[e.ID] = &cp
	return nil
}

func (f *fakeTimesheetRepo) SoftDeleteEntry(ctx context.Context, id uuid.UUID) error {
	f.deleted[id] = true
	return nil
}

func (f *fakeTimesheetRepo) FindEntry(ctx context.Context, timesheetID uuid.UUID, key timesheet.Key) (*timesheet.TimesheetEntry, error) {
	for id, e := range f.entries {
		if f.deleted[id] {
			continue
		}
		if e.TimesheetID == timesheetID && e.Key() == key {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTimesheetRepo) FindEntryByID(ctx context.Context, id uuid.UUID) (*timesheet.TimesheetEntry, error) {
	e, ok := f.entries[id]
	if !ok || f.deleted[id] {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeTimesheetRepo) FindEntries(ctx context.Context, timesheetID uuid.UUID) ([]timesheet.TimesheetEntry, error) {
	var out []timesheet.TimesheetEntry
	for id, e := range f.entries {
		if !f.deleted[id] && e.TimesheetID == timesheetID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeTimesheetRepo) LockUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) error {
	return nil
}

// fakeTimesheetService records the orchestration calls the reconciler makes.
type fakeTimesheetService struct {
	repo *fakeTimesheetRepo

	absorbed []string
	merged   []timesheet.Contribution
	created  []uuid.UUID
}

func (f *fakeTimesheetService) GetOrCreate(ctx context.Context, userID uuid.UUID, w week.Window) (*timesheet.Timesheet, bool, error) {
	rows, _ := f.repo.FindByUserAndWeekStart(ctx, userID, w.Start)
	if len(rows) > 0 {
		return &rows[0], false, nil
	}
	ts := &timesheet.Timesheet{ID: uuid.New(), UserID: userID, WeekStart: w.Start, WeekEnd: w.End, Status: timesheet.StatusDraft}
	f.repo.Create(ctx, ts)
	f.created = append(f.created, ts.ID)
	return ts, true, nil
}

func (f *fakeTimesheetService) RecordContribution(ctx context.Context, userID uuid.UUID, at time.Time, c timesheet.Contribution) error {
	f.merged = append(f.merged, c)
	return nil
}

func (f *fakeTimesheetService) MergeContribution(ctx context.Context, timesheetID uuid.UUID, c timesheet.Contribution) error {
	f.merged = append(f.merged, c)
	entry, err := f.repo.FindEntry(ctx, timesheetID, timesheet.Key{Project: c.Project, Task: c.Task, Source: c.Source})
	if err != nil {
		entry = &timesheet.TimesheetEntry{ID: uuid.New(), TimesheetID: timesheetID, Project: c.Project, Task: c.Task, Source: c.Source}
		entry.SetDayHours(c.Day, c.Hours)
		return f.repo.CreateEntry(ctx, entry)
	}
	entry.AddDayHours(c.Day, c.Hours)
	return f.repo.UpdateEntry(ctx, entry)
}

func (f *fakeTimesheetService) Absorb(ctx context.Context, survivorID, duplicateID uuid.UUID) error {
	f.absorbed = append(f.absorbed, survivorID.String()+"<-"+duplicateID.String())
	return f.repo.SoftDelete(ctx, duplicateID)
}

func (f *fakeTimesheetService) GetView(ctx context.Context, userID uuid.UUID, target time.Time) (timesheet.TimesheetView, error) {
	return timesheet.TimesheetView{}, nil
}

func (f *fakeTimesheetService) AddManualHours(ctx context.Context, userID uuid.UUID, req timesheet.AddHoursRequest) (timesheet.TimesheetView, error) {
	return timesheet.TimesheetView{}, nil
}

func (f *fakeTimesheetService) UpdateManualEntry(ctx context.Context, userID uuid.UUID, entryID string, req timesheet.UpdateEntryRequest) (timesheet.EntryResponse, error) {
	return timesheet.EntryResponse{}, nil
}

func (f *fakeTimesheetService) InvalidateViewRange(ctx context.Context, userID uuid.UUID, from, to time.Time) {
}

type fakeClockRepo struct {
	unreconciled []clock.ClockSession
}

func (f *fakeClockRepo) WithTx(tx *sql.Tx) clock.Repository                { return f }
func (f *fakeClockRepo) Create(ctx context.Context, s *clock.ClockSession) error { return nil }
func (f *fakeClockRepo) Update(ctx context.Context, s *clock.ClockSession) error { return nil }
func (f *fakeClockRepo) FindByID(ctx context.Context, id uuid.UUID) (*clock.ClockSession, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeClockRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*clock.ClockSession, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeClockRepo) FindAllByUser(ctx context.Context, userID uuid.UUID) ([]clock.ClockSession, error) {
	return nil, nil
}
func (f *fakeClockRepo) FindUnreconciled(ctx context.Context, limit int) ([]clock.ClockSession, error) {
	var out []clock.ClockSession
	for i := range f.unreconciled {
		if f.unreconciled[i].ReconciledAt != nil {
			continue
		}
		out = append(out, f.unreconciled[i])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
func (f *fakeClockRepo) MarkReconciled(ctx context.Context, id uuid.UUID, at time.Time) error {
	for i := range f.unreconciled {
		if f.unreconciled[i].ID == id {
			f.unreconciled[i].ReconciledAt = &at
		}
	}
	return nil
}

type fakeClockService struct {
	repo    *fakeClockRepo
	applied []uuid.UUID
	failFor map[uuid.UUID]error
}

func (f *fakeClockService) ClockIn(ctx context.Context, userID uuid.UUID, req clock.ClockInRequest) (clock.ClockSessionResponse, error) {
	return clock.ClockSessionResponse{}, nil
}
func (f *fakeClockService) ClockOut(ctx context.Context, userID uuid.UUID) (clock.ClockSessionResponse, error) {
	return clock.ClockSessionResponse{}, nil
}
func (f *fakeClockService) Pause(ctx context.Context, userID uuid.UUID) (clock.ClockSessionResponse, error) {
	return clock.ClockSessionResponse{}, nil
}
func (f *fakeClockService) Resume(ctx context.Context, userID uuid.UUID) (clock.ClockSessionResponse, error) {
	return clock.ClockSessionResponse{}, nil
}
func (f *fakeClockService) GetAll(ctx context.Context, userID uuid.UUID) ([]clock.ClockSessionResponse, error) {
	return nil, nil
}
func (f *fakeClockService) ApplyClosedSession(ctx context.Context, sessionID uuid.UUID) error {
	if err, ok := f.failFor[sessionID]; ok {
		return err
	}
	f.applied = append(f.applied, sessionID)
	if f.repo != nil {
		return f.repo.MarkReconciled(ctx, sessionID, time.Now())
	}
	return nil
}

func weekStarting(y int, m time.Month, d int) week.Window {
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return week.Window{Start: start, End: start.AddDate(0, 0, 6)}
}

func TestReconciler_Backfill(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	s1, s2, s3 := uuid.New(), uuid.New(), uuid.New()
	clockRepo := &fakeClockRepo{unreconciled: []clock.ClockSession{
		{ID: s1, UserID: uuid.New()},
		{ID: s2, UserID: uuid.New()},
		{ID: s3, UserID: uuid.New()},
	}}
	clockSvc := &fakeClockService{failFor: map[uuid.UUID]error{s2: assert.AnError}}

	r := New(db, newFakeTimesheetRepo(), &fakeTimesheetService{repo: newFakeTimesheetRepo()}, clockRepo, clockSvc, time.UTC)
	result, err := r.Backfill(context.Background(), 10)
	assert.NoError(t, err, "per-record failures must not abort the batch")

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Merged)
	assert.ElementsMatch(t, []uuid.UUID{s1, s3}, clockSvc.applied)
	if assert.Len(t, result.Errors, 1) {
		assert.Equal(t, s2.String(), result.Errors[0].RecordID)
	}
}

func TestReconciler_Backfill_EmptyIsNoOp(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	clockSvc := &fakeClockService{}
	r := New(db, newFakeTimesheetRepo(), &fakeTimesheetService{repo: newFakeTimesheetRepo()}, &fakeClockRepo{}, clockSvc, time.UTC)

	result, err := r.Backfill(context.Background(), 10)
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Empty(t, clockSvc.applied)
}

func TestReconciler_Backfill_CountsFailingSessionOnce(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	bad, ok1, ok2 := uuid.New(), uuid.New(), uuid.New()
	clockRepo := &fakeClockRepo{unreconciled: []clock.ClockSession{
		{ID: bad, UserID: uuid.New()},
		{ID: ok1, UserID: uuid.New()},
		{ID: ok2, UserID: uuid.New()},
	}}
	clockSvc := &fakeClockService{repo: clockRepo, failFor: map[uuid.UUID]error{bad: assert.AnError}}

	r := New(db, newFakeTimesheetRepo(), &fakeTimesheetService{repo: newFakeTimesheetRepo()}, clockRepo, clockSvc, time.UTC)

	// Batch of 2: the failing session stays unreconciled and shows up
	// again on every following page.
	result, err := r.Backfill(context.Background(), 2)
	assert.NoError(t, err)

	assert.Equal(t, 3, result.Processed, "each session counted once")
	assert.Equal(t, 2, result.Merged)
	assert.ElementsMatch(t, []uuid.UUID{ok1, ok2}, clockSvc.applied)
	if assert.Len(t, result.Errors, 1) {
		assert.Equal(t, bad.String(), result.Errors[0].RecordID)
	}
}

func TestReconciler_MergeDuplicateTimesheets(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeTimesheetRepo()
	svc := &fakeTimesheetService{repo: repo}

	userID := uuid.New()
	w := weekStarting(2025, 11, 3)
	older := &timesheet.Timesheet{ID: uuid.New(), UserID: userID, WeekStart: w.Start, WeekEnd: w.End, CreatedAt: time.Now().Add(-2 * time.Hour)}
	newer := &timesheet.Timesheet{ID: uuid.New(), UserID: userID, WeekStart: w.Start, WeekEnd: w.End, CreatedAt: time.Now()}
	single := &timesheet.Timesheet{ID: uuid.New(), UserID: uuid.New(), WeekStart: w.Start, WeekEnd: w.End, CreatedAt: time.Now()}
	repo.timesheets[older.ID] = older
	repo.timesheets[newer.ID] = newer
	repo.timesheets[single.ID] = single

	r := New(db, repo, svc, &fakeClockRepo{}, &fakeClockService{}, time.UTC)
	result, err := r.MergeDuplicateTimesheets(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, 1, result.Processed, "only the duplicated group")
	assert.Equal(t, 1, result.Merged)
	if assert.Len(t, svc.absorbed, 1) {
		assert.Equal(t, older.ID.String()+"<-"+newer.ID.String(), svc.absorbed[0], "earliest-created survives")
	}
	assert.False(t, repo.deleted[single.ID])
}

func TestReconciler_FixTimesheetWeeks(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeTimesheetRepo()
	svc := &fakeTimesheetService{repo: repo}

	// week_start on a Wednesday: the canonical window starts the preceding
	// Monday.
	wrongStart := time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC)
	userA := uuid.New()
	misaligned := &timesheet.Timesheet{ID: uuid.New(), UserID: userA, WeekStart: wrongStart, WeekEnd: wrongStart.AddDate(0, 0, 6)}
	repo.timesheets[misaligned.ID] = misaligned

	// Same defect, but the corrected window already has an owner.
	userB := uuid.New()
	w := weekStarting(2025, 11, 3)
	owner := &timesheet.Timesheet{ID: uuid.New(), UserID: userB, WeekStart: w.Start, WeekEnd: w.End}
	stale := &timesheet.Timesheet{ID: uuid.New(), UserID: userB, WeekStart: wrongStart, WeekEnd: wrongStart.AddDate(0, 0, 6)}
	repo.timesheets[owner.ID] = owner
	repo.timesheets[stale.ID] = stale

	// Already aligned: untouched.
	aligned := &timesheet.Timesheet{ID: uuid.New(), UserID: uuid.New(), WeekStart: w.Start, WeekEnd: w.End}
	repo.timesheets[aligned.ID] = aligned

	r := New(db, repo, svc, &fakeClockRepo{}, &fakeClockService{}, time.UTC)
	result, err := r.FixTimesheetWeeks(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Merged)
	assert.Equal(t, 1, result.Skipped)

	fixed := repo.timesheets[misaligned.ID]
	assert.Equal(t, w.Start, fixed.WeekStart)
	assert.Equal(t, w.End, fixed.WeekEnd)

	if assert.Len(t, svc.absorbed, 1) {
		assert.Equal(t, owner.ID.String()+"<-"+stale.ID.String(), svc.absorbed[0])
	}
}

func TestReconciler_FixTimesheetWeeks_WestOfUTCZone(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	repo := newFakeTimesheetRepo()
	svc := &fakeTimesheetService{repo: repo}

	// A date column comes back from the driver as midnight UTC, which is
	// still the previous evening in New York. A canonical Monday row must
	// not be treated as mis-windowed because of that offset.
	monday := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	aligned := &timesheet.Timesheet{ID: uuid.New(), UserID: uuid.New(), WeekStart: monday, WeekEnd: monday.AddDate(0, 0, 6)}
	repo.timesheets[aligned.ID] = aligned

	wednesday := time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC)
	misaligned := &timesheet.Timesheet{ID: uuid.New(), UserID: uuid.New(), WeekStart: wednesday, WeekEnd: wednesday.AddDate(0, 0, 6)}
	repo.timesheets[misaligned.ID] = misaligned

	r := New(db, repo, svc, &fakeClockRepo{}, &fakeClockService{}, loc)
	result, err := r.FixTimesheetWeeks(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Skipped, "the aligned Monday row is untouched")
	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, svc.absorbed)

	kept := repo.timesheets[aligned.ID]
	assert.Equal(t, "2025-11-03", kept.WeekStart.Format("2006-01-02"))

	fixed := repo.timesheets[misaligned.ID]
	assert.Equal(t, "2025-11-03", fixed.WeekStart.Format("2006-01-02"))
	assert.Equal(t, "2025-11-09", fixed.WeekEnd.Format("2006-01-02"))

	// Re-running over the corrected rows changes nothing.
	again, err := r.FixTimesheetWeeks(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, again.Skipped)
	assert.Equal(t, 0, again.Updated)
	assert.Equal(t, 0, again.Merged)
}

func TestReconciler_MoveDayHours(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeTimesheetRepo()
	svc := &fakeTimesheetService{repo: repo}

	userID := uuid.New()
	wrongWeek := weekStarting(2025, 10, 27)
	rightWeek := weekStarting(2025, 11, 3)

	stale := &timesheet.Timesheet{ID: uuid.New(), UserID: userID, WeekStart: wrongWeek.Start, WeekEnd: wrongWeek.End}
	repo.timesheets[stale.ID] = stale
	entry := &timesheet.TimesheetEntry{
		ID: uuid.New(), TimesheetID: stale.ID,
		Project: "Core", Task: "Issue #42: Fix bug", Source: timesheet.SourceTimeClock,
		ThuHours: 3.25, MonHours: 1,
	}
	repo.entries[entry.ID] = entry

	r := New(db, repo, svc, &fakeClockRepo{}, &fakeClockService{}, time.UTC)

	mock.ExpectBegin()
	mock.ExpectCommit()
	result, err := r.MoveDayHours(context.Background(), userID, wrongWeek.Start, rightWeek.Start, week.Thursday)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Created, "destination timesheet created")

	// Source column zeroed, untouched columns intact.
	moved := repo.entries[entry.ID]
	assert.Equal(t, 0.0, moved.ThuHours)
	assert.Equal(t, 1.0, moved.MonHours)

	// Destination received the hours under the same key.
	destRows, _ := repo.FindByUserAndWeekStart(context.Background(), userID, rightWeek.Start)
	if assert.Len(t, destRows, 1) {
		destEntry, err := repo.FindEntry(context.Background(), destRows[0].ID, entry.Key())
		if assert.NoError(t, err) {
			assert.Equal(t, 3.25, destEntry.ThuHours)
		}
	}

	// Second run is a no-op: the column is already zero.
	mock.ExpectBegin()
	mock.ExpectCommit()
	again, err := r.MoveDayHours(context.Background(), userID, wrongWeek.Start, rightWeek.Start, week.Thursday)
	assert.NoError(t, err)
	assert.Equal(t, 0, again.Processed)

	destRows, _ = repo.FindByUserAndWeekStart(context.Background(), userID, rightWeek.Start)
	if assert.Len(t, destRows, 1) {
		destEntry, _ := repo.FindEntry(context.Background(), destRows[0].ID, entry.Key())
		assert.Equal(t, 3.25, destEntry.ThuHours, "no double-count on re-run")
	}
}

func TestReconciler_MoveDayHours_MergesIntoExistingEntry(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeTimesheetRepo()
	svc := &fakeTimesheetService{repo: repo}

	userID := uuid.New()
	wrongWeek := weekStarting(2025, 10, 27)
	rightWeek := weekStarting(2025, 11, 3)

	stale := &timesheet.Timesheet{ID: uuid.New(), UserID: userID, WeekStart: wrongWeek.Start, WeekEnd: wrongWeek.End}
	dest := &timesheet.Timesheet{ID: uuid.New(), UserID: userID, WeekStart: rightWeek.Start, WeekEnd: rightWeek.End}
	repo.timesheets[stale.ID] = stale
	repo.timesheets[dest.ID] = dest

	key := timesheet.Key{Project: "Core", Task: "Ops", Source: timesheet.SourceTimeClock}
	src := &timesheet.TimesheetEntry{ID: uuid.New(), TimesheetID: stale.ID, Project: key.Project, Task: key.Task, Source: key.Source, ThuHours: 2}
	existing := &timesheet.TimesheetEntry{ID: uuid.New(), TimesheetID: dest.ID, Project: key.Project, Task: key.Task, Source: key.Source, ThuHours: 1.5}
	repo.entries[src.ID] = src
	repo.entries[existing.ID] = existing

	r := New(db, repo, svc, &fakeClockRepo{}, &fakeClockService{}, time.UTC)

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := r.MoveDayHours(context.Background(), userID, wrongWeek.Start, rightWeek.Start, week.Thursday)
	assert.NoError(t, err)

	assert.Equal(t, 3.5, repo.entries[existing.ID].ThuHours, "moved amount is summed into the existing entry")
	assert.Equal(t, 0.0, repo.entries[src.ID].ThuHours)
}

func TestReconciler_EnsureCurrentWeek(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeTimesheetRepo()
	svc := &fakeTimesheetService{repo: repo}

	now := time.Date(2025, 11, 12, 10, 0, 0, 0, time.UTC) // Wednesday, week of Nov 10
	prevWeek := weekStarting(2025, 11, 3)
	curWeek := weekStarting(2025, 11, 10)

	// User with a recurring manual entry: carried forward.
	userA := uuid.New()
	prevA := &timesheet.Timesheet{ID: uuid.New(), UserID: userA, WeekStart: prevWeek.Start, WeekEnd: prevWeek.End}
	repo.timesheets[prevA.ID] = prevA
	manual := &timesheet.TimesheetEntry{
		ID: uuid.New(), TimesheetID: prevA.ID,
		Project: "Core", Task: "Standup", Source: timesheet.SourceManual,
		MonHours: 0.5, TueHours: 0.5, SatHours: 3,
	}
	clocked := &timesheet.TimesheetEntry{
		ID: uuid.New(), TimesheetID: prevA.ID,
		Project: "Core", Task: "Issue #7: Review", Source: timesheet.SourceTimeClock,
		WedHours: 4,
	}
	repo.entries[manual.ID] = manual
	repo.entries[clocked.ID] = clocked

	// User who already has a current-week timesheet: skipped.
	userB := uuid.New()
	prevB := &timesheet.Timesheet{ID: uuid.New(), UserID: userB, WeekStart: prevWeek.Start, WeekEnd: prevWeek.End}
	curB := &timesheet.Timesheet{ID: uuid.New(), UserID: userB, WeekStart: curWeek.Start, WeekEnd: curWeek.End}
	repo.timesheets[prevB.ID] = prevB
	repo.timesheets[curB.ID] = curB

	r := New(db, repo, svc, &fakeClockRepo{}, &fakeClockService{}, time.UTC)
	result, err := r.EnsureCurrentWeek(context.Background(), now)
	assert.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Merged, "one entry carried forward")

	curRows, _ := repo.FindByUserAndWeekStart(context.Background(), userA, curWeek.Start)
	if assert.Len(t, curRows, 1) {
		entries, _ := repo.FindEntries(context.Background(), curRows[0].ID)
		if assert.Len(t, entries, 1, "time_clock entries are not carried") {
			assert.Equal(t, "Standup", entries[0].Task)
			assert.Equal(t, timesheet.SourceManual, entries[0].Source)
			assert.Equal(t, 0.5, entries[0].MonHours)
			assert.Equal(t, 0.5, entries[0].TueHours)
			assert.Equal(t, 0.0, entries[0].SatHours, "weekend hours are not carried")
		}
	}
}
