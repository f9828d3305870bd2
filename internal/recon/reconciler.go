package recon

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-timesheet/internal/clock"
	"go-timesheet/internal/timesheet"
	"go-timesheet/internal/week"
)

const (
	dateLayout       = "2006-01-02"
	defaultBatchSize = 500
)

// Reconciler runs the maintenance batches that re-derive timesheet
// consistency after the live pipeline has drifted: replaying unapplied clock
// sessions, collapsing duplicate weeks, fixing mis-resolved week windows,
// migrating misplaced day columns and rolling entries into a new week.
//
// Every batch is idempotent: re-running over already-consistent data changes
// nothing.
type Reconciler struct {
	db           *sql.DB
	timesheets   timesheet.Repository
	tsService    timesheet.Service
	sessions     clock.Repository
	clockService clock.Service
	loc          *time.Location
	logger       *zap.Logger
}

func New(
	db *sql.DB,
	timesheets timesheet.Repository,
	tsService timesheet.Service,
	sessions clock.Repository,
	clockService clock.Service,
	loc *time.Location,
	logger ...*zap.Logger,
) *Reconciler {
	l := zap.L().Named("recon")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("recon")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{
		db:           db,
		timesheets:   timesheets,
		tsService:    tsService,
		sessions:     sessions,
		clockService: clockService,
		loc:          loc,
		logger:       l,
	}
}

// Backfill replays every closed, positive-duration clock session that has
// not been reflected in a timesheet yet. Sessions already applied carry a
// reconciled marker and are never fetched again, so the pass never
// double-counts.
func (r *Reconciler) Backfill(ctx context.Context, batchSize int) (Result, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	var result Result
	seen := make(map[uuid.UUID]struct{})
	for {
		sessions, err := r.sessions.FindUnreconciled(ctx, batchSize)
		if err != nil {
			r.logger.Error("fetch unreconciled sessions failed", zap.Error(err))
			return result, err
		}
		if len(sessions) == 0 {
			break
		}

		newly := 0
		for i := range sessions {
			s := &sessions[i]
			// Failed sessions stay unreconciled and reappear on later
			// pages; each session is counted once per run.
			if _, done := seen[s.ID]; done {
				continue
			}
			seen[s.ID] = struct{}{}
			newly++

			result.Processed++
			if err := r.clockService.ApplyClosedSession(ctx, s.ID); err != nil {
				r.logger.Error("backfill session failed",
					zap.String("session_id", s.ID.String()),
					zap.String("user_id", s.UserID.String()),
					zap.Error(err),
				)
				result.recordError(s.ID.String(), err)
				continue
			}
			result.Merged++
		}

		// A page holding nothing but already-seen sessions means no
		// further fetch can make progress.
		if newly == 0 {
			break
		}
	}

	r.logger.Info("backfill finished", zap.String("result", result.String()))
	return result, nil
}

// MergeDuplicateTimesheets collapses every (user, week_start) group holding
// more than one live timesheet into its earliest-created row. Each duplicate
// is absorbed in its own transaction, so a failure leaves that pair
// untouched and the rest of the run continues.
func (r *Reconciler) MergeDuplicateTimesheets(ctx context.Context) (Result, error) {
	var result Result

	all, err := r.timesheets.FindAll(ctx)
	if err != nil {
		r.logger.Error("list timesheets failed", zap.Error(err))
		return result, err
	}

	groups := make(map[string][]timesheet.Timesheet)
	for _, ts := range all {
		key := ts.UserID.String() + "|" + ts.WeekStart.Format(dateLayout)
		groups[key] = append(groups[key], ts)
	}

	for key, group := range groups {
		if len(group) < 2 {
			continue
		}
		result.Processed++

		sort.Slice(group, func(i, j int) bool {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
		survivor := group[0]
		r.logger.Info("collapsing duplicate timesheets",
			zap.String("group", key),
			zap.String("survivor_id", survivor.ID.String()),
			zap.Int("duplicates", len(group)-1),
		)

		for _, dup := range group[1:] {
			if err := r.tsService.Absorb(ctx, survivor.ID, dup.ID); err != nil {
				r.logger.Error("absorb duplicate failed",
					zap.String("survivor_id", survivor.ID.String()),
					zap.String("duplicate_id", dup.ID.String()),
					zap.Error(err),
				)
				result.recordError(dup.ID.String(), err)
				continue
			}
			result.Merged++
		}
	}

	r.logger.Info("dedup finished", zap.String("result", result.String()))
	return result, nil
}

// FixTimesheetWeeks recomputes the canonical week window for every
// timesheet from its stored week_start. Rows whose window differs are
// updated in place, or absorbed into the timesheet that already owns the
// corrected window.
func (r *Reconciler) FixTimesheetWeeks(ctx context.Context) (Result, error) {
	var result Result

	all, err := r.timesheets.FindAll(ctx)
	if err != nil {
		r.logger.Error("list timesheets failed", zap.Error(err))
		return result, err
	}

	for i := range all {
		ts := &all[i]
		result.Processed++

		w := week.Resolve(localDate(ts.WeekStart, r.loc), r.loc)
		if sameDate(w.Start, ts.WeekStart) && sameDate(w.End, ts.WeekEnd) {
			result.Skipped++
			continue
		}

		owner, err := r.findWindowOwner(ctx, ts.UserID, w.Start, ts.ID)
		if err != nil {
			result.recordError(ts.ID.String(), err)
			continue
		}

		if owner != nil {
			if err := r.tsService.Absorb(ctx, owner.ID, ts.ID); err != nil {
				r.logger.Error("absorb mis-windowed timesheet failed",
					zap.String("timesheet_id", ts.ID.String()),
					zap.String("owner_id", owner.ID.String()),
					zap.Error(err),
				)
				result.recordError(ts.ID.String(), err)
				continue
			}
			result.Merged++
			continue
		}

		ts.WeekStart = w.Start
		ts.WeekEnd = w.End
		if err := r.timesheets.Update(ctx, ts); err != nil {
			r.logger.Error("update timesheet window failed",
				zap.String("timesheet_id", ts.ID.String()),
				zap.Error(err),
			)
			result.recordError(ts.ID.String(), err)
			continue
		}
		r.logger.Info("timesheet window corrected",
			zap.String("timesheet_id", ts.ID.String()),
			zap.String("week_start", w.Start.Format(dateLayout)),
		)
		result.Updated++
	}

	r.logger.Info("week correction finished", zap.String("result", result.String()))
	return result, nil
}

// findWindowOwner returns the live timesheet other than excludeID that
// already owns (user, weekStart), or nil when the window is free.
func (r *Reconciler) findWindowOwner(ctx context.Context, userID uuid.UUID, weekStart time.Time, excludeID uuid.UUID) (*timesheet.Timesheet, error) {
	rows, err := r.timesheets.FindByUserAndWeekStart(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].ID != excludeID {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// MoveDayHours migrates one misplaced day column from the timesheet owning
// fromDate's week to the timesheet owning toDate's week, additively merging
// into the matching-key entry and zeroing the source column. Re-running
// moves nothing because the source column is already zero.
func (r *Reconciler) MoveDayHours(ctx context.Context, userID uuid.UUID, fromDate, toDate time.Time, day week.DayIndex) (Result, error) {
	var result Result
	if !day.Valid() {
		return result, errors.New("invalid day index")
	}

	fromW := week.Resolve(localDate(fromDate, r.loc), r.loc)
	toW := week.Resolve(localDate(toDate, r.loc), r.loc)
	if sameDate(fromW.Start, toW.Start) {
		return result, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("move day hours begin tx failed", zap.Error(err))
		return result, err
	}
	defer tx.Rollback()

	qtx := r.timesheets.WithTx(tx)

	// Lock both weeks in window order so two overlapping repair runs cannot
	// deadlock each other.
	first, second := fromW.Start, toW.Start
	if second.Before(first) {
		first, second = second, first
	}
	if err := qtx.LockUserWeek(ctx, userID, first); err != nil {
		return result, err
	}
	if err := qtx.LockUserWeek(ctx, userID, second); err != nil {
		return result, err
	}

	source, err := r.findForWindow(ctx, qtx, userID, fromW)
	if err != nil {
		return result, err
	}
	if source == nil {
		r.logger.Info("no timesheet for source week, nothing to move",
			zap.String("user_id", userID.String()),
			zap.String("week_start", fromW.Start.Format(dateLayout)),
		)
		return result, nil
	}

	entries, err := qtx.FindEntries(ctx, source.ID)
	if err != nil {
		return result, err
	}

	var dest *timesheet.Timesheet
	for i := range entries {
		entry := &entries[i]
		hours := entry.DayHours(day)
		if hours <= 0 {
			result.Skipped++
			continue
		}
		result.Processed++

		if dest == nil {
			dest, err = r.findForWindow(ctx, qtx, userID, toW)
			if err != nil {
				return result, err
			}
			if dest == nil {
				dest = &timesheet.Timesheet{
					ID:        uuid.New(),
					UserID:    userID,
					WeekStart: toW.Start,
					WeekEnd:   toW.End,
					Status:    timesheet.StatusDraft,
				}
				if err := qtx.Create(ctx, dest); err != nil {
					return result, err
				}
				result.Created++
			}
		}

		target, err := qtx.FindEntry(ctx, dest.ID, entry.Key())
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return result, err
			}
			target = &timesheet.TimesheetEntry{
				ID:          uuid.New(),
				TimesheetID: dest.ID,
				Project:     entry.Project,
				Task:        entry.Task,
				Source:      entry.Source,
			}
			target.SetDayHours(day, hours)
			if err := qtx.CreateEntry(ctx, target); err != nil {
				return result, err
			}
		} else {
			target.AddDayHours(day, hours)
			if err := qtx.UpdateEntry(ctx, target); err != nil {
				return result, err
			}
		}

		entry.SetDayHours(day, 0)
		if err := qtx.UpdateEntry(ctx, entry); err != nil {
			return result, err
		}
		result.Updated++

		r.logger.Info("day hours moved",
			zap.String("user_id", userID.String()),
			zap.String("from_week", fromW.Start.Format(dateLayout)),
			zap.String("to_week", toW.Start.Format(dateLayout)),
			zap.String("day", day.String()),
			zap.Float64("hours", hours),
			zap.String("entry_id", entry.ID.String()),
		)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("move day hours commit failed", zap.Error(err))
		return result, err
	}
	return result, nil
}

// findForWindow resolves the timesheet owning a window inside the caller's
// transaction: exact week_start first, then containment for legacy rows.
func (r *Reconciler) findForWindow(ctx context.Context, qtx timesheet.Repository, userID uuid.UUID, w week.Window) (*timesheet.Timesheet, error) {
	rows, err := qtx.FindByUserAndWeekStart(ctx, userID, w.Start)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	ts, err := qtx.FindContaining(ctx, userID, w.Start)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ts, nil
}

// EnsureCurrentWeek rolls recurring entries into the week containing now:
// every user whose previous week holds non-time_clock entries with positive
// Monday-to-Friday hours gets a current-week timesheet seeded with those
// entries' weekday columns, Saturday and Sunday zeroed. Users who already
// have a current-week timesheet are skipped.
func (r *Reconciler) EnsureCurrentWeek(ctx context.Context, now time.Time) (Result, error) {
	var result Result

	curW := week.Resolve(now, r.loc)
	prevW := week.Resolve(now.AddDate(0, 0, -7), r.loc)

	prevRows, err := r.timesheets.FindByWeekStart(ctx, prevW.Start)
	if err != nil {
		r.logger.Error("list previous week timesheets failed", zap.Error(err))
		return result, err
	}

	for i := range prevRows {
		prev := &prevRows[i]
		result.Processed++

		existing, err := r.timesheets.FindByUserAndWeekStart(ctx, prev.UserID, curW.Start)
		if err != nil {
			result.recordError(prev.ID.String(), err)
			continue
		}
		if len(existing) > 0 {
			result.Skipped++
			continue
		}

		entries, err := r.timesheets.FindEntries(ctx, prev.ID)
		if err != nil {
			result.recordError(prev.ID.String(), err)
			continue
		}
		carry := carriableEntries(entries)
		if len(carry) == 0 {
			result.Skipped++
			continue
		}

		ts, created, err := r.tsService.GetOrCreate(ctx, prev.UserID, curW)
		if err != nil {
			r.logger.Error("create current week timesheet failed",
				zap.String("user_id", prev.UserID.String()),
				zap.Error(err),
			)
			result.recordError(prev.ID.String(), err)
			continue
		}
		if created {
			result.Created++
		}

		carried := 0
		for _, entry := range carry {
			if err := r.carryEntry(ctx, ts.ID, entry); err != nil {
				r.logger.Error("carry entry forward failed",
					zap.String("entry_id", entry.ID.String()),
					zap.String("timesheet_id", ts.ID.String()),
					zap.Error(err),
				)
				result.recordError(entry.ID.String(), err)
				continue
			}
			carried++
			result.Merged++
		}
		r.logger.Info("current week seeded",
			zap.String("user_id", prev.UserID.String()),
			zap.String("week_start", curW.Start.Format(dateLayout)),
			zap.Int("entries_carried", carried),
		)
	}

	r.logger.Info("ensure current week finished", zap.String("result", result.String()))
	return result, nil
}

// carryEntry replays one previous-week entry's Monday-to-Friday columns
// into the new timesheet through the ordinary merge path.
func (r *Reconciler) carryEntry(ctx context.Context, timesheetID uuid.UUID, entry *timesheet.TimesheetEntry) error {
	for d := week.Monday; d <= week.Friday; d++ {
		hours := entry.DayHours(d)
		if hours <= 0 {
			continue
		}
		c := timesheet.Contribution{
			Project: entry.Project,
			Task:    entry.Task,
			Source:  entry.Source,
			Day:     d,
			Hours:   hours,
		}
		if err := r.tsService.MergeContribution(ctx, timesheetID, c); err != nil {
			return err
		}
	}
	return nil
}

func carriableEntries(entries []timesheet.TimesheetEntry) []*timesheet.TimesheetEntry {
	var out []*timesheet.TimesheetEntry
	for i := range entries {
		e := &entries[i]
		if e.Source == timesheet.SourceTimeClock {
			continue
		}
		weekday := 0.0
		for d := week.Monday; d <= week.Friday; d++ {
			weekday += e.DayHours(d)
		}
		if weekday > 0 {
			out = append(out, e)
		}
	}
	return out
}

// localDate re-anchors a stored date column, which the driver reads back as
// midnight UTC, to the same calendar day in loc. Resolving the raw instant
// in a west-of-UTC zone would slip it into the previous day.
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
