package timesheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"go-timesheet/internal/events"
	"go-timesheet/internal/messaging/kafka"
	"go-timesheet/internal/shared/apperror"
	"go-timesheet/internal/shared/contextutil"
	timesheeterrors "go-timesheet/internal/timesheet/errors"
	"go-timesheet/internal/week"
)

const (
	leaveDayHours = 8.0

	viewCachePrefix = "tsview:"
	viewCacheTTL    = 5 * time.Minute
)

// Contribution is one incoming piece of reported time: a source, an entry
// key, a day column and an hour quantity.
type Contribution struct {
	Project string
	Task    string
	Source  string
	Day     week.DayIndex
	Hours   float64
}

// normalized trims the key strings and applies the catch-all defaults.
func (c Contribution) normalized() Contribution {
	c.Project = strings.TrimSpace(c.Project)
	if c.Project == "" {
		c.Project = DefaultProject
	}
	c.Task = strings.TrimSpace(c.Task)
	if c.Task == "" {
		c.Task = DefaultTask
	}
	if c.Source == "" {
		c.Source = SourceManual
	}
	return c
}

// LeaveSpan is an approved leave period as the read projection consumes it.
type LeaveSpan struct {
	Type      string
	Reason    string
	StartDate time.Time
	EndDate   time.Time
}

// LeaveSource reads approved leave overlapping a date range. Implemented by
// the leave package; leave rows stay virtual and are never written into
// timesheet_entries.
type LeaveSource interface {
	ApprovedOverlapping(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]LeaveSpan, error)
}

//go:generate mockgen -source=timesheet_service.go -destination=mock/timesheet_service_mock.go -package=mock
type Service interface {
	// GetOrCreate resolves the single timesheet owning a week, creating a
	// draft lazily. The bool reports whether a row was created.
	GetOrCreate(ctx context.Context, userID uuid.UUID, w week.Window) (*Timesheet, bool, error)

	// RecordContribution is the full identity-resolve + merge sequence for
	// one contribution, in one transaction under the per-week advisory lock.
	RecordContribution(ctx context.Context, userID uuid.UUID, at time.Time, c Contribution) error

	// MergeContribution merges one contribution into an already-resolved
	// timesheet.
	MergeContribution(ctx context.Context, timesheetID uuid.UUID, c Contribution) error

	// Absorb folds every entry of duplicateID into survivorID column-wise
	// and soft-deletes the duplicate, all in one transaction.
	Absorb(ctx context.Context, survivorID, duplicateID uuid.UUID) error

	GetView(ctx context.Context, userID uuid.UUID, target time.Time) (TimesheetView, error)
	AddManualHours(ctx context.Context, userID uuid.UUID, req AddHoursRequest) (TimesheetView, error)
	UpdateManualEntry(ctx context.Context, userID uuid.UUID, entryID string, req UpdateEntryRequest) (EntryResponse, error)

	// InvalidateViewRange drops every cached week view whose window
	// overlaps [from, to]. Leave decisions call this so approved days show
	// up without waiting out the cache TTL.
	InvalidateViewRange(ctx context.Context, userID uuid.UUID, from, to time.Time)
}

type service struct {
	db     *sql.DB
	repo   Repository
	leaves LeaveSource
	loc    *time.Location
	outbox kafka.OutboxRepository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, leaves LeaveSource, loc *time.Location, logger ...*zap.Logger) Service {
	return NewServiceWithInfra(db, repo, leaves, loc, nil, nil, logger...)
}

func NewServiceWithInfra(
	db *sql.DB,
	repo Repository,
	leaves LeaveSource,
	loc *time.Location,
	outbox kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("timesheet.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("timesheet.service")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		db:     db,
		repo:   repo,
		leaves: leaves,
		loc:    loc,
		outbox: outbox,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID, w week.Window) (*Timesheet, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("get or create timesheet begin tx failed", zap.Error(err))
		return nil, false, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.LockUserWeek(ctx, userID, w.Start); err != nil {
		s.logger.Error("acquire week lock failed", zap.Error(err))
		return nil, false, err
	}

	ts, created, err := s.getOrCreate(ctx, qtx, userID, w)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("get or create timesheet commit failed", zap.Error(err))
		return nil, false, err
	}
	return ts, created, nil
}

// getOrCreate runs inside the caller's transaction. Lookup order: exact
// (user, week_start) match, then containment for rows with pre-fix windows,
// then lazy creation of a draft.
func (s *service) getOrCreate(ctx context.Context, qtx Repository, userID uuid.UUID, w week.Window) (*Timesheet, bool, error) {
	rows, err := qtx.FindByUserAndWeekStart(ctx, userID, w.Start)
	if err != nil {
		s.logger.Error("find timesheet by week failed", zap.Error(err))
		return nil, false, err
	}
	if len(rows) > 1 {
		// Not fatal: proceed with the earliest-created row and let the
		// dedup pass collapse the rest at the next maintenance run.
		s.logger.Warn("duplicate timesheets for week",
			zap.String("user_id", userID.String()),
			zap.String("week_start", w.Start.Format(dateLayout)),
			zap.Int("count", len(rows)),
		)
	}
	if len(rows) > 0 {
		return &rows[0], false, nil
	}

	ts, err := qtx.FindContaining(ctx, userID, w.Start)
	if err == nil {
		s.logger.Debug("reusing containing timesheet",
			zap.String("timesheet_id", ts.ID.String()),
			zap.String("week_start", w.Start.Format(dateLayout)),
		)
		return ts, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("find containing timesheet failed", zap.Error(err))
		return nil, false, err
	}

	ts = &Timesheet{
		ID:        uuid.New(),
		UserID:    userID,
		WeekStart: w.Start,
		WeekEnd:   w.End,
		Status:    StatusDraft,
	}
	if err := qtx.Create(ctx, ts); err != nil {
		s.logger.Error("create timesheet failed", zap.Error(err))
		return nil, false, mapRepositoryError(err)
	}
	s.logger.Info("timesheet created",
		zap.String("timesheet_id", ts.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("week_start", w.Start.Format(dateLayout)),
	)
	return ts, true, nil
}

func (s *service) RecordContribution(ctx context.Context, userID uuid.UUID, at time.Time, c Contribution) error {
	if c.Hours <= 0 {
		// Zero and negative contributions are no-ops; they must never
		// create a spurious row.
		return nil
	}
	if !c.Day.Valid() {
		return timesheeterrors.ErrInvalidDay
	}

	rid := contextutil.GetRequestID(ctx)
	w := week.Resolve(at, s.loc)
	s.logger.Debug("record contribution requested",
		zap.String("request_id", rid),
		zap.String("user_id", userID.String()),
		zap.String("week_start", w.Start.Format(dateLayout)),
		zap.String("day", c.Day.String()),
		zap.Float64("hours", c.Hours),
		zap.String("source", c.Source),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("record contribution begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.LockUserWeek(ctx, userID, w.Start); err != nil {
		s.logger.Error("acquire week lock failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	ts, _, err := s.getOrCreate(ctx, qtx, userID, w)
	if err != nil {
		return err
	}
	if err := s.mergeContribution(ctx, qtx, ts.ID, c); err != nil {
		return err
	}

	if s.outbox != nil {
		event := events.TimesheetUpdatedEvent{
			EventType:   "timesheet_updated",
			RequestID:   rid,
			TimesheetID: ts.ID.String(),
			UserID:      userID.String(),
			WeekStart:   w.Start.Format(dateLayout),
			Source:      c.Source,
			OccurredAt:  time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("marshal timesheet_updated event failed", zap.String("request_id", rid), zap.Error(err))
			return err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "timesheet",
			AggregateID:   ts.ID.String(),
			EventType:     event.EventType,
			Topic:         events.TimesheetUpdatedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("queue timesheet_updated outbox failed", zap.String("request_id", rid), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("record contribution commit failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	s.invalidateView(ctx, userID, w.Start)
	s.logger.Info("contribution recorded",
		zap.String("request_id", rid),
		zap.String("timesheet_id", ts.ID.String()),
		zap.String("day", c.Day.String()),
		zap.Float64("hours", c.Hours),
		zap.String("source", c.Source),
	)
	return nil
}

func (s *service) MergeContribution(ctx context.Context, timesheetID uuid.UUID, c Contribution) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("merge contribution begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := s.mergeContribution(ctx, s.repo.WithTx(tx), timesheetID, c); err != nil {
		return err
	}
	return tx.Commit()
}

// mergeContribution is the entry merge engine: additive accumulation into
// the matching (project, task, source) row, creating the row only when the
// contribution carries positive hours.
func (s *service) mergeContribution(ctx context.Context, qtx Repository, timesheetID uuid.UUID, c Contribution) error {
	if c.Hours <= 0 {
		return nil
	}
	if !c.Day.Valid() {
		return timesheeterrors.ErrInvalidDay
	}
	c = c.normalized()

	entry, err := qtx.FindEntry(ctx, timesheetID, Key{Project: c.Project, Task: c.Task, Source: c.Source})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("find entry failed", zap.Error(err))
			return err
		}
		entry = &TimesheetEntry{
			ID:          uuid.New(),
			TimesheetID: timesheetID,
			Project:     c.Project,
			Task:        c.Task,
			Source:      c.Source,
		}
		entry.SetDayHours(c.Day, c.Hours)
		if err := qtx.CreateEntry(ctx, entry); err != nil {
			s.logger.Error("create entry failed", zap.Error(err))
			return mapRepositoryError(err)
		}
		return nil
	}

	entry.AddDayHours(c.Day, c.Hours)
	if err := qtx.UpdateEntry(ctx, entry); err != nil {
		s.logger.Error("update entry failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *service) Absorb(ctx context.Context, survivorID, duplicateID uuid.UUID) error {
	if survivorID == duplicateID {
		return nil
	}
	s.logger.Debug("absorb timesheet requested",
		zap.String("survivor_id", survivorID.String()),
		zap.String("duplicate_id", duplicateID.String()),
	)

	survivor, err := s.repo.FindByID(ctx, survivorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return timesheeterrors.ErrTimesheetNotFound
		}
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("absorb begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.LockUserWeek(ctx, survivor.UserID, survivor.WeekStart); err != nil {
		s.logger.Error("acquire week lock failed", zap.Error(err))
		return err
	}

	dupEntries, err := qtx.FindEntries(ctx, duplicateID)
	if err != nil {
		s.logger.Error("find duplicate entries failed", zap.Error(err))
		return err
	}

	for i := range dupEntries {
		dup := &dupEntries[i]
		existing, err := qtx.FindEntry(ctx, survivorID, dup.Key())
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Error("find survivor entry failed", zap.Error(err))
				return err
			}
			moved := &TimesheetEntry{
				ID:          uuid.New(),
				TimesheetID: survivorID,
				Project:     dup.Project,
				Task:        dup.Task,
				Source:      dup.Source,
			}
			moved.MergeColumns(dup)
			if err := qtx.CreateEntry(ctx, moved); err != nil {
				s.logger.Error("create moved entry failed", zap.Error(err))
				return mapRepositoryError(err)
			}
		} else {
			existing.MergeColumns(dup)
			if err := qtx.UpdateEntry(ctx, existing); err != nil {
				s.logger.Error("merge entry columns failed", zap.Error(err))
				return err
			}
		}
		if err := qtx.SoftDeleteEntry(ctx, dup.ID); err != nil {
			s.logger.Error("delete duplicate entry failed", zap.Error(err))
			return err
		}
	}

	if err := qtx.SoftDelete(ctx, duplicateID); err != nil {
		s.logger.Error("delete duplicate timesheet failed", zap.Error(err))
		return err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("absorb commit failed", zap.Error(err))
		return err
	}

	s.invalidateView(ctx, survivor.UserID, survivor.WeekStart)
	s.logger.Info("timesheet absorbed",
		zap.String("survivor_id", survivorID.String()),
		zap.String("duplicate_id", duplicateID.String()),
		zap.Int("entries_moved", len(dupEntries)),
	)
	return nil
}

func (s *service) GetView(ctx context.Context, userID uuid.UUID, target time.Time) (TimesheetView, error) {
	w := week.Resolve(target, s.loc)
	cacheKey := viewCacheKey(userID, w.Start)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var view TimesheetView
			if json.Unmarshal([]byte(cached), &view) == nil {
				return view, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		view, err := s.buildView(ctx, userID, w)
		if err != nil {
			return nil, err
		}
		if s.rdb != nil {
			if payload, err := json.Marshal(view); err == nil {
				s.rdb.Set(ctx, cacheKey, payload, viewCacheTTL)
			}
		}
		return view, nil
	})
	if err != nil {
		return TimesheetView{}, err
	}
	return v.(TimesheetView), nil
}

func (s *service) buildView(ctx context.Context, userID uuid.UUID, w week.Window) (TimesheetView, error) {
	view := TimesheetView{Entries: []EntryResponse{}}

	ts, err := s.findForWeek(ctx, userID, w)
	if err != nil {
		return TimesheetView{}, err
	}

	var persisted []TimesheetEntry
	if ts != nil {
		view.Timesheet = mapToResponse(ts)
		persisted, err = s.repo.FindEntries(ctx, ts.ID)
		if err != nil {
			s.logger.Error("find entries failed", zap.Error(err))
			return TimesheetView{}, err
		}
		for i := range persisted {
			view.Entries = append(view.Entries, mapEntryToResponse(&persisted[i]))
		}
	}

	if s.leaves != nil {
		virtual, err := s.virtualLeaveEntries(ctx, userID, w)
		if err != nil {
			return TimesheetView{}, err
		}
		view.Entries = append(view.Entries, virtual...)
	}

	grand := decimal.Zero
	for _, e := range view.Entries {
		days := [7]float64{e.MonHours, e.TueHours, e.WedHours, e.ThuHours, e.FriHours, e.SatHours, e.SunHours}
		for i, h := range days {
			view.DayTotals[i] = AddHours(view.DayTotals[i], h)
		}
		grand = grand.Add(decimal.NewFromFloat(e.Total))
	}
	view.GrandTotal, _ = grand.Round(2).Float64()
	return view, nil
}

// findForWeek is the read-side identity lookup: exact week_start first, then
// containment for legacy rows. A missing timesheet is not an error here.
func (s *service) findForWeek(ctx context.Context, userID uuid.UUID, w week.Window) (*Timesheet, error) {
	rows, err := s.repo.FindByUserAndWeekStart(ctx, userID, w.Start)
	if err != nil {
		s.logger.Error("find timesheet by week failed", zap.Error(err))
		return nil, err
	}
	if len(rows) > 1 {
		s.logger.Warn("duplicate timesheets for week",
			zap.String("user_id", userID.String()),
			zap.String("week_start", w.Start.Format(dateLayout)),
			zap.Int("count", len(rows)),
		)
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}

	ts, err := s.repo.FindContaining(ctx, userID, w.Start)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("find containing timesheet failed", zap.Error(err))
		return nil, err
	}
	return ts, nil
}

// virtualLeaveEntries synthesizes one leave row per approved request
// overlapping the week: 8 hours in each weekday column whose calendar date
// falls inside the leave period. These rows are computed on every read and
// never persisted.
func (s *service) virtualLeaveEntries(ctx context.Context, userID uuid.UUID, w week.Window) ([]EntryResponse, error) {
	spans, err := s.leaves.ApprovedOverlapping(ctx, userID, w.Start, w.End)
	if err != nil {
		s.logger.Error("find approved leave failed", zap.Error(err))
		return nil, err
	}

	entries := make([]EntryResponse, 0, len(spans))
	for _, span := range spans {
		entry := &TimesheetEntry{
			Project: "Leave",
			Task:    span.Type + " - " + span.Reason,
			Source:  SourceLeave,
		}
		for d := week.Monday; d <= week.Sunday; d++ {
			day := w.Start.AddDate(0, 0, int(d))
			if !day.Before(span.StartDate) && !day.After(span.EndDate) {
				entry.SetDayHours(d, leaveDayHours)
			}
		}
		resp := mapEntryToResponse(entry)
		resp.ID = ""
		resp.Virtual = true
		entries = append(entries, resp)
	}
	return entries, nil
}

func (s *service) AddManualHours(ctx context.Context, userID uuid.UUID, req AddHoursRequest) (TimesheetView, error) {
	date, err := time.ParseInLocation(dateLayout, req.Date, s.loc)
	if err != nil {
		return TimesheetView{}, timesheeterrors.ErrInvalidDateFormat
	}

	day := week.DayOf(date, s.loc)
	if req.Day != nil {
		parsed, ok := week.ParseDay(*req.Day)
		if !ok {
			return TimesheetView{}, timesheeterrors.ErrInvalidDay
		}
		day = parsed
	}

	c := Contribution{
		Project: req.Project,
		Task:    req.Task,
		Source:  SourceManual,
		Day:     day,
		Hours:   req.Hours,
	}
	if err := s.RecordContribution(ctx, userID, date, c); err != nil {
		return TimesheetView{}, err
	}
	return s.GetView(ctx, userID, date)
}

func (s *service) UpdateManualEntry(ctx context.Context, userID uuid.UUID, entryID string, req UpdateEntryRequest) (EntryResponse, error) {
	id, err := uuid.Parse(entryID)
	if err != nil {
		return EntryResponse{}, timesheeterrors.ErrEntryNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update entry begin tx failed", zap.Error(err))
		return EntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	entry, err := qtx.FindEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EntryResponse{}, timesheeterrors.ErrEntryNotFound
		}
		s.logger.Error("find entry by id failed", zap.Error(err))
		return EntryResponse{}, err
	}

	ts, err := qtx.FindByID(ctx, entry.TimesheetID)
	if err != nil {
		s.logger.Error("find owning timesheet failed", zap.Error(err))
		return EntryResponse{}, err
	}
	if ts.UserID != userID {
		return EntryResponse{}, timesheeterrors.ErrEntryNotOwned
	}

	// System-owned rows are produced by reconciliation and must never be
	// hand-edited.
	if entry.Source != SourceManual {
		s.logger.Warn("rejected edit of system-owned entry",
			zap.String("entry_id", entry.ID.String()),
			zap.String("source", entry.Source),
		)
		return EntryResponse{}, timesheeterrors.ErrEntryNotEditable
	}

	if p := strings.TrimSpace(req.Project); p != "" {
		entry.Project = p
	}
	if t := strings.TrimSpace(req.Task); t != "" {
		entry.Task = t
	}
	hours := [7]float64{
		req.MonHours, req.TueHours, req.WedHours, req.ThuHours,
		req.FriHours, req.SatHours, req.SunHours,
	}
	for d := week.Monday; d <= week.Sunday; d++ {
		entry.SetDayHours(d, hours[d])
	}

	if err := qtx.UpdateEntry(ctx, entry); err != nil {
		s.logger.Error("update entry failed", zap.Error(err))
		return EntryResponse{}, mapRepositoryError(err)
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("update entry commit failed", zap.Error(err))
		return EntryResponse{}, err
	}

	s.invalidateView(ctx, userID, ts.WeekStart)
	s.logger.Info("manual entry updated",
		zap.String("entry_id", entry.ID.String()),
		zap.String("timesheet_id", ts.ID.String()),
	)
	return mapEntryToResponse(entry), nil
}

func (s *service) InvalidateViewRange(ctx context.Context, userID uuid.UUID, from, to time.Time) {
	if s.rdb == nil {
		return
	}
	for _, ws := range weekStartsCovering(from, to, s.loc) {
		s.invalidateView(ctx, userID, ws)
	}
}

// weekStartsCovering lists the Monday of every week touched by the calendar
// days [from, to]. The bounds are date columns, so they are re-anchored to
// loc before resolving.
func weekStartsCovering(from, to time.Time, loc *time.Location) []time.Time {
	fy, fm, fd := from.Date()
	cur := week.Resolve(time.Date(fy, fm, fd, 0, 0, 0, 0, loc), loc)
	ty, tm, td := to.Date()
	end := time.Date(ty, tm, td, 0, 0, 0, 0, loc)

	var starts []time.Time
	for !cur.Start.After(end) {
		starts = append(starts, cur.Start)
		cur = week.Resolve(cur.Start.AddDate(0, 0, 7), loc)
	}
	return starts
}

func (s *service) invalidateView(ctx context.Context, userID uuid.UUID, weekStart time.Time) {
	if s.rdb == nil {
		return
	}
	key := viewCacheKey(userID, weekStart)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Error("invalidate view cache failed", zap.String("key", key), zap.Error(err))
	}
}

func viewCacheKey(userID uuid.UUID, weekStart time.Time) string {
	return viewCachePrefix + userID.String() + ":" + weekStart.Format(dateLayout)
}

func mapToResponse(ts *Timesheet) *TimesheetResponse {
	return &TimesheetResponse{
		ID:        ts.ID.String(),
		UserID:    ts.UserID.String(),
		WeekStart: ts.WeekStart.Format(dateLayout),
		WeekEnd:   ts.WeekEnd.Format(dateLayout),
		Status:    ts.Status,
	}
}

func mapEntryToResponse(e *TimesheetEntry) EntryResponse {
	return EntryResponse{
		ID:       e.ID.String(),
		Project:  e.Project,
		Task:     e.Task,
		Source:   e.Source,
		MonHours: e.MonHours,
		TueHours: e.TueHours,
		WedHours: e.WedHours,
		ThuHours: e.ThuHours,
		FriHours: e.FriHours,
		SatHours: e.SatHours,
		SunHours: e.SunHours,
		Total:    e.Total(),
	}
}

func mapRepositoryError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		// Unique index on the entry key or the (user, week) pair: a
		// concurrent writer got there first.
		return apperror.Wrap(err, apperror.CodeConflict, "timesheet row already exists", 409)
	}
	return err
}
