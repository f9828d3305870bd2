package timesheet

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-timesheet/internal/shared/gormtx"
)

const dateLayout = "2006-01-02"

//go:generate mockgen -source=timesheet_repo.go -destination=mock/timesheet_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, ts *Timesheet) error
	Update(ctx context.Context, ts *Timesheet) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Timesheet, error)
	FindByUserAndWeekStart(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]Timesheet, error)
	FindContaining(ctx context.Context, userID uuid.UUID, date time.Time) (*Timesheet, error)
	FindByWeekStart(ctx context.Context, weekStart time.Time) ([]Timesheet, error)
	FindAll(ctx context.Context) ([]Timesheet, error)

	CreateEntry(ctx context.Context, e *TimesheetEntry) error
	UpdateEntry(ctx context.Context, e *TimesheetEntry) error
	SoftDeleteEntry(ctx context.Context, id uuid.UUID) error
	FindEntry(ctx context.Context, timesheetID uuid.UUID, key Key) (*TimesheetEntry, error)
	FindEntryByID(ctx context.Context, id uuid.UUID) (*TimesheetEntry, error)
	FindEntries(ctx context.Context, timesheetID uuid.UUID) ([]TimesheetEntry, error)

	LockUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx rebinds every operation, gorm statements included, onto tx. The
// returned repository must only be used until the caller resolves the
// transaction.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: gormtx.Bind(r.db, tx), tx: tx}
}

func (r *repository) Create(ctx context.Context, ts *Timesheet) error {
	return r.db.WithContext(ctx).Create(ts).Error
}

func (r *repository) Update(ctx context.Context, ts *Timesheet) error {
	return r.db.WithContext(ctx).Save(ts).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&Timesheet{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Timesheet, error) {
	var ts Timesheet
	err := r.db.WithContext(ctx).First(&ts, "id = ?", id).Error
	return &ts, err
}

func (r *repository) FindByUserAndWeekStart(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]Timesheet, error) {
	var rows []Timesheet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("week_start = ?", weekStart.Format(dateLayout)).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindContaining matches any timesheet whose stored range covers date. It
// exists for rows created before the week boundary logic was fixed, whose
// week_start is not the canonical Monday.
func (r *repository) FindContaining(ctx context.Context, userID uuid.UUID, date time.Time) (*Timesheet, error) {
	var ts Timesheet
	d := date.Format(dateLayout)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("week_start <= ?", d).
		Where("week_end >= ?", d).
		Order("created_at ASC").
		First(&ts).Error
	return &ts, err
}

func (r *repository) FindByWeekStart(ctx context.Context, weekStart time.Time) ([]Timesheet, error) {
	var rows []Timesheet
	err := r.db.WithContext(ctx).
		Where("week_start = ?", weekStart.Format(dateLayout)).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAll(ctx context.Context) ([]Timesheet, error) {
	var rows []Timesheet
	err := r.db.WithContext(ctx).
		Order("user_id ASC, week_start ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateEntry(ctx context.Context, e *TimesheetEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) UpdateEntry(ctx context.Context, e *TimesheetEntry) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *repository) SoftDeleteEntry(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&TimesheetEntry{}, "id = ?", id).Error
}

func (r *repository) FindEntry(ctx context.Context, timesheetID uuid.UUID, key Key) (*TimesheetEntry, error) {
	var e TimesheetEntry
	err := r.db.WithContext(ctx).
		Where("timesheet_id = ?", timesheetID).
		Where("project = ?", key.Project).
		Where("task = ?", key.Task).
		Where("source = ?", key.Source).
		First(&e).Error
	return &e, err
}

func (r *repository) FindEntryByID(ctx context.Context, id uuid.UUID) (*TimesheetEntry, error) {
	var e TimesheetEntry
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindEntries(ctx context.Context, timesheetID uuid.UUID) ([]TimesheetEntry, error) {
	var rows []TimesheetEntry
	err := r.db.WithContext(ctx).
		Where("timesheet_id = ?", timesheetID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// LockUserWeek takes a transaction-scoped advisory lock keyed on
// (user, week_start). Any two concurrent identity-resolve + merge sequences
// for the same week serialize here instead of racing into duplicate
// timesheet rows.
func (r *repository) LockUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) error {
	key := fmt.Sprintf("timesheet:%s:%s", userID, weekStart.Format(dateLayout))
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key)
		return err
	}
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}
