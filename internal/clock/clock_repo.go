package clock

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-timesheet/internal/shared/gormtx"
)

//go:generate mockgen -source=clock_repo.go -destination=mock/clock_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, s *ClockSession) error
	Update(ctx context.Context, s *ClockSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*ClockSession, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*ClockSession, error)
	FindAllByUser(ctx context.Context, userID uuid.UUID) ([]ClockSession, error)
	FindUnreconciled(ctx context.Context, limit int) ([]ClockSession, error)
	MarkReconciled(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: gormtx.Bind(r.db, tx), tx: tx}
}

func (r *repository) Create(ctx context.Context, s *ClockSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) Update(ctx context.Context, s *ClockSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*ClockSession, error) {
	var s ClockSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *repository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*ClockSession, error) {
	var s ClockSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("status IN ?", []string{StatusClockedIn, StatusPaused}).
		Order("clock_in DESC").
		First(&s).Error
	return &s, err
}

func (r *repository) FindAllByUser(ctx context.Context, userID uuid.UUID) ([]ClockSession, error) {
	var rows []ClockSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("clock_in DESC").
		Find(&rows).Error
	return rows, err
}

// FindUnreconciled lists closed, positive-duration sessions not yet merged
// into a timesheet, oldest first.
func (r *repository) FindUnreconciled(ctx context.Context, limit int) ([]ClockSession, error) {
	var rows []ClockSession
	q := r.db.WithContext(ctx).
		Where("status = ?", StatusClockedOut).
		Where("total_hours > 0").
		Where("reconciled_at IS NULL").
		Order("clock_out ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *repository) MarkReconciled(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&ClockSession{}).
		Where("id = ?", id).
		Update("reconciled_at", at).Error
}
