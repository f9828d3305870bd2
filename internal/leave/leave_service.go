package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	leaveerrors "go-timesheet/internal/leave/errors"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusCanceled = "CANCELLED"
)

const dateLayout = "2006-01-02"

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateLeaveRequest) (LeaveResponse, error)
	GetAll(ctx context.Context, userID uuid.UUID) ([]LeaveResponse, error)
	Approve(ctx context.Context, actorID, id uuid.UUID) (LeaveResponse, error)
	Reject(ctx context.Context, actorID, id uuid.UUID, rejectionReason string) (LeaveResponse, error)
	Cancel(ctx context.Context, userID, id uuid.UUID) (LeaveResponse, error)
}

// ViewInvalidator drops cached timesheet views after a leave decision
// changes what a week projection shows. Implemented by the timesheet
// service.
type ViewInvalidator interface {
	InvalidateViewRange(ctx context.Context, userID uuid.UUID, from, to time.Time)
}

type service struct {
	db     *sql.DB
	repo   Repository
	views  ViewInvalidator
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func NewServiceWithViews(db *sql.DB, repo Repository, views ViewInvalidator, logger ...*zap.Logger) Service {
	s := NewService(db, repo, logger...).(*service)
	s.views = views
	return s
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("create leave requested",
		zap.String("user_id", userID.String()),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateFormat
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateFormat
	}
	if startDate.After(endDate) {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	overlap, err := qtx.HasOverlappingPeriod(ctx, userID, startDate, endDate, nil)
	if err != nil {
		s.logger.Error("create leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		s.logger.Warn("create leave overlap detected",
			zap.String("user_id", userID.String()),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	totalDays := int(endDate.Sub(startDate).Hours()/24) + 1
	l := &LeaveRequest{
		ID:        uuid.New(),
		UserID:    userID,
		LeaveType: req.LeaveType,
		StartDate: startDate,
		EndDate:   endDate,
		TotalDays: totalDays,
		Reason:    req.Reason,
		Status:    StatusPending,
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return mapToResponse(*l), nil
}

func (s *service) GetAll(ctx context.Context, userID uuid.UUID) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		res[i] = mapToResponse(l)
	}
	return res, nil
}

func (s *service) Approve(ctx context.Context, actorID, id uuid.UUID) (LeaveResponse, error) {
	return s.transition(ctx, id, StatusApproved, func(l *LeaveRequest) {
		now := time.Now().UTC()
		l.ApprovedBy = &actorID
		l.ApprovedAt = &now
	})
}

func (s *service) Reject(ctx context.Context, actorID, id uuid.UUID, rejectionReason string) (LeaveResponse, error) {
	return s.transition(ctx, id, StatusRejected, func(l *LeaveRequest) {
		l.ApprovedBy = &actorID
		l.RejectionReason = &rejectionReason
	})
}

func (s *service) Cancel(ctx context.Context, userID, id uuid.UUID) (LeaveResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	// Requests of other users are indistinguishable from missing ones.
	if l.UserID != userID {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}
	return s.transition(ctx, id, StatusCanceled, nil)
}

// Only pending requests may change state; approvals and rejections are
// final.
func (s *service) transition(ctx context.Context, id uuid.UUID, target string, mutate func(*LeaveRequest)) (LeaveResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("leave transition begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		s.logger.Error("leave transition lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	l.Status = target
	if mutate != nil {
		mutate(l)
	}
	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("leave transition persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("leave transition commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("leave status changed",
		zap.String("leave_id", l.ID.String()),
		zap.String("status", target),
	)

	// Approval starts projecting virtual leave entries into the cached
	// week views; drop them so the change is visible immediately.
	if target == StatusApproved && s.views != nil {
		s.views.InvalidateViewRange(ctx, l.UserID, l.StartDate, l.EndDate)
	}
	return mapToResponse(*l), nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:              l.ID.String(),
		UserID:          l.UserID.String(),
		LeaveType:       l.LeaveType,
		StartDate:       l.StartDate.Format(dateLayout),
		EndDate:         l.EndDate.Format(dateLayout),
		TotalDays:       l.TotalDays,
		Reason:          l.Reason,
		Status:          l.Status,
		RejectionReason: l.RejectionReason,
	}
	if l.ApprovedBy != nil {
		v := l.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	return resp
}
