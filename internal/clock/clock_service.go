package clock

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	clockerrors "go-timesheet/internal/clock/errors"
	"go-timesheet/internal/events"
	"go-timesheet/internal/messaging/kafka"
	"go-timesheet/internal/shared/contextutil"
	"go-timesheet/internal/timesheet"
	"go-timesheet/internal/week"
)

// Recorder is the slice of the timesheet service the clock module needs:
// the identity-resolve + merge sequence for one contribution.
type Recorder interface {
	RecordContribution(ctx context.Context, userID uuid.UUID, at time.Time, c timesheet.Contribution) error
}

//go:generate mockgen -source=clock_service.go -destination=mock/clock_service_mock.go -package=mock
type Service interface {
	ClockIn(ctx context.Context, userID uuid.UUID, req ClockInRequest) (ClockSessionResponse, error)
	ClockOut(ctx context.Context, userID uuid.UUID) (ClockSessionResponse, error)
	Pause(ctx context.Context, userID uuid.UUID) (ClockSessionResponse, error)
	Resume(ctx context.Context, userID uuid.UUID) (ClockSessionResponse, error)
	GetAll(ctx context.Context, userID uuid.UUID) ([]ClockSessionResponse, error)

	// ApplyClosedSession merges one closed session into its week's
	// timesheet and marks it reconciled. It is a no-op for ineligible or
	// already-reconciled sessions, so the consumer and the backfill batch
	// can both call it without double-counting.
	ApplyClosedSession(ctx context.Context, sessionID uuid.UUID) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	recorder Recorder
	loc      *time.Location
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, recorder Recorder, loc *time.Location, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, recorder, loc, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	recorder Recorder,
	loc *time.Location,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("clock.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("clock.service")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{db: db, repo: repo, recorder: recorder, loc: loc, outbox: outbox, logger: l}
}

func (s *service) ClockIn(ctx context.Context, userID uuid.UUID, req ClockInRequest) (ClockSessionResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock in begin tx failed", zap.Error(err))
		return ClockSessionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	_, err = qtx.FindActiveByUser(ctx, userID)
	if err == nil {
		return ClockSessionResponse{}, clockerrors.ErrAlreadyClockedIn
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("clock in active lookup failed", zap.Error(err))
		return ClockSessionResponse{}, err
	}

	row := &ClockSession{
		ID:           uuid.New(),
		UserID:       userID,
		ClockIn:      time.Now().UTC(),
		ProjectName:  req.ProjectName,
		IssueID:      req.IssueID,
		IssueTitle:   req.IssueTitle,
		IssueProject: req.IssueProject,
		Status:       StatusClockedIn,
		Notes:        req.Notes,
	}
	if err := qtx.Create(ctx, row); err != nil {
		s.logger.Error("clock in persist failed", zap.Error(err))
		return ClockSessionResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("clock in commit failed", zap.Error(err))
		return ClockSessionResponse{}, err
	}

	s.logger.Info("clock in",
		zap.String("session_id", row.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return mapToResponse(row), nil
}

// ClockOut closes the active session and records the closed-session event in
// the outbox. The timesheet merge is a downstream side effect: a failure to
// merge never blocks the clock-out itself, and the backfill batch repairs
// any gap.
func (s *service) ClockOut(ctx context.Context, userID uuid.UUID) (ClockSessionResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock out begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return ClockSessionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	row, err := qtx.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClockSessionResponse{}, clockerrors.ErrNoActiveSession
		}
		s.logger.Error("clock out active lookup failed", zap.Error(err))
		return ClockSessionResponse{}, err
	}

	now := time.Now().UTC()
	total := timesheet.RoundHours(now.Sub(row.ClockIn).Hours())
	row.ClockOut = &now
	row.TotalHours = &total
	row.Status = StatusClockedOut

	if err := qtx.Update(ctx, row); err != nil {
		s.logger.Error("clock out persist failed", zap.Error(err))
		return ClockSessionResponse{}, err
	}

	if s.outbox != nil {
		event := events.ClockSessionClosedEvent{
			EventType:  "clock_session_closed",
			RequestID:  rid,
			SessionID:  row.ID.String(),
			UserID:     userID.String(),
			ClockOut:   now,
			TotalHours: total,
			OccurredAt: now,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("marshal clock_session_closed failed", zap.String("request_id", rid), zap.Error(err))
			return ClockSessionResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "clock_session",
			AggregateID:   row.ID.String(),
			EventType:     event.EventType,
			Topic:         events.ClockSessionClosedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("queue clock_session_closed outbox failed", zap.String("request_id", rid), zap.Error(err))
			return ClockSessionResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("clock out commit failed", zap.String("request_id", rid), zap.Error(err))
		return ClockSessionResponse{}, err
	}

	s.logger.Info("clock out",
		zap.String("request_id", rid),
		zap.String("session_id", row.ID.String()),
		zap.Float64("total_hours", total),
	)
	return mapToResponse(row), nil
}

func (s *service) Pause(ctx context.Context, userID uuid.UUID) (ClockSessionResponse, error) {
	return s.setActiveStatus(ctx, userID, StatusClockedIn, StatusPaused)
}

func (s *service) Resume(ctx context.Context, userID uuid.UUID) (ClockSessionResponse, error) {
	return s.setActiveStatus(ctx, userID, StatusPaused, StatusClockedIn)
}

func (s *service) setActiveStatus(ctx context.Context, userID uuid.UUID, from, to string) (ClockSessionResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ClockSessionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	row, err := qtx.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClockSessionResponse{}, clockerrors.ErrNoActiveSession
		}
		return ClockSessionResponse{}, err
	}
	if row.Status != from {
		return ClockSessionResponse{}, clockerrors.ErrNotPaused
	}

	row.Status = to
	if err := qtx.Update(ctx, row); err != nil {
		return ClockSessionResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return ClockSessionResponse{}, err
	}
	return mapToResponse(row), nil
}

func (s *service) GetAll(ctx context.Context, userID uuid.UUID) ([]ClockSessionResponse, error) {
	rows, err := s.repo.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := make([]ClockSessionResponse, len(rows))
	for i := range rows {
		res[i] = mapToResponse(&rows[i])
	}
	return res, nil
}

func (s *service) ApplyClosedSession(ctx context.Context, sessionID uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return clockerrors.ErrSessionNotFound
		}
		s.logger.Error("find session failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		return err
	}

	if !row.Eligible() {
		s.logger.Debug("session not eligible for reconciliation",
			zap.String("session_id", row.ID.String()),
			zap.String("status", row.Status),
		)
		return nil
	}
	if row.ReconciledAt != nil {
		return nil
	}

	c := timesheet.Contribution{
		Project: row.EntryProject(),
		Task:    row.EntryTask(),
		Source:  timesheet.SourceTimeClock,
		Day:     week.DayOf(*row.ClockOut, s.loc),
		Hours:   *row.TotalHours,
	}
	if err := s.recorder.RecordContribution(ctx, row.UserID, *row.ClockOut, c); err != nil {
		s.logger.Error("merge closed session failed",
			zap.String("session_id", row.ID.String()),
			zap.Error(err),
		)
		return err
	}

	if err := s.repo.MarkReconciled(ctx, row.ID, time.Now().UTC()); err != nil {
		s.logger.Error("mark session reconciled failed",
			zap.String("session_id", row.ID.String()),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("session reconciled into timesheet",
		zap.String("session_id", row.ID.String()),
		zap.String("user_id", row.UserID.String()),
		zap.Float64("hours", *row.TotalHours),
	)
	return nil
}

func mapToResponse(s *ClockSession) ClockSessionResponse {
	resp := ClockSessionResponse{
		ID:           s.ID.String(),
		UserID:       s.UserID.String(),
		ClockIn:      s.ClockIn.Format(time.RFC3339),
		TotalHours:   s.TotalHours,
		ProjectName:  s.ProjectName,
		IssueID:      s.IssueID,
		IssueTitle:   s.IssueTitle,
		IssueProject: s.IssueProject,
		Status:       s.Status,
		Reconciled:   s.ReconciledAt != nil,
		Notes:        s.Notes,
	}
	if s.ClockOut != nil {
		v := s.ClockOut.Format(time.RFC3339)
		resp.ClockOut = &v
	}
	return resp
}
