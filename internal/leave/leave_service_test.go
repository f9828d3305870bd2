package leave

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	leaveerrors "go-timesheet/internal/leave/errors"
)

type fakeRepo struct {
	leaves map[uuid.UUID]*LeaveRequest
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leaves: make(map[uuid.UUID]*LeaveRequest)}
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, l *LeaveRequest) error {
	cp := *l
	f.leaves[l.ID] = &cp
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, l *LeaveRequest) error {
	cp := *l
	f.leaves[l.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	l, ok := f.leaves[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeRepo) FindAllByUser(ctx context.Context, userID uuid.UUID) ([]LeaveRequest, error) {
	var out []LeaveRequest
	for _, l := range f.leaves {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindApprovedOverlapping(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]LeaveRequest, error) {
	var out []LeaveRequest
	for _, l := range f.leaves {
		if l.UserID != userID || l.Status != StatusApproved {
			continue
		}
		if l.EndDate.Before(from) || l.StartDate.After(to) {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeRepo) HasOverlappingPeriod(ctx context.Context, userID uuid.UUID, startDate, endDate time.Time, excludeID *uuid.UUID) (bool, error) {
	for _, l := range f.leaves {
		if l.UserID != userID || l.Status == StatusRejected || l.Status == StatusCanceled {
			continue
		}
		if excludeID != nil && l.ID == *excludeID {
			continue
		}
		if !l.EndDate.Before(startDate) && !l.StartDate.After(endDate) {
			return true, nil
		}
	}
	return false, nil
}

func TestService_CreateAndApprove(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeRepo()
	svc := NewService(db, repo)
	userID := uuid.New()
	actorID := uuid.New()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	created, err := svc.Create(ctx, userID, CreateLeaveRequest{
		LeaveType: "ANNUAL",
		StartDate: "2025-11-05",
		EndDate:   "2025-11-06",
		Reason:    "vacation",
	})
	assert.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, 2, created.TotalDays)

	mock.ExpectBegin()
	mock.ExpectCommit()
	approved, err := svc.Approve(ctx, actorID, uuid.MustParse(created.ID))
	assert.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	if assert.NotNil(t, approved.ApprovedBy) {
		assert.Equal(t, actorID.String(), *approved.ApprovedBy)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Create_RejectsOverlap(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeRepo()
	svc := NewService(db, repo)
	userID := uuid.New()

	existing := &LeaveRequest{
		ID: uuid.New(), UserID: userID, Status: StatusPending,
		StartDate: time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC),
	}
	repo.leaves[existing.ID] = existing

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Create(context.Background(), userID, CreateLeaveRequest{
		LeaveType: "SICK",
		StartDate: "2025-11-06",
		EndDate:   "2025-11-08",
	})
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
}

func TestService_Create_InvalidDates(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	svc := NewService(db, newFakeRepo())
	userID := uuid.New()

	_, err := svc.Create(context.Background(), userID, CreateLeaveRequest{
		LeaveType: "ANNUAL", StartDate: "05-11-2025", EndDate: "2025-11-06",
	})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)

	_, err = svc.Create(context.Background(), userID, CreateLeaveRequest{
		LeaveType: "ANNUAL", StartDate: "2025-11-07", EndDate: "2025-11-06",
	})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
}

func TestService_Transition_OnlyFromPending(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeRepo()
	svc := NewService(db, repo)

	approved := &LeaveRequest{ID: uuid.New(), UserID: uuid.New(), Status: StatusApproved}
	repo.leaves[approved.ID] = approved

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Reject(context.Background(), uuid.New(), approved.ID, "late")
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
}

func TestService_Cancel_OwnerOnly(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeRepo()
	svc := NewService(db, repo)

	owner := uuid.New()
	pending := &LeaveRequest{ID: uuid.New(), UserID: owner, Status: StatusPending}
	repo.leaves[pending.ID] = pending

	_, err := svc.Cancel(context.Background(), uuid.New(), pending.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	assert.Equal(t, StatusPending, repo.leaves[pending.ID].Status, "foreign cancel must not mutate the request")
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := svc.Cancel(context.Background(), owner, pending.ID)
	assert.NoError(t, err)
	assert.Equal(t, StatusCanceled, resp.Status)
}

type fakeViews struct {
	invalidated []string
}

func (f *fakeViews) InvalidateViewRange(ctx context.Context, userID uuid.UUID, from, to time.Time) {
	f.invalidated = append(f.invalidated,
		userID.String()+"|"+from.Format(dateLayout)+"|"+to.Format(dateLayout))
}

func TestService_ApproveDropsCachedViews(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeRepo()
	views := &fakeViews{}
	svc := NewServiceWithViews(db, repo, views)

	userID := uuid.New()
	pending := &LeaveRequest{
		ID: uuid.New(), UserID: userID, Status: StatusPending,
		StartDate: time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC),
	}
	repo.leaves[pending.ID] = pending

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Approve(context.Background(), uuid.New(), pending.ID)
	assert.NoError(t, err)

	if assert.Len(t, views.invalidated, 1) {
		assert.Equal(t, userID.String()+"|2025-11-06|2025-11-07", views.invalidated[0])
	}
}

func TestService_CancelPendingLeavesViewsAlone(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeRepo()
	views := &fakeViews{}
	svc := NewServiceWithViews(db, repo, views)

	userID := uuid.New()
	pending := &LeaveRequest{
		ID: uuid.New(), UserID: userID, Status: StatusPending,
		StartDate: time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC),
	}
	repo.leaves[pending.ID] = pending

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Cancel(context.Background(), userID, pending.ID)
	assert.NoError(t, err)

	// A pending request never projected into any view, so nothing to drop.
	assert.Empty(t, views.invalidated)
}
