package clockerrors

import (
	"net/http"

	"go-timesheet/internal/shared/apperror"
)

var (
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrAlreadyClockedIn = apperror.New(
		apperror.CodeConflict,
		"an active clock session already exists",
		http.StatusConflict,
	)
	ErrNoActiveSession = apperror.New(
		apperror.CodeNotFound,
		"no active clock session",
		http.StatusNotFound,
	)
	ErrSessionNotFound = apperror.New(
		apperror.CodeNotFound,
		"clock session not found",
		http.StatusNotFound,
	)
	ErrNotPaused = apperror.New(
		apperror.CodeInvalidState,
		"clock session is not paused",
		http.StatusBadRequest,
	)
)
