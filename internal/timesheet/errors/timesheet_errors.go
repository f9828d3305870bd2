package timesheeterrors

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
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDay = apperror.New(
		apperror.CodeInvalidInput,
		"invalid day, expected mon..sun",
		http.StatusBadRequest,
	)
	ErrTimesheetNotFound = apperror.New(
		apperror.CodeNotFound,
		"timesheet not found",
		http.StatusNotFound,
	)
	ErrEntryNotFound = apperror.New(
		apperror.CodeNotFound,
		"timesheet entry not found",
		http.StatusNotFound,
	)
	ErrEntryNotOwned = apperror.New(
		apperror.CodeForbidden,
		"timesheet entry belongs to another user",
		http.StatusForbidden,
	)
	ErrEntryNotEditable = apperror.New(
		apperror.CodeInvalidState,
		"only manual entries can be edited",
		http.StatusBadRequest,
	)
)
