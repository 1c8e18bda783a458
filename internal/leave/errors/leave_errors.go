package leaveerrors

import (
	"fmt"
	"net/http"

	"leavedesk/internal/shared/apperror"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrAlreadyProcessed = apperror.New(
		apperror.CodeAlreadyProcessed,
		"leave request was already processed",
		http.StatusConflict,
	)
	ErrReplacementPending = apperror.New(
		apperror.CodeInvalidState,
		"replacement approval is still pending",
		http.StatusConflict,
	)
	ErrStartInPast = apperror.New(
		apperror.CodeInvalidInput,
		"start date must not be in the past",
		http.StatusBadRequest,
	)
	ErrEndBeforeStart = apperror.New(
		apperror.CodeInvalidInput,
		"end date must not be before start date",
		http.StatusBadRequest,
	)
	ErrEndTimeNotAfterStart = apperror.New(
		apperror.CodeInvalidInput,
		"end time must be after start time",
		http.StatusBadRequest,
	)
	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"date must be in YYYY-MM-DD format",
		http.StatusBadRequest,
	)
	ErrInvalidTime = apperror.New(
		apperror.CodeInvalidInput,
		"time must be in HH:MM format",
		http.StatusBadRequest,
	)
	ErrInvalidKind = apperror.New(
		apperror.CodeInvalidInput,
		"leave kind must be daily or hourly",
		http.StatusBadRequest,
	)
)

// InsufficientBalance reports the required versus available quantity so the
// front-end can show both, per the approve contract.
func InsufficientBalance(required, available decimal.Decimal, unit string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInsufficientBalance,
		fmt.Sprintf("insufficient balance: %s %s required, %s available", required.String(), unit, available.String()),
		http.StatusUnprocessableEntity,
	)
}
