package employeeerrors

import (
	"net/http"

	"leavedesk/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrChatIDExists = apperror.New(
		apperror.CodeConflict,
		"an employee with this chat id already exists",
		http.StatusConflict,
	)
	ErrAlreadyProcessed = apperror.New(
		apperror.CodeAlreadyProcessed,
		"employee registration was already processed",
		http.StatusConflict,
	)
	ErrNameRequired = apperror.New(
		apperror.CodeInvalidInput,
		"full name is required",
		http.StatusBadRequest,
	)
)
