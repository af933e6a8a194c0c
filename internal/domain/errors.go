package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors; the typed errors below match them via errors.Is.
var (
	ErrMissingInput        = errors.New("missing input")
	ErrParse               = errors.New("parse error")
	ErrInsufficientData    = errors.New("insufficient data")
	ErrInsufficientHistory = errors.New("insufficient history")
)

// MissingInputError means a required file, table or artifact is absent.
type MissingInputError struct {
	Resource string
	Hint     string
	Err      error
}

func (e *MissingInputError) Error() string {
	msg := fmt.Sprintf("missing input: %s", e.Resource)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingInputError) Is(target error) bool { return target == ErrMissingInput }
func (e *MissingInputError) Unwrap() error        { return e.Err }

// ParseError reports a malformed field. Row is 1-based; 0 means not row-specific.
type ParseError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	where := e.Field
	if e.Row > 0 {
		where = fmt.Sprintf("row %d, %s", e.Row, e.Field)
	}
	msg := fmt.Sprintf("parse error at %s: %q", where, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }
func (e *ParseError) Unwrap() error        { return e.Err }

// InsufficientDataError means too few samples to fit a model or a scaler.
type InsufficientDataError struct {
	What string
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: have %d, need at least %d", e.What, e.Have, e.Need)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// InsufficientHistoryError means the forecaster lacks enough contiguous months.
type InsufficientHistoryError struct {
	Have   int
	Need   int
	Reason string
}

func (e *InsufficientHistoryError) Error() string {
	msg := fmt.Sprintf("insufficient history: have %d contiguous months, need at least %d", e.Have, e.Need)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *InsufficientHistoryError) Is(target error) bool { return target == ErrInsufficientHistory }

// HTTPStatus maps the error taxonomy onto response codes.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, ErrMissingInput):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientData), errors.Is(err, ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
