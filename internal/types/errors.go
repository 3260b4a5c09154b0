package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn aborts a run when a required header is absent.
	ErrMissingColumn = errors.New("required column missing")

	// ErrEmptyReference aborts a run when the reference dataset has no keyed rows.
	ErrEmptyReference = errors.New("reference dataset has no usable rows")

	// ErrDuplicateKey is returned when duplicate reference keys are configured to fail.
	ErrDuplicateKey = errors.New("duplicate key in reference dataset")

	// ErrBusy is returned when a run is started while another is in flight.
	ErrBusy = errors.New("a reconciliation run is already in progress")

	ErrUnknownMode  = errors.New("unknown reconciliation mode")
	ErrNotFound     = errors.New("not found")
	ErrNotConfirmed = errors.New("operation requires confirmation")
)

// MissingColumnError names the column that could not be resolved in a header.
type MissingColumnError struct {
	Mode   Mode
	Side   Side
	Column string

	// Expected describes the header tests that were tried, e.g.
	// "SYSCODE (normalized)".
	Expected []string

	Header []string
}

func (e *MissingColumnError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("%s mode: column %q not found in %s header [%s]",
			e.Mode, e.Column, e.Side, strings.Join(e.Header, ", "))
	}
	return fmt.Sprintf("%s mode: %s header has no %s column (expected %s) in [%s]",
		e.Mode, e.Side, e.Column, strings.Join(e.Expected, " or "), strings.Join(e.Header, ", "))
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}
