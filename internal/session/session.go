// Package session holds the state shared by everything that drives runs:
// the busy flag, the latest progress value and the current result.
package session

import (
	"sync/atomic"

	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// Session allows one run at a time and publishes its result.
type Session struct {
	busy     atomic.Bool
	progress atomic.Int32
	current  atomic.Pointer[report.Result]
}

// New creates an idle Session without a result.
func New() *Session {
	return &Session{}
}

// TryBegin marks the session busy. It returns types.ErrBusy when a run is
// already in flight. A successful TryBegin clears the current result and
// must be paired with End.
func (s *Session) TryBegin() error {
	if !s.busy.CompareAndSwap(false, true) {
		return types.ErrBusy
	}
	s.progress.Store(0)
	s.current.Store(nil)
	return nil
}

// End clears the busy flag. result is installed as the current result when
// non-nil; a failed run passes nil and leaves no result behind.
func (s *Session) End(result *report.Result) {
	if result != nil {
		s.current.Store(result)
		s.progress.Store(100)
	}
	s.busy.Store(false)
}

// Busy reports whether a run is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// SetProgress records the progress of the running reconciliation.
func (s *Session) SetProgress(percent int) {
	s.progress.Store(int32(percent))
}

// Progress returns the last recorded progress.
func (s *Session) Progress() int {
	return int(s.progress.Load())
}

// Current returns the current result, or nil.
func (s *Session) Current() *report.Result {
	return s.current.Load()
}

// TryRestore installs result as the current result. It returns
// types.ErrBusy, leaving the current result untouched, while a run is in
// flight.
func (s *Session) TryRestore(result *report.Result) error {
	if !s.busy.CompareAndSwap(false, true) {
		return types.ErrBusy
	}
	s.current.Store(result)
	s.busy.Store(false)
	return nil
}
