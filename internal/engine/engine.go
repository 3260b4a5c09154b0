// =============================================================================
// Tariff Reconciler - Reconciliation Engine
// =============================================================================
//
// This module contains the core reconciliation logic. It orchestrates one
// run, from reading both datasets to the assembled result.
//
// RECONCILIATION PIPELINE:
//   1. Index the reference dataset (progress 0-30%)
//   2. Stream the governing dataset into its own index (progress 30-100%)
//   3. Walk the keys, compare fields and assemble the report
//
// KEY ORDER:
//   - composite modes: governing keys in first-seen order
//   - direct modes: governing keys in first-seen order, then the keys found
//     only in the reference dataset, in reference order
//
// The engine has no side effects beyond logging. Persisting the result and
// guarding against concurrent runs are the caller's concern.
//
// =============================================================================

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/internal/csvparser"
	"github.com/ginjaninja78/tariff-reconciler/internal/keys"
	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// =============================================================================
// REQUEST STRUCTURE
// =============================================================================

// Input is one dataset of a run.
type Input struct {
	// Name is the file name shown in logs and history.
	Name string

	// Reader supplies the raw bytes.
	Reader io.Reader

	// Size is the byte size used for progress. 0 means unknown.
	Size int64
}

// ProgressFunc receives the overall run progress as 0-100.
type ProgressFunc func(percent int)

// Request describes a single run.
type Request struct {
	Profile   *config.ModeProfile
	Reference Input
	Governing Input

	// Progress is called whenever the overall percentage advances. May be nil.
	Progress ProgressFunc
}

// Progress phase boundaries.
const (
	referencePhaseEnd = 30
	governingPhaseEnd = 100
)

// =============================================================================
// ENGINE STRUCTURE
// =============================================================================

// Engine runs reconciliations.
type Engine struct {
	chunkSize int
	logger    Logger
}

// Logger is an interface for logging.
// The logging package provides an implementation backed by zerolog.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunkSize sets the reader window size in bytes.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine. Without options it reads 5 MiB windows and does
// not log.
func New(opts ...Option) *Engine {
	e := &Engine{
		chunkSize: config.DefaultChunkSize,
		logger:    nopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes a reconciliation.
//
// PARAMETERS:
//   - ctx: Cancels the run at the next window boundary.
//   - req: The profile, both datasets and an optional progress callback.
//
// RETURNS:
//   - The assembled result.
//   - An error wrapping one of the types sentinels (ErrMissingColumn,
//     ErrEmptyReference, ErrDuplicateKey), a read error, or ctx.Err().
//     No partial result is returned on error.
func (e *Engine) Run(ctx context.Context, req Request) (*report.Result, error) {
	if req.Profile == nil {
		return nil, errors.New("reconciliation request has no profile")
	}
	if req.Reference.Reader == nil || req.Governing.Reader == nil {
		return nil, errors.New("reconciliation request needs both datasets")
	}

	startTime := time.Now()
	progress := &tracker{fn: req.Progress, last: -1}
	progress.report(0)

	e.logger.Info("Reconciling %s: reference=%s governing=%s",
		req.Profile.Name, req.Reference.Name, req.Governing.Name)

	// =========================================================================
	// STEP 1: INDEX REFERENCE DATASET
	// =========================================================================

	reference, err := e.BuildIndex(ctx, req.Profile, req.Reference, types.SideReference,
		progress.phase(0, referencePhaseEnd))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Indexed %d reference keys (%d duplicates, %d rows without key)",
		reference.Len(), reference.Duplicates, reference.Skipped)

	// =========================================================================
	// STEP 2: INDEX GOVERNING DATASET
	// =========================================================================

	governing, err := e.BuildIndex(ctx, req.Profile, req.Governing, types.SideGoverning,
		progress.phase(referencePhaseEnd, governingPhaseEnd))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Indexed %d governing keys (%d duplicates, %d rows without key)",
		governing.Len(), governing.Duplicates, governing.Skipped)

	// =========================================================================
	// STEP 3: RECONCILE
	// =========================================================================

	result := Reconcile(req.Profile, reference, governing)
	progress.report(100)

	e.logger.Info("Reconciled %d keys in %s: %d match, %d mismatch, %d missing",
		result.TotalRows, time.Since(startTime).Round(time.Millisecond),
		result.Matches, result.Mismatches, result.Missing)

	return result, nil
}

// BuildIndex reads one dataset into a keyed index.
//
// PARAMETERS:
//   - ctx: Checked at every window boundary.
//   - profile: The mode profile.
//   - in: The dataset.
//   - side: Which dataset in holds.
//   - progress: Receives raw byte progress. May be nil.
func (e *Engine) BuildIndex(ctx context.Context, profile *config.ModeProfile, in Input, side types.Side, progress csvparser.ProgressFunc) (*keys.Index, error) {
	rd, err := csvparser.Open(ctx, in.Reader, csvparser.Options{
		WindowSize: e.chunkSize,
		Encoding:   profile.CSVSettings.Encoding,
		Delimiter:  profile.CSVSettings.Delimiter,
		Size:       in.Size,
		Progress:   progress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file %s: %w", side, in.Name, err)
	}
	defer rd.Close()

	e.logger.Debug("Reading %s file %s (encoding %s, delimiter %q)",
		side, in.Name, rd.Encoding(), string(rd.Delimiter()))

	builder := keys.NewBuilder(profile)
	if profile.Mode.Composite() && side == types.SideGoverning {
		e.logger.Debug("Service family table holds %d services", builder.Families().Len())
	}

	ix, err := builder.BuildIndex(rd, side)
	if err != nil {
		return nil, fmt.Errorf("failed to index %s file %s: %w", side, in.Name, err)
	}

	e.logger.Debug("Read %d lines from %s file %s", rd.LineNumber(), side, in.Name)

	if ix.Duplicates > 0 {
		e.logger.Warn("%s file %s repeats %d keys; the last row of each key is used",
			side, in.Name, ix.Duplicates)
	}
	if ix.Skipped > 0 {
		e.logger.Debug("%s file %s has %d rows without key", side, in.Name, ix.Skipped)
	}

	return ix, nil
}

// =============================================================================
// PROGRESS
// =============================================================================

// tracker maps per-file byte progress onto the overall percentage and only
// reports increases.
type tracker struct {
	fn   ProgressFunc
	last int
}

func (t *tracker) report(percent int) {
	if t.fn == nil || percent <= t.last {
		return
	}
	t.last = percent
	t.fn(percent)
}

func (t *tracker) phase(from, to int) csvparser.ProgressFunc {
	return func(consumed, total int64) {
		t.report(from + csvparser.Percent(consumed, total)*(to-from)/100)
	}
}

// nopLogger discards all messages.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
