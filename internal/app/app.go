// =============================================================================
// Tariff Reconciler - Application Service
// =============================================================================
//
// This module wires the reconciliation engine to everything around a run.
// The CLI and the HTTP server both drive runs through a Service.
//
// RUN PIPELINE:
//   1. Resolve the mode profile
//   2. Claim the session (one run at a time)
//   3. Run the engine
//   4. Publish the result as the current result
//   5. Record the run in history
//   6. Archive the inputs (optional)
//
// A failed run releases the session, publishes nothing and records nothing.
//
// =============================================================================

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/internal/engine"
	"github.com/ginjaninja78/tariff-reconciler/internal/export"
	"github.com/ginjaninja78/tariff-reconciler/internal/history"
	"github.com/ginjaninja78/tariff-reconciler/internal/logging"
	"github.com/ginjaninja78/tariff-reconciler/internal/metrics"
	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/session"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
	"github.com/ginjaninja78/tariff-reconciler/pkg/utils"
)

// =============================================================================
// REQUEST AND RESULT STRUCTURES
// =============================================================================

// RunRequest describes one run.
type RunRequest struct {
	Mode types.Mode

	Reference engine.Input
	Governing engine.Input

	// ReferencePath and GoverningPath are the files behind the inputs. They
	// are only needed for archival and may be empty.
	ReferencePath string
	GoverningPath string

	// SkipHistory leaves the run out of history.
	SkipHistory bool

	// Progress receives the overall percentage. May be nil.
	Progress engine.ProgressFunc
}

// RunResult is the outcome of a successful run.
type RunResult struct {
	Mode          types.Mode
	ReferenceName string
	GoverningName string

	Result *report.Result

	// Entry is the history entry, nil when history was skipped or failed.
	Entry *history.Entry

	// HistoryError is set when the run succeeded but recording it failed.
	HistoryError error

	// Archived lists the archived input copies.
	Archived []string

	Started time.Time
	Elapsed time.Duration
}

// =============================================================================
// SERVICE STRUCTURE
// =============================================================================

// Service runs reconciliations and manages their results.
type Service struct {
	cfg      *config.MainConfig
	profiles map[types.Mode]*config.ModeProfile
	engine   *engine.Engine
	session  *session.Session
	store    history.Store
	recorder *history.Recorder
	metrics  *metrics.Metrics
	files    *utils.FileManager
	log      zerolog.Logger
}

// New creates a Service.
//
// PARAMETERS:
//   - cfg: The main configuration.
//   - profiles: The mode profiles (see config.LoadProfiles).
//   - store: The history store. The Service closes it in Close.
//   - m: The metrics set. May be nil.
//   - logger: The logger.
func New(cfg *config.MainConfig, profiles map[types.Mode]*config.ModeProfile, store history.Store, m *metrics.Metrics, logger zerolog.Logger) *Service {
	if m == nil {
		m = metrics.New()
	}

	sess := session.New()
	return &Service{
		cfg:      cfg,
		profiles: profiles,
		engine: engine.New(
			engine.WithChunkSize(cfg.ChunkSize),
			engine.WithLogger(logging.Printf(logger.With().Str("component", "engine").Logger())),
		),
		session:  sess,
		store:    store,
		recorder: history.NewRecorder(store, sess),
		metrics:  m,
		files:    utils.NewFileManager(cfg.OutputDir, cfg.ArchiveDir),
		log:      logger,
	}
}

// Close releases the history store.
func (s *Service) Close() error {
	return s.store.Close()
}

// Config returns the main configuration.
func (s *Service) Config() *config.MainConfig {
	return s.cfg
}

// Session returns the shared session.
func (s *Service) Session() *session.Session {
	return s.session
}

// Metrics returns the metrics set.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// History returns the history recorder.
func (s *Service) History() *history.Recorder {
	return s.recorder
}

// Profile returns the profile of mode.
func (s *Service) Profile(mode types.Mode) (*config.ModeProfile, error) {
	p, ok := s.profiles[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownMode, mode)
	}
	return p, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Reconcile executes one run.
//
// RETURNS:
//   - The run result.
//   - types.ErrUnknownMode, types.ErrBusy, or the engine error.
func (s *Service) Reconcile(ctx context.Context, req RunRequest) (*RunResult, error) {
	profile, err := s.Profile(req.Mode)
	if err != nil {
		return nil, err
	}

	if err := s.session.TryBegin(); err != nil {
		s.metrics.ObserveRun(req.Mode, metrics.OutcomeRejected, 0, nil)
		return nil, err
	}

	s.metrics.RunsInFlight.Inc()
	defer s.metrics.RunsInFlight.Dec()

	log := s.log.With().Str("mode", string(req.Mode)).Logger()
	log.Info().
		Str("reference", req.Reference.Name).
		Str("governing", req.Governing.Name).
		Msg("Reconciliation started")

	startTime := time.Now()

	// =========================================================================
	// STEP 1: RUN THE ENGINE
	// =========================================================================

	result, err := s.engine.Run(ctx, engine.Request{
		Profile:   profile,
		Reference: req.Reference,
		Governing: req.Governing,
		Progress: func(percent int) {
			s.session.SetProgress(percent)
			if req.Progress != nil {
				req.Progress(percent)
			}
		},
	})
	elapsed := time.Since(startTime)

	if err == nil {
		err = result.Check()
	}
	if err != nil {
		s.session.End(nil)
		s.metrics.ObserveRun(req.Mode, metrics.OutcomeFailed, elapsed, nil)
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("Reconciliation failed")
		return nil, err
	}

	// =========================================================================
	// STEP 2: PUBLISH
	// =========================================================================

	s.session.End(result)
	s.metrics.ObserveRun(req.Mode, metrics.OutcomeSuccess, elapsed, result)

	out := &RunResult{
		Mode:          req.Mode,
		ReferenceName: req.Reference.Name,
		GoverningName: req.Governing.Name,
		Result:        result,
		Started:       startTime,
		Elapsed:       elapsed,
	}

	log.Info().
		Int("total", result.TotalRows).
		Int("matches", result.Matches).
		Int("mismatches", result.Mismatches).
		Int("missing", result.Missing).
		Dur("elapsed", elapsed).
		Msg("Reconciliation finished")

	// =========================================================================
	// STEP 3: RECORD HISTORY
	// =========================================================================

	if !req.SkipHistory {
		entry, err := s.recorder.Record(ctx, req.Reference.Name, req.Governing.Name, req.Mode, result)
		if err != nil {
			s.metrics.HistoryErrors.Inc()
			out.HistoryError = err
			log.Warn().Err(err).Msg("Run not recorded in history")
		} else {
			s.metrics.HistoryEntries.Inc()
			out.Entry = &entry
			log.Debug().Str("id", entry.ID).Msg("Run recorded in history")
		}
	}

	// =========================================================================
	// STEP 4: ARCHIVE INPUTS
	// =========================================================================

	if s.cfg.ArchiveInputs {
		for _, path := range []string{req.ReferencePath, req.GoverningPath} {
			if path == "" {
				continue
			}
			archived, err := s.files.ArchiveInputFile(path)
			if err != nil {
				log.Warn().Err(err).Str("file", path).Msg("Failed to archive input")
				continue
			}
			out.Archived = append(out.Archived, archived)
		}
	}

	return out, nil
}

// ReconcileFiles opens both files and runs Reconcile on them.
func (s *Service) ReconcileFiles(ctx context.Context, mode types.Mode, referencePath, governingPath string, skipHistory bool, progress engine.ProgressFunc) (*RunResult, error) {
	refFile, reference, err := openInput(referencePath)
	if err != nil {
		return nil, err
	}
	defer refFile.Close()

	govFile, governing, err := openInput(governingPath)
	if err != nil {
		return nil, err
	}
	defer govFile.Close()

	return s.Reconcile(ctx, RunRequest{
		Mode:          mode,
		Reference:     reference,
		Governing:     governing,
		ReferencePath: referencePath,
		GoverningPath: governingPath,
		SkipHistory:   skipHistory,
		Progress:      progress,
	})
}

func openInput(path string) (*os.File, engine.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, engine.Input{}, fmt.Errorf("failed to open input file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, engine.Input{}, fmt.Errorf("failed to stat input file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, engine.Input{}, fmt.Errorf("input %s is a directory", path)
	}

	return f, engine.Input{Name: info.Name(), Reader: f, Size: info.Size()}, nil
}

// =============================================================================
// RESULTS AND HISTORY
// =============================================================================

// Current returns the current result or types.ErrNotFound.
func (s *Service) Current() (*report.Result, error) {
	if r := s.session.Current(); r != nil {
		return r, nil
	}
	return nil, fmt.Errorf("no current result: %w", types.ErrNotFound)
}

// Restore installs a history entry's result as the current result. It fails
// with types.ErrBusy while a run is in flight.
func (s *Service) Restore(ctx context.Context, id string) (history.Entry, error) {
	entry, err := s.recorder.Restore(ctx, id)
	if err != nil {
		return history.Entry{}, err
	}
	s.log.Info().Str("id", id).Msg("Restored result from history")
	return entry, nil
}

// WriteReport exports result into the output directory and returns the
// file path. The name follows report_name_format.
func (s *Service) WriteReport(result *report.Result, format export.Format, category types.Category) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nothing to export: %w", types.ErrNotFound)
	}
	if err := s.files.EnsureDirectories(); err != nil {
		return "", err
	}

	path := s.files.OutputPath(export.ReportName(s.cfg.ReportNameFormat, result.Mode, category, format))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	if err := export.Write(f, format, result, category); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}

	s.log.Info().Str("file", path).Str("filter", string(category)).Msg("Report written")
	return path, nil
}

// WriteSummary writes the run summary log next to the reports.
func (s *Service) WriteSummary(run *RunResult, outputs []string) (string, error) {
	summary := utils.RunSummary{
		StartTime:     run.Started,
		EndTime:       run.Started.Add(run.Elapsed),
		Mode:          string(run.Mode),
		ReferenceFile: run.ReferenceName,
		GoverningFile: run.GoverningName,
		TotalRows:     run.Result.TotalRows,
		Matches:       run.Result.Matches,
		Mismatches:    run.Result.Mismatches,
		Missing:       run.Result.Missing,
		Duplicates:    run.Result.Stats.ReferenceDuplicates + run.Result.Stats.GoverningDuplicates,
		Outputs:       outputs,
		Archived:      run.Archived,
	}
	if run.Entry != nil {
		summary.HistoryID = run.Entry.ID
	}
	return utils.WriteSummaryLog(summary, s.cfg.OutputDir)
}

// IsInputError reports whether err is caused by the input files rather than
// by the system.
func IsInputError(err error) bool {
	return errors.Is(err, types.ErrMissingColumn) ||
		errors.Is(err, types.ErrEmptyReference) ||
		errors.Is(err, types.ErrDuplicateKey) ||
		errors.Is(err, types.ErrUnknownMode)
}
