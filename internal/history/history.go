// =============================================================================
// Tariff Reconciler - History Recorder
// =============================================================================
//
// Every successful run is recorded as a history entry so earlier results can
// be listed and restored. The recorder owns the entry rules; persistence is
// delegated to a Store.
//
// RULES:
//   - New entries are prepended (most recent first)
//   - Entry IDs are UUIDv7, so they sort by creation time
//   - Listing by mode treats entries without a mode as tariff entries
//   - Clearing requires explicit confirmation
//   - A failed run never reaches the recorder
//
// STORES:
//   - MemoryStore: process-local, for tests and one-shot CLI runs
//   - FileStore:   a single JSON document, replaced atomically
//   - SQLiteStore: one row per entry
//   - RedisStore:  one list, newest entry at the head
//
// =============================================================================

package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// =============================================================================
// ENTRY AND STORE
// =============================================================================

// Entry is one recorded run.
type Entry struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	ReferenceFile string         `json:"referenceFile"`
	GoverningFile string         `json:"governingFile"`
	Mode          types.Mode     `json:"mode,omitempty"`
	Result        *report.Result `json:"result"`
}

// EffectiveMode returns the entry's mode, treating a missing mode as tariff.
func (e Entry) EffectiveMode() types.Mode {
	if e.Mode == "" {
		return types.ModeTariff
	}
	return e.Mode
}

// Store persists history entries.
type Store interface {
	// Save prepends an entry.
	Save(ctx context.Context, entry Entry) error

	// List returns all entries, most recent first.
	List(ctx context.Context) ([]Entry, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// ResultHolder receives a restored result. TryRestore fails when the holder
// cannot accept a result right now, e.g. while a run is in flight.
type ResultHolder interface {
	TryRestore(result *report.Result) error
}

// =============================================================================
// RECORDER
// =============================================================================

// Recorder applies the history rules on top of a Store.
type Recorder struct {
	store  Store
	holder ResultHolder
	now    func() time.Time
}

// NewRecorder creates a Recorder. holder may be nil, in which case Restore
// only returns the entry.
func NewRecorder(store Store, holder ResultHolder) *Recorder {
	return &Recorder{
		store:  store,
		holder: holder,
		now:    time.Now,
	}
}

// Record stores a finished run and returns the new entry.
func (r *Recorder) Record(ctx context.Context, referenceFile, governingFile string, mode types.Mode, result *report.Result) (Entry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to generate history id: %w", err)
	}

	entry := Entry{
		ID:            id.String(),
		Timestamp:     r.now().UTC(),
		ReferenceFile: referenceFile,
		GoverningFile: governingFile,
		Mode:          mode,
		Result:        result,
	}

	if err := r.store.Save(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("failed to save history entry: %w", err)
	}
	return entry, nil
}

// List returns the entries of mode, most recent first. An empty mode lists
// every entry.
func (r *Recorder) List(ctx context.Context, mode types.Mode) ([]Entry, error) {
	entries, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	if mode == "" {
		return entries, nil
	}

	filtered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.EffectiveMode() == mode {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Get returns the entry with id.
func (r *Recorder) Get(ctx context.Context, id string) (Entry, error) {
	entries, err := r.store.List(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to list history: %w", err)
	}

	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("history entry %s: %w", id, types.ErrNotFound)
}

// Clear removes every entry. It refuses unless confirmed is true.
func (r *Recorder) Clear(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("clearing history: %w", types.ErrNotConfirmed)
	}
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Restore looks up an entry and installs its result as the current result.
func (r *Recorder) Restore(ctx context.Context, id string) (Entry, error) {
	entry, err := r.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if r.holder != nil {
		if err := r.holder.TryRestore(entry.Result); err != nil {
			return Entry{}, fmt.Errorf("failed to restore history entry %s: %w", id, err)
		}
	}
	return entry, nil
}
