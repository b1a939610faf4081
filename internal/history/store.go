package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/firlift/firlift/constants"
	"github.com/firlift/firlift/internal/extract"
)

// persistTimeout bounds each background archive write.
const persistTimeout = 5 * time.Second

// Archive is the durable storage behind the in-memory history. Implementations
// persist the full sequence as one record; failures must be tolerable because
// history is best-effort by contract.
type Archive interface {
	LoadAll(ctx context.Context) ([]extract.UploadResult, error)
	SaveAll(ctx context.Context, entries []extract.UploadResult) error
}

// Store is the ordered, size-bounded collection of normalized results,
// most-recent-first. Reads never mutate it; only Push does, and only the
// orchestrator calls Push.
type Store struct {
	mu      sync.RWMutex
	entries []extract.UploadResult
	cap     int
	archive Archive
	logger  *slog.Logger
}

// NewStore creates a history store. archive may be nil for memory-only use.
func NewStore(capacity int, archive Archive, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity <= 0 {
		capacity = constants.HistoryCap
	}
	return &Store{
		cap:     capacity,
		archive: archive,
		logger:  logger,
	}
}

// Load restores persisted entries. Any failure yields an empty history; the
// error is logged and never propagated, so a corrupt or missing record can
// never block startup.
func (s *Store) Load(ctx context.Context) {
	if s.archive == nil {
		return
	}
	entries, err := s.archive.LoadAll(ctx)
	if err != nil {
		s.logger.Warn("history.load.failed", "error", err)
		return
	}
	if len(entries) > s.cap {
		entries = entries[:s.cap]
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	s.logger.Info("history.load.ok", "entries", len(entries))
}

// Push prepends entry, evicting the oldest entries past the cap, and kicks off
// a background persist of the full sequence. The in-memory update is visible
// to the caller immediately; the durable write is fire-and-forget.
func (s *Store) Push(entry extract.UploadResult) {
	s.mu.Lock()
	s.entries = append([]extract.UploadResult{entry}, s.entries...)
	if len(s.entries) > s.cap {
		s.entries = s.entries[:s.cap]
	}
	snapshot := make([]extract.UploadResult, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()

	if s.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.archive.SaveAll(ctx, snapshot); err != nil {
			s.logger.Warn("history.persist.failed", "error", err, "entries", len(snapshot))
		}
	}()
}

// Select returns the entry with the matching id, or nil. It never reorders or
// mutates the stored sequence.
func (s *Store) Select(id string) *extract.UploadResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			e := s.entries[i]
			return &e
		}
	}
	return nil
}

// List returns a copy of the sequence, most-recent-first.
func (s *Store) List() []extract.UploadResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]extract.UploadResult, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
