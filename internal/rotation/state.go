package rotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"codeberg.org/snonux/wordreel/internal/vocab"
)

// dateLayout is the calendar-date format used in the state file.
const dateLayout = "2006-01-02"

// State is the on-disk shape of the rotation file.
type State struct {
	DailyVideoCount int    `json:"dailyVideoCount"`
	CurrentIndex    int    `json:"currentIndex"`
	LastResetDate   string `json:"lastResetDate"`
}

// PersistError indicates the state file could not be written.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist rotation state %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Store owns the rotation state. Mutating operations are serialized by the
// orchestrator's single-run-at-a-time permit; the mutex exists so status
// readers can Snapshot while a run is mutating the state.
type Store struct {
	path string
	lock *flock.Flock
	now  func() time.Time

	mu    sync.Mutex
	state State
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
		now:  time.Now,
	}
}

// Load reads the persisted state. If the file does not exist the state is
// initialized and persisted immediately. A calendar-date change since the
// last persist resets the daily counter before anything else sees it.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read rotation state %s: %w", s.path, err)
		}
		s.mu.Lock()
		s.state = State{LastResetDate: s.today()}
		s.mu.Unlock()
		return s.Persist()
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse rotation state %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.ResetIfNewDay()
	return nil
}

// ResetIfNewDay zeroes the daily counter once per calendar-date change.
// It is called on load and again at the start of every run, so a daemon
// that lives across midnight still resets correctly.
func (s *Store) ResetIfNewDay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	if s.state.LastResetDate == today {
		return false
	}
	s.state.DailyVideoCount = 0
	s.state.LastResetDate = today
	return true
}

// CanRun reports whether the daily quota still allows a run.
func (s *Store) CanRun(dailyLimit int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DailyVideoCount < dailyLimit
}

// NextWord returns the record at the current cursor and advances the cursor
// by one, wrapping at the corpus length. The advance happens before any
// rendering is attempted; a later stage failure does not undo it unless the
// caller explicitly asks via Unadvance. Returns false on an empty corpus,
// in which case the cursor does not move.
func (s *Store) NextWord(corpus *vocab.Corpus) (vocab.WordRecord, bool) {
	n := corpus.Len()
	if n == 0 {
		return vocab.WordRecord{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentIndex >= n {
		// Corpus shrank since the state was written.
		s.state.CurrentIndex = 0
	}
	rec := corpus.At(s.state.CurrentIndex)
	s.state.CurrentIndex = (s.state.CurrentIndex + 1) % n
	return rec, true
}

// Unadvance moves the cursor back one position, wrapping at the corpus
// length. Used by the retry-same-word-on-failure configuration.
func (s *Store) Unadvance(corpusLen int) {
	if corpusLen <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentIndex = (s.state.CurrentIndex - 1 + corpusLen) % corpusLen
}

// RecordCompletion increments the daily counter.
func (s *Store) RecordCompletion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DailyVideoCount++
}

// Snapshot returns a copy of the current in-memory state. Safe to call
// from any goroutine, including while a run is in flight.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Persist durably rewrites the full state file, holding the file lock for
// the duration of the write so concurrent processes cannot interleave.
func (s *Store) Persist() error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return &PersistError{Path: s.path, Err: fmt.Errorf("acquire lock: %w", err)}
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return &PersistError{Path: s.path, Err: err}
	}

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &PersistError{Path: s.path, Err: err}
		}
	}

	// Write-then-rename so a crash mid-write never leaves a torn file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &PersistError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return &PersistError{Path: s.path, Err: err}
	}
	return nil
}

func (s *Store) today() string {
	return s.now().Format(dateLayout)
}
