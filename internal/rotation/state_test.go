package rotation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"codeberg.org/snonux/wordreel/internal/vocab"
)

func testCorpus(words ...string) *vocab.Corpus {
	records := make([]vocab.WordRecord, len(words))
	for i, w := range words {
		records[i] = vocab.WordRecord{
			Word:             w,
			Types:            []string{"noun"},
			Meaning:          "meaning of " + w,
			ExampleSentences: []string{"First example.", "Second example."},
		}
	}
	return vocab.NewCorpus(records)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "current_index.json"))
}

func TestLoadInitializesMissingState(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	snap := s.Snapshot()
	if snap.CurrentIndex != 0 || snap.DailyVideoCount != 0 {
		t.Errorf("expected zeroed state, got %+v", snap)
	}
	if snap.LastResetDate == "" {
		t.Error("expected lastResetDate to be set")
	}

	// The initial state must be persisted immediately.
	if _, err := os.Stat(s.path); err != nil {
		t.Errorf("expected state file to exist after Load: %v", err)
	}
}

func TestNextWordVisitsEveryRecordThenWraps(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	corpus := testCorpus("alpha", "beta", "gamma")
	var seen []string
	for i := 0; i < corpus.Len(); i++ {
		rec, ok := s.NextWord(corpus)
		if !ok {
			t.Fatalf("NextWord returned no record on call %d", i)
		}
		seen = append(seen, rec.Word)
	}

	want := []string{"alpha", "beta", "gamma"}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], seen[i])
		}
	}

	// The (N+1)-th call wraps back to the first record.
	rec, ok := s.NextWord(corpus)
	if !ok || rec.Word != "alpha" {
		t.Errorf("expected wrap to 'alpha', got %q (ok=%v)", rec.Word, ok)
	}
}

func TestNextWordEmptyCorpus(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, ok := s.NextWord(testCorpus()); ok {
			t.Fatal("expected no record from empty corpus")
		}
	}
	if s.Snapshot().CurrentIndex != 0 {
		t.Errorf("index must not advance on empty corpus, got %d", s.Snapshot().CurrentIndex)
	}
}

func TestNextWordHandlesShrunkenCorpus(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	s.state.CurrentIndex = 5

	rec, ok := s.NextWord(testCorpus("alpha", "beta"))
	if !ok || rec.Word != "alpha" {
		t.Errorf("expected reset to 'alpha' when index is out of range, got %q", rec.Word)
	}
}

func TestDailyCountResetsOnDateChange(t *testing.T) {
	s := newTestStore(t)
	yesterday := time.Now().AddDate(0, 0, -1)
	s.now = func() time.Time { return yesterday }
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	s.RecordCompletion()
	s.RecordCompletion()
	if err := s.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	// Reload "today": the counter resets before any quota check.
	s2 := NewStore(s.path)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	snap := s2.Snapshot()
	if snap.DailyVideoCount != 0 {
		t.Errorf("expected daily count reset to 0, got %d", snap.DailyVideoCount)
	}
	if snap.LastResetDate != time.Now().Format(dateLayout) {
		t.Errorf("expected lastResetDate updated to today, got %q", snap.LastResetDate)
	}
}

func TestResetIfNewDayIsIdempotentWithinADay(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	s.RecordCompletion()

	if s.ResetIfNewDay() {
		t.Error("same-day reset must be a no-op")
	}
	if s.Snapshot().DailyVideoCount != 1 {
		t.Errorf("same-day reset must not touch the counter, got %d", s.Snapshot().DailyVideoCount)
	}
}

func TestCanRun(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	const limit = 3
	for i := 0; i < limit; i++ {
		if !s.CanRun(limit) {
			t.Fatalf("expected CanRun true at count %d", i)
		}
		s.RecordCompletion()
	}
	if s.CanRun(limit) {
		t.Error("expected CanRun false once the limit is reached")
	}
}

func TestPersistRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	corpus := testCorpus("alpha", "beta")
	s.NextWord(corpus)
	s.RecordCompletion()
	if err := s.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	// Verify the exact file shape.
	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("failed to read state file: %v", err)
	}
	var onDisk map[string]any
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	for _, key := range []string{"dailyVideoCount", "currentIndex", "lastResetDate"} {
		if _, ok := onDisk[key]; !ok {
			t.Errorf("state file missing key %q", key)
		}
	}

	s2 := NewStore(s.path)
	if err := s2.Load(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	snap := s2.Snapshot()
	if snap.CurrentIndex != 1 {
		t.Errorf("expected persisted index 1, got %d", snap.CurrentIndex)
	}
	if snap.DailyVideoCount != 1 {
		t.Errorf("expected persisted count 1, got %d", snap.DailyVideoCount)
	}
}

func TestLoadRejectsMalformedState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "current_index.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0644); err != nil {
		t.Fatalf("failed to write state file: %v", err)
	}
	if err := NewStore(path).Load(); err == nil {
		t.Fatal("expected error for malformed state file")
	}
}

func TestConcurrentSnapshotDuringMutation(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Status readers snapshot from their own goroutines while a run
	// mutates the state; run with -race.
	const iterations = 500
	corpus := testCorpus("alpha", "beta", "gamma")
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			s.ResetIfNewDay()
			s.NextWord(corpus)
			s.RecordCompletion()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			snap := s.Snapshot()
			if snap.DailyVideoCount < 0 || snap.CurrentIndex < 0 {
				t.Errorf("torn snapshot: %+v", snap)
				return
			}
			s.CanRun(5)
		}
	}()
	wg.Wait()

	if got := s.Snapshot().DailyVideoCount; got != iterations {
		t.Errorf("expected %d completions, got %d", iterations, got)
	}
}

func TestUnadvance(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	corpus := testCorpus("alpha", "beta", "gamma")
	s.NextWord(corpus)
	s.Unadvance(corpus.Len())
	if s.Snapshot().CurrentIndex != 0 {
		t.Errorf("expected index restored to 0, got %d", s.Snapshot().CurrentIndex)
	}

	// Wraps backwards from 0.
	s.Unadvance(corpus.Len())
	if s.Snapshot().CurrentIndex != 2 {
		t.Errorf("expected backwards wrap to 2, got %d", s.Snapshot().CurrentIndex)
	}
}
