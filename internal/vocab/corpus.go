package vocab

import (
	"encoding/json"
	"fmt"
	"os"
)

// WordRecord is a single vocabulary entry as stored in the corpus file.
type WordRecord struct {
	Word             string   `json:"word"`
	Pronunciation    string   `json:"pronunciation"`
	Types            []string `json:"type"`
	Meaning          string   `json:"meaning"`
	ExampleSentences []string `json:"exampleSentences"`
	Synonyms         []string `json:"synonyms"`
}

// CanonicalType returns the first part-of-speech entry, or "" if none.
func (r WordRecord) CanonicalType() string {
	if len(r.Types) == 0 {
		return ""
	}
	return r.Types[0]
}

// Example returns the i-th example sentence, or "" if out of range.
func (r WordRecord) Example(i int) string {
	if i < 0 || i >= len(r.ExampleSentences) {
		return ""
	}
	return r.ExampleSentences[i]
}

// Synonym returns the i-th synonym, or "" if out of range.
func (r WordRecord) Synonym(i int) string {
	if i < 0 || i >= len(r.Synonyms) {
		return ""
	}
	return r.Synonyms[i]
}

// LoadError indicates the corpus file could not be read or parsed. Callers
// should degrade to an empty corpus when they see it.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load corpus %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Corpus is the in-memory ordered word list.
type Corpus struct {
	records []WordRecord
}

// NewCorpus builds a corpus from already-parsed records.
func NewCorpus(records []WordRecord) *Corpus {
	return &Corpus{records: records}
}

// Load reads the corpus JSON file. It returns a LoadError if the file is
// unreadable, malformed, or contains a record unusable for rendering.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var records []WordRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	for i, rec := range records {
		if err := validateRecord(rec); err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("record %d (%q): %w", i, rec.Word, err)}
		}
	}

	return &Corpus{records: records}, nil
}

// validateRecord checks the fields the downstream renderer depends on.
func validateRecord(rec WordRecord) error {
	if rec.Word == "" {
		return fmt.Errorf("missing word")
	}
	if rec.Meaning == "" {
		return fmt.Errorf("missing meaning")
	}
	if len(rec.Types) == 0 {
		return fmt.Errorf("missing part of speech")
	}
	if len(rec.ExampleSentences) < 2 {
		return fmt.Errorf("needs at least 2 example sentences, has %d", len(rec.ExampleSentences))
	}
	if len(rec.Synonyms) > 4 {
		return fmt.Errorf("at most 4 synonyms supported, has %d", len(rec.Synonyms))
	}
	return nil
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// At returns the record at index i. The index must be in range.
func (c *Corpus) At(i int) WordRecord {
	return c.records[i]
}
