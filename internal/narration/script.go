package narration

import (
	"fmt"

	"codeberg.org/snonux/wordreel/internal/vocab"
)

// BuildScript produces the plain spoken-word script for a record:
// the word, its part of speech, its meaning, and the first example.
func BuildScript(rec vocab.WordRecord) string {
	return fmt.Sprintf("%s, a %s, means %s. For example, %s",
		rec.Word, rec.CanonicalType(), rec.Meaning, rec.Example(0))
}

// BuildVoiceScript wraps the script in the SSML-like voice tag the HTTP
// synthesis service expects.
func BuildVoiceScript(rec vocab.WordRecord, voice string) string {
	return fmt.Sprintf("<voice name=%q>%s</voice>", voice, BuildScript(rec))
}
