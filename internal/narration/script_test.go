package narration

import (
	"strings"
	"testing"

	"codeberg.org/snonux/wordreel/internal/vocab"
)

func TestBuildScriptContainsAllFields(t *testing.T) {
	rec := vocab.WordRecord{
		Word:             "ephemeral",
		Types:            []string{"adjective"},
		Meaning:          "lasting a short time",
		ExampleSentences: []string{"Fame can be ephemeral.", "Beauty is ephemeral."},
	}

	script := BuildScript(rec)

	// Every field must appear verbatim in the spoken script.
	for _, want := range []string{
		"ephemeral",
		"adjective",
		"lasting a short time",
		"Fame can be ephemeral.",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q: %s", want, script)
		}
	}
}

func TestBuildVoiceScript(t *testing.T) {
	rec := vocab.WordRecord{
		Word:             "ephemeral",
		Types:            []string{"adjective"},
		Meaning:          "lasting a short time",
		ExampleSentences: []string{"Fame can be ephemeral.", "Beauty is ephemeral."},
	}

	script := BuildVoiceScript(rec, "en-US-AndrewNeural")

	if !strings.HasPrefix(script, `<voice name="en-US-AndrewNeural">`) {
		t.Errorf("expected voice tag prefix, got: %s", script)
	}
	if !strings.HasSuffix(script, "</voice>") {
		t.Errorf("expected closing voice tag, got: %s", script)
	}
	if !strings.Contains(script, BuildScript(rec)) {
		t.Error("voice script should wrap the plain script")
	}
}
