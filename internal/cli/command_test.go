package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestNewFlagsDefaults(t *testing.T) {
	flags := NewFlags()

	if flags.CorpusFile != "vocabulary.json" {
		t.Errorf("expected default corpus file, got %q", flags.CorpusFile)
	}
	if flags.StateFile != "current_index.json" {
		t.Errorf("expected default state file, got %q", flags.StateFile)
	}
	if flags.Bind != ":3004" {
		t.Errorf("expected default bind address, got %q", flags.Bind)
	}
	if flags.Schedule != "0 6,12,18 * * *" {
		t.Errorf("expected default schedule, got %q", flags.Schedule)
	}
	if flags.DailyLimit != 5 {
		t.Errorf("expected daily limit 5, got %d", flags.DailyLimit)
	}
	if !flags.EnforceDailyLimit {
		t.Error("daily limit should be enforced by default")
	}
	if !flags.AdvanceOnFailure {
		t.Error("failed runs should consume the word by default")
	}
	if flags.NarrationProvider != "http" {
		t.Errorf("expected http narration provider, got %q", flags.NarrationProvider)
	}
	if flags.NarrationVoice != "en-US-AndrewNeural" {
		t.Errorf("unexpected default voice: %q", flags.NarrationVoice)
	}
	if flags.FrameComposition != "BackgroundVideo" {
		t.Errorf("unexpected default composition: %q", flags.FrameComposition)
	}
	if flags.FFmpegBinary != "ffmpeg" {
		t.Errorf("unexpected default ffmpeg binary: %q", flags.FFmpegBinary)
	}
}

func TestCreateRootCommand(t *testing.T) {
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	if cmd.Use != "wordreel" {
		t.Errorf("expected command name wordreel, got %q", cmd.Use)
	}
	if cmd.Version == "" {
		t.Error("expected version to be set")
	}

	for _, name := range []string{
		"config",
		"corpus", "state", "workdir", "history-db",
		"once", "enrich", "sweep", "history",
		"bind", "schedule", "run-on-start",
		"daily-limit", "enforce-daily-limit", "advance-on-failure",
		"narration-provider", "narration-url", "narration-voice", "narration-locale",
		"openai-model", "openai-voice", "openai-speed",
		"frame-binary", "frame-composition", "ffmpeg-binary",
		"publish-url", "publish-dir",
		"log-json", "log-level",
	} {
		var flag *pflag.Flag
		if name == "config" {
			flag = cmd.PersistentFlags().Lookup(name)
		} else {
			flag = cmd.Flags().Lookup(name)
		}
		if flag == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
}

func TestFlagParsing(t *testing.T) {
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	err := cmd.ParseFlags([]string{
		"--once",
		"--corpus", "words.json",
		"--daily-limit", "3",
		"--advance-on-failure=false",
		"--narration-provider", "openai",
	})
	if err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	if !flags.Once {
		t.Error("expected --once to be set")
	}
	if flags.CorpusFile != "words.json" {
		t.Errorf("expected corpus override, got %q", flags.CorpusFile)
	}
	if flags.DailyLimit != 3 {
		t.Errorf("expected daily limit 3, got %d", flags.DailyLimit)
	}
	if flags.AdvanceOnFailure {
		t.Error("expected advance-on-failure disabled")
	}
	if flags.NarrationProvider != "openai" {
		t.Errorf("expected openai provider, got %q", flags.NarrationProvider)
	}
}

func TestGetNarrationCode(t *testing.T) {
	t.Setenv("WORDREEL_NARRATION_CODE", "sesame")
	if got := GetNarrationCode(); got != "sesame" {
		t.Errorf("expected code from environment, got %q", got)
	}
}

func TestGetOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	if got := GetOpenAIKey(); got != "sk-test" {
		t.Errorf("expected key from environment, got %q", got)
	}
}
