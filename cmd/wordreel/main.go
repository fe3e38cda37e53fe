package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/wordreel/internal/artifacts"
	"codeberg.org/snonux/wordreel/internal/cli"
	"codeberg.org/snonux/wordreel/internal/daemon"
	"codeberg.org/snonux/wordreel/internal/frame"
	"codeberg.org/snonux/wordreel/internal/history"
	"codeberg.org/snonux/wordreel/internal/muxer"
	"codeberg.org/snonux/wordreel/internal/narration"
	"codeberg.org/snonux/wordreel/internal/pipeline"
	"codeberg.org/snonux/wordreel/internal/publish"
	"codeberg.org/snonux/wordreel/internal/rotation"
	"codeberg.org/snonux/wordreel/internal/vocab"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, flags *cli.Flags) error {
	logger := newLogger(flags)
	slog.SetDefault(logger)

	// Handle --enrich flag
	if flags.Enrich {
		enricher := vocab.NewEnricher(cli.GetOpenAIKey())
		updated, err := enricher.FillPronunciations(cmd.Context(), flags.CorpusFile)
		if err != nil {
			return fmt.Errorf("failed to enrich corpus: %w", err)
		}
		fmt.Printf("Updated %d records in %s\n", updated, flags.CorpusFile)
		return nil
	}

	store, err := artifacts.NewStore(workDir(flags), logger)
	if err != nil {
		return err
	}

	// Handle --sweep flag
	if flags.Sweep {
		removed, err := store.Sweep(0)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d artifacts from %s\n", removed, store.Dir())
		return nil
	}

	// A broken corpus degrades to an empty one: the service stays up and
	// every run is a no-op until the file is fixed and the process restarted.
	corpus, err := vocab.Load(flags.CorpusFile)
	if err != nil {
		logger.Error("corpus unavailable, continuing with empty corpus",
			slog.String("error", err.Error()))
		corpus = vocab.NewCorpus(nil)
	}

	state := rotation.NewStore(flags.StateFile)
	if err := state.Load(); err != nil {
		return err
	}

	var ledger *history.Store
	if path := historyPath(flags, cmd); path != "" {
		ledger, err = history.Open(path)
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	// Handle --history flag
	if flags.History {
		if ledger == nil {
			return fmt.Errorf("run history is disabled")
		}
		return printHistory(cmd.Context(), ledger)
	}

	orch, err := buildOrchestrator(flags, corpus, state, ledger, store, logger)
	if err != nil {
		return err
	}

	// Handle --once flag
	if flags.Once {
		result, err := orch.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Run finished: %s\n", result.Outcome)
		return nil
	}

	return runDaemon(cmd.Context(), flags, orch, ledger, store, logger)
}

func printHistory(ctx context.Context, ledger *history.Store) error {
	runs, err := ledger.Recent(ctx, 20)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}
	for _, run := range runs {
		line := fmt.Sprintf("%s  %-13s %s", run.StartedAt.Format("2006-01-02 15:04:05"), run.Outcome, run.Word)
		if run.ErrorText != "" {
			line += "  (" + run.ErrorText + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func buildOrchestrator(flags *cli.Flags, corpus *vocab.Corpus, state *rotation.Store,
	ledger *history.Store, store *artifacts.Store, logger *slog.Logger) (*pipeline.Orchestrator, error) {

	narrationCfg := narration.DefaultConfig()
	narrationCfg.Provider = flags.NarrationProvider
	narrationCfg.ServiceURL = flags.NarrationURL
	narrationCfg.ServiceCode = cli.GetNarrationCode()
	narrationCfg.Voice = flags.NarrationVoice
	narrationCfg.Locale = flags.NarrationLocale
	narrationCfg.OpenAIKey = cli.GetOpenAIKey()
	narrationCfg.OpenAIModel = flags.OpenAIModel
	narrationCfg.OpenAIVoice = flags.OpenAIVoice
	narrationCfg.OpenAISpeed = flags.OpenAISpeed

	narrator, err := narration.NewProvider(narrationCfg, store, logger)
	if err != nil {
		return nil, err
	}

	// When both the HTTP service and an OpenAI key are configured, the
	// OpenAI provider backs up the primary.
	if narrationCfg.Provider == "http" && narrationCfg.OpenAIKey != "" {
		if fallback, err := narration.NewOpenAIProvider(narrationCfg, store); err == nil {
			narrator = narration.NewProviderWithFallback(narrator, fallback, logger)
		}
	}

	renderer := frame.NewCLI(store,
		frame.WithBinary(flags.FrameBinary),
		frame.WithComposition(flags.FrameComposition))

	mux := muxer.NewFFmpeg(logger, muxer.WithBinary(flags.FFmpegBinary))
	if err := mux.IsAvailable(); err != nil {
		logger.Warn("ffmpeg unavailable, runs will fail at the mux stage",
			slog.String("error", err.Error()))
	}

	publisher, err := publish.NewPublisher(&publish.Config{
		UploadURL: flags.PublishURL,
		OutputDir: flags.PublishDir,
	})
	if err != nil {
		return nil, err
	}

	cfg := pipeline.DefaultConfig()
	cfg.DailyLimit = flags.DailyLimit
	cfg.EnforceDailyLimit = flags.EnforceDailyLimit
	cfg.AdvanceOnFailure = flags.AdvanceOnFailure

	return pipeline.New(corpus, state, narrator, renderer, mux, publisher,
		ledger, store, cfg, logger), nil
}

func runDaemon(ctx context.Context, flags *cli.Flags, orch *pipeline.Orchestrator,
	ledger *history.Store, store *artifacts.Store, logger *slog.Logger) error {

	cfg := daemon.DefaultConfig()
	cfg.Bind = flags.Bind
	cfg.Schedule = flags.Schedule
	cfg.RunOnStart = flags.RunOnStart
	cfg.LockPath = filepath.Join(store.Dir(), "wordreel.lock")

	svc, err := daemon.New(cfg, orch, ledger, store, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	<-ctx.Done()
	return nil
}

func newLogger(flags *cli.Flags) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flags.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if flags.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func workDir(flags *cli.Flags) string {
	if flags.WorkDir != "" {
		return flags.WorkDir
	}
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "wordreel", "output")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "output"
	}
	return filepath.Join(home, ".local", "state", "wordreel", "output")
}

func historyPath(flags *cli.Flags, cmd *cobra.Command) string {
	if flags.HistoryDB != "" {
		return flags.HistoryDB
	}
	// An explicitly empty --history-db disables the ledger.
	if cmd.Flags().Changed("history-db") {
		return ""
	}
	return filepath.Join(filepath.Dir(workDir(flags)), "history.db")
}
