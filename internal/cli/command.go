package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/wordreel/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wordreel",
		Short: "Scheduled vocabulary video generator",
		Long: `wordreel produces short vocabulary-teaching videos on a schedule.

It rotates through a word corpus, synthesizes narration, renders a
captioned frame through an external engine, muxes both into a vertical
video with ffmpeg, and publishes the result.

Examples:
  wordreel                        # Run the daemon (scheduler + HTTP triggers)
  wordreel --once                 # Run the pipeline once and exit
  wordreel --enrich               # Fill missing pronunciations in the corpus
  wordreel --sweep                # Remove stale temporary artifacts and exit
  wordreel --history              # Print recent pipeline runs and exit`,
		Args:    cobra.NoArgs,
		Version: internal.Version,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.wordreel.yaml)")

	// Local flags
	cmd.Flags().StringVarP(&flags.CorpusFile, "corpus", "c", flags.CorpusFile, "Vocabulary corpus JSON file")
	cmd.Flags().StringVar(&flags.StateFile, "state", flags.StateFile, "Rotation state file")
	cmd.Flags().StringVarP(&flags.WorkDir, "workdir", "w", "", "Working directory for temporary artifacts (default $XDG_STATE_HOME/wordreel/output)")
	cmd.Flags().StringVar(&flags.HistoryDB, "history-db", "", "Run-history sqlite database (default alongside workdir, empty string in config disables)")
	cmd.Flags().BoolVar(&flags.Once, "once", false, "Run the pipeline once and exit")
	cmd.Flags().BoolVar(&flags.Enrich, "enrich", false, "Fill missing pronunciations in the corpus file and exit")
	cmd.Flags().BoolVar(&flags.Sweep, "sweep", false, "Remove stale temporary artifacts and exit")
	cmd.Flags().BoolVar(&flags.History, "history", false, "Print recent pipeline runs and exit")
	cmd.Flags().BoolVar(&flags.LogJSON, "log-json", false, "Emit JSON logs instead of text")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")

	// Daemon flags
	cmd.Flags().StringVar(&flags.Bind, "bind", flags.Bind, "HTTP listen address")
	cmd.Flags().StringVar(&flags.Schedule, "schedule", flags.Schedule, "Cron expression for scheduled runs")
	cmd.Flags().BoolVar(&flags.RunOnStart, "run-on-start", flags.RunOnStart, "Attempt one run right after startup")

	// Rotation flags
	cmd.Flags().IntVar(&flags.DailyLimit, "daily-limit", flags.DailyLimit, "Maximum videos per calendar day")
	cmd.Flags().BoolVar(&flags.EnforceDailyLimit, "enforce-daily-limit", flags.EnforceDailyLimit, "Gate runs on the daily limit")
	cmd.Flags().BoolVar(&flags.AdvanceOnFailure, "advance-on-failure", flags.AdvanceOnFailure, "Keep the word consumed when a run fails (false retries it next trigger)")

	// Narration flags
	cmd.Flags().StringVar(&flags.NarrationProvider, "narration-provider", flags.NarrationProvider, "Narration provider: http or openai")
	cmd.Flags().StringVar(&flags.NarrationURL, "narration-url", "", "HTTP synthesis service URL")
	cmd.Flags().StringVar(&flags.NarrationVoice, "narration-voice", flags.NarrationVoice, "Voice name embedded in the synthesis script")
	cmd.Flags().StringVar(&flags.NarrationLocale, "narration-locale", flags.NarrationLocale, "Locale sent to the synthesis service")

	// OpenAI flags
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, echo, fable, onyx, nova, shimmer")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0)")

	// Frame renderer flags
	cmd.Flags().StringVar(&flags.FrameBinary, "frame-binary", flags.FrameBinary, "Rendering engine binary")
	cmd.Flags().StringVar(&flags.FrameComposition, "frame-composition", flags.FrameComposition, "Composition the engine renders")

	// Mux flags
	cmd.Flags().StringVar(&flags.FFmpegBinary, "ffmpeg-binary", flags.FFmpegBinary, "ffmpeg binary")

	// Publish flags
	cmd.Flags().StringVar(&flags.PublishURL, "publish-url", "", "HTTP publish sink (takes precedence over --publish-dir)")
	cmd.Flags().StringVar(&flags.PublishDir, "publish-dir", flags.PublishDir, "Directory publish sink")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("corpus.file", cmd.Flags().Lookup("corpus"))
	viper.BindPFlag("rotation.state_file", cmd.Flags().Lookup("state"))
	viper.BindPFlag("rotation.daily_limit", cmd.Flags().Lookup("daily-limit"))
	viper.BindPFlag("rotation.enforce_daily_limit", cmd.Flags().Lookup("enforce-daily-limit"))
	viper.BindPFlag("rotation.advance_on_failure", cmd.Flags().Lookup("advance-on-failure"))
	viper.BindPFlag("daemon.bind", cmd.Flags().Lookup("bind"))
	viper.BindPFlag("daemon.schedule", cmd.Flags().Lookup("schedule"))
	viper.BindPFlag("daemon.run_on_start", cmd.Flags().Lookup("run-on-start"))
	viper.BindPFlag("narration.provider", cmd.Flags().Lookup("narration-provider"))
	viper.BindPFlag("narration.url", cmd.Flags().Lookup("narration-url"))
	viper.BindPFlag("narration.voice", cmd.Flags().Lookup("narration-voice"))
	viper.BindPFlag("narration.locale", cmd.Flags().Lookup("narration-locale"))
	viper.BindPFlag("narration.openai_model", cmd.Flags().Lookup("openai-model"))
	viper.BindPFlag("narration.openai_voice", cmd.Flags().Lookup("openai-voice"))
	viper.BindPFlag("narration.openai_speed", cmd.Flags().Lookup("openai-speed"))
	viper.BindPFlag("frame.binary", cmd.Flags().Lookup("frame-binary"))
	viper.BindPFlag("frame.composition", cmd.Flags().Lookup("frame-composition"))
	viper.BindPFlag("mux.ffmpeg_binary", cmd.Flags().Lookup("ffmpeg-binary"))
	viper.BindPFlag("publish.url", cmd.Flags().Lookup("publish-url"))
	viper.BindPFlag("publish.dir", cmd.Flags().Lookup("publish-dir"))
	viper.BindPFlag("output.workdir", cmd.Flags().Lookup("workdir"))
	viper.BindPFlag("history.db", cmd.Flags().Lookup("history-db"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".wordreel" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".wordreel")
	}

	// Environment variables
	viper.SetEnvPrefix("WORDREEL")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("narration.openai_key")
}

// GetNarrationCode retrieves the synthesis service access code from
// environment or config
func GetNarrationCode() string {
	if code := os.Getenv("WORDREEL_NARRATION_CODE"); code != "" {
		return code
	}
	return viper.GetString("narration.code")
}
