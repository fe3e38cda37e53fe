package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	CorpusFile string
	StateFile  string
	WorkDir    string
	HistoryDB  string
	Once       bool
	Enrich     bool
	Sweep      bool
	History    bool
	LogJSON    bool
	LogLevel   string

	// Daemon flags
	Bind       string
	Schedule   string
	RunOnStart bool

	// Rotation flags
	DailyLimit        int
	EnforceDailyLimit bool
	AdvanceOnFailure  bool

	// Narration flags
	NarrationProvider string
	NarrationURL      string
	NarrationVoice    string
	NarrationLocale   string
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64

	// Frame renderer flags
	FrameBinary      string
	FrameComposition string

	// Mux flags
	FFmpegBinary string

	// Publish flags
	PublishURL string
	PublishDir string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		CorpusFile:        "vocabulary.json",
		StateFile:         "current_index.json",
		LogLevel:          "info",
		Bind:              ":3004",
		Schedule:          "0 6,12,18 * * *",
		RunOnStart:        true,
		DailyLimit:        5,
		EnforceDailyLimit: true,
		AdvanceOnFailure:  true,
		NarrationProvider: "http",
		NarrationVoice:    "en-US-AndrewNeural",
		NarrationLocale:   "en-US",
		OpenAIModel:       "tts-1",
		OpenAIVoice:       "onyx",
		OpenAISpeed:       1.0,
		FrameBinary:       "wordreel-render",
		FrameComposition:  "BackgroundVideo",
		FFmpegBinary:      "ffmpeg",
		PublishDir:        "published",
	}
}
