package config

// Transcription backends.
const (
	BackendWhisperX = "whisperx"
	BackendGoogle   = "google"
)

const (
	defaultConfigPath           = "~/.config/storyvideo/config.toml"
	defaultOutputDir            = "~/.local/share/storyvideo/videos"
	defaultWorkDir              = "~/.local/share/storyvideo/work"
	defaultLogDir               = "~/.local/share/storyvideo/logs"
	defaultHistoryPath          = "~/.local/share/storyvideo/history.db"
	defaultTranscriptionBackend = BackendWhisperX
	defaultWhisperModel         = "base"
	defaultLanguage             = "pt"
	defaultLanguageCode         = "pt-BR"
	defaultVADMethod            = "silero"
	defaultLLMBaseURL           = "http://localhost:11434/v1/chat/completions"
	defaultLLMModel             = "llama3"
	defaultLLMTitle             = "storyvideo image matcher"
	defaultLLMTimeoutSeconds    = 60
	defaultMaxCandidates        = 20
	defaultOracleTimeoutSeconds = 90
	defaultStyle                = "smooth"
	defaultWidth                = 1080
	defaultHeight               = 1920
	defaultFPS                  = 30
	defaultVideoCodec           = "libx264"
	defaultAudioCodec           = "aac"
	defaultPreset               = "medium"
	defaultThreads              = 4
	defaultMaxConcurrentRuns    = 1
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
		},
		Transcription: Transcription{
			Backend:      defaultTranscriptionBackend,
			Model:        defaultWhisperModel,
			Language:     defaultLanguage,
			VADMethod:    defaultVADMethod,
			LanguageCode: defaultLanguageCode,
		},
		LLM: LLM{
			Enabled:        true,
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Matching: Matching{
			Language:             defaultLanguage,
			MaxCandidates:        defaultMaxCandidates,
			OracleTimeoutSeconds: defaultOracleTimeoutSeconds,
		},
		Render: Render{
			Style:      defaultStyle,
			Width:      defaultWidth,
			Height:     defaultHeight,
			FPS:        defaultFPS,
			VideoCodec: defaultVideoCodec,
			AudioCodec: defaultAudioCodec,
			Preset:     defaultPreset,
			Threads:    defaultThreads,
			FFmpeg:     "ffmpeg",
			FFprobe:    "ffprobe",
		},
		Workflow: Workflow{
			MaxConcurrentRuns: defaultMaxConcurrentRuns,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
