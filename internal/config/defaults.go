package config

const (
	defaultWorkDir            = "~/.cache/chunkscribe/work"
	defaultStateDir           = "~/.local/share/chunkscribe"
	defaultLogDir             = "~/.local/share/chunkscribe/logs"
	defaultOpenAIBaseURL      = "https://api.openai.com"
	defaultOpenAIModel        = "whisper-1"
	defaultOpenAITimeout      = 600
	defaultLanguage           = "en"
	defaultInitialPrompt      = "Hello, welcome to my lecture."
	defaultMaxAttempts        = 3
	defaultMaxRequestMB       = 25
	defaultWindowMinutes      = 24
	defaultWorkers            = 4
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 50
	defaultLogMaxBackups      = 5
	defaultLogMaxAgeDays      = 30
	OffsetFallbackNone        = "none"
	OffsetFallbackNominal     = "nominal"
	TrailingPolicyDrop        = "drop"
	TrailingPolicyEmit        = "emit"
	defaultOffsetFallback     = OffsetFallbackNone
	defaultTrailingPolicy     = TrailingPolicyDrop
	defaultFailOnTotalFailure = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			Model:          defaultOpenAIModel,
			TimeoutSeconds: defaultOpenAITimeout,
		},
		Transcription: Transcription{
			Language:           defaultLanguage,
			Timestamps:         true,
			InitialPrompt:      defaultInitialPrompt,
			MaxAttempts:        defaultMaxAttempts,
			MaxRequestMB:       defaultMaxRequestMB,
			WindowMinutes:      defaultWindowMinutes,
			Workers:            defaultWorkers,
			FailOnTotalFailure: defaultFailOnTotalFailure,
			OffsetFallback:     defaultOffsetFallback,
			TrailingPolicy:     defaultTrailingPolicy,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
