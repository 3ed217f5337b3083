package config

const (
	defaultStagingDir = "~/.local/share/podslice/staging"
	defaultLogDir     = "~/.local/share/podslice/logs"
	defaultSocketPath = "~/.local/share/podslice/podsliced.sock"

	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultMaxParallelJobs    = 2
	defaultTranscribeTimeout  = 300
	defaultSummarizeTimeout   = 120
	defaultSynthesizeTimeout  = 300
	defaultPersistTimeout     = 120

	defaultTranscriptionBaseURL = "https://api.podslice.dev/transcription/v1"
	defaultTranscriptionTimeout = 240

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultLLMReferer        = "https://github.com/podslice/podslice"
	defaultLLMTitle          = "PodSlice Episode Generator"
	defaultLLMTimeoutSeconds = 90

	defaultVoice               = "narrator-warm"
	defaultTTSPrimaryBaseURL   = "https://api.podslice.dev/tts/neural/v1"
	defaultTTSPrimaryModel     = "neural-multispeaker-1"
	defaultTTSSecondaryBaseURL = "https://api.podslice.dev/tts/flash/v1"
	defaultTTSSecondaryModel   = "flash-latency-1"
	defaultTTSTimeoutSeconds   = 240

	defaultStorageRegion = "auto"
	defaultStorageBucket = "podslice-episodes"

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			MaxParallelJobs:    defaultMaxParallelJobs,
			TranscribeTimeout:  defaultTranscribeTimeout,
			SummarizeTimeout:   defaultSummarizeTimeout,
			SynthesizeTimeout:  defaultSynthesizeTimeout,
			PersistTimeout:     defaultPersistTimeout,
		},
		Transcription: Transcription{
			BaseURL:        defaultTranscriptionBaseURL,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			DefaultVoice: defaultVoice,
			Primary: TTSProvider{
				BaseURL:        defaultTTSPrimaryBaseURL,
				Model:          defaultTTSPrimaryModel,
				TimeoutSeconds: defaultTTSTimeoutSeconds,
			},
			Secondary: TTSProvider{
				BaseURL:        defaultTTSSecondaryBaseURL,
				Model:          defaultTTSSecondaryModel,
				TimeoutSeconds: defaultTTSTimeoutSeconds,
			},
		},
		Storage: Storage{
			Region: defaultStorageRegion,
			Bucket: defaultStorageBucket,
			UseSSL: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
