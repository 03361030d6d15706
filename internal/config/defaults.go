package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4250,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/compare",
			},
		},
		Market: MarketConfig{
			Provider: "yahoo",
			Timeout:  "30s",
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Exchange:  "US",
			},
		},
		LLM: LLMConfig{
			DefaultProvider: "openai",
			Timeout:         "2m",
			OpenAI: OpenAIConfig{
				Model: "gpt-3.5-turbo",
			},
			Claude: ClaudeConfig{
				Model:     "claude-sonnet-4-20250514",
				MaxTokens: 4096,
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Dashboard: DashboardConfig{
			DefaultTickers:      []string{"AAPL", "GOOGL"},
			DefaultLookbackDays: 90,
			SnapshotTTL:         "30m",
			MaxSnapshots:        200,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Outputs:    []string{"console", "file"},
			FilePath:   "./logs/stock-compare.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}
