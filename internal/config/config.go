package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration. Values come from defaults,
// then TOML files, then COMPARE_* environment variables, then flags.
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Market      MarketConfig    `toml:"market"`
	LLM         LLMConfig       `toml:"llm"`
	Dashboard   DashboardConfig `toml:"dashboard"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig locates the settings database directory.
type BadgerConfig struct {
	Path string `toml:"path" validate:"required"`
}

// MarketConfig selects and configures the market-data provider.
type MarketConfig struct {
	Provider string      `toml:"provider" validate:"omitempty,oneof=yahoo eodhd"`
	Timeout  string      `toml:"timeout"`
	EODHD    EODHDConfig `toml:"eodhd"`
}

// GetTimeout bounds one provider request. Defaults to 30s.
func (c *MarketConfig) GetTimeout() time.Duration {
	return durationOr(c.Timeout, 30*time.Second)
}

type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit" validate:"min=0"`
	// Exchange is appended to bare tickers, e.g. "US" turns AAPL into AAPL.US.
	Exchange string `toml:"exchange"`
}

// LLMConfig holds the language-model settings used for comparative analysis.
type LLMConfig struct {
	DefaultProvider string       `toml:"default_provider" validate:"omitempty,oneof=openai claude gemini"`
	Timeout         string       `toml:"timeout"`
	OpenAI          OpenAIConfig `toml:"openai"`
	Claude          ClaudeConfig `toml:"claude"`
	Gemini          GeminiConfig `toml:"gemini"`
}

// GetTimeout bounds one completion. Defaults to 2m.
func (c *LLMConfig) GetTimeout() time.Duration {
	return durationOr(c.Timeout, 2*time.Minute)
}

type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens" validate:"min=0"`
}

type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// DashboardConfig holds defaults for the comparison page.
type DashboardConfig struct {
	DefaultTickers      []string `toml:"default_tickers" validate:"max=2"`
	DefaultLookbackDays int      `toml:"default_lookback_days" validate:"min=0"`
	SnapshotTTL         string   `toml:"snapshot_ttl"`
	MaxSnapshots        int      `toml:"max_snapshots" validate:"min=0"`
}

// GetSnapshotTTL is how long a rendered comparison stays available to the
// export and analysis actions. Defaults to 30m.
func (c *DashboardConfig) GetSnapshotTTL() time.Duration {
	return durationOr(c.SnapshotTTL, 30*time.Minute)
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`
	Format     string   `toml:"format" validate:"omitempty,oneof=text json"`
	Outputs    []string `toml:"outputs" validate:"dive,oneof=console file"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb" validate:"min=0"`
	MaxBackups int      `toml:"max_backups" validate:"min=0"`
}

// durationOr parses s, returning def when s is empty, malformed or not positive.
func durationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// IsDevMode reports whether the environment is "dev".
func (c *Config) IsDevMode() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "dev")
}

// BaseURL is the URL the server announces on startup.
func (c *Config) BaseURL() string {
	return "http://" + net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

var configValidator = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.Split(f.Tag.Get("toml"), ",")[0]
	})
	return v
}()

// Validate returns one message per invalid setting, naming it by its TOML key.
func (c *Config) Validate() []string {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	issues := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Config.server.port"; drop the root type name.
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		issues = append(issues, fmt.Sprintf("%s: %v fails %s", key, fe.Value(), describeRule(fe)))
	}
	return issues
}

func describeRule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// LoadFromFiles layers each TOML file over the defaults in order, then
// applies environment overrides. Empty paths are skipped.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return nil, fmt.Errorf("parse %s:%d:%d: %w", path, row, col, err)
			}
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	config.Environment = normalizeEnvironment(config.Environment)

	return config, nil
}

// envOverrides maps COMPARE_* variables onto config fields.
var envOverrides = []struct {
	name  string
	apply func(c *Config, v string)
}{
	{"COMPARE_ENV", func(c *Config, v string) { c.Environment = v }},
	{"COMPARE_SERVER_PORT", func(c *Config, v string) {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}},
	{"COMPARE_SERVER_HOST", func(c *Config, v string) { c.Server.Host = v }},
	{"COMPARE_BADGER_PATH", func(c *Config, v string) { c.Storage.Badger.Path = v }},
	{"COMPARE_MARKET_PROVIDER", func(c *Config, v string) { c.Market.Provider = strings.ToLower(v) }},
	{"COMPARE_LLM_PROVIDER", func(c *Config, v string) { c.LLM.DefaultProvider = strings.ToLower(v) }},
	{"COMPARE_LOG_LEVEL", func(c *Config, v string) { c.Logging.Level = strings.ToLower(v) }},
	{"COMPARE_LOG_FORMAT", func(c *Config, v string) { c.Logging.Format = strings.ToLower(v) }},
}

func applyEnvOverrides(config *Config) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			o.apply(config, v)
		}
	}
}

// ApplyFlagOverrides sets the port and host given on the command line.
// Zero values leave config unchanged.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// normalizeEnvironment shortens "development" and "production".
func normalizeEnvironment(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development":
		return "dev"
	case "production":
		return "prod"
	default:
		return env
	}
}
