package config

import (
	"os"
	"strconv"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/avelume/tutorialcast/internal/fault"
)

// Config is the explicit configuration value passed to every component at
// construction. Values are layered: compiled-in defaults, then an optional
// YAML file, then environment variables, then Options.
//
// Environment Variables:
//
// LLM (text collaborator):
//   - LLM_API_KEY: API key for the text provider (empty key disables the
//     collaborator; the planner runs on fallback text alone)
//   - LLM_API_URL: API endpoint URL (default: https://openrouter.ai/api/v1)
//   - LLM_MODEL: Model name (default: openai/gpt-3.5-turbo)
//   - LLM_MAX_TOKENS: Maximum tokens for responses (default: 1000)
//   - LLM_TEMPERATURE: Temperature for responses (default: 0.7)
//   - LLM_TIMEOUT: Request timeout in seconds (default: 30)
//
// Voice (narration collaborator):
//   - TTS_API_URL: Voice synthesis endpoint (required)
//   - TTS_VOICE_PRESET: Fixed voice preset; empty enables language detection
//   - TTS_TIMEOUT: Request timeout in seconds (default: 120)
//   - TTS_DEFAULT_LANGUAGE: Narration language when detection is unreliable (default: es)
//
// Image (visual collaborator):
//   - IMAGE_API_URL: Image generation endpoint (default: https://image.pollinations.ai)
//   - IMAGE_MODEL: Model query parameter (default: flux)
//   - IMAGE_TIMEOUT: Request timeout in seconds (default: 60)
//   - IMAGE_CONCURRENCY: Parallel image generations per run (default: 2)
//
// Storage:
//   - OUTPUT_DIR: Final artifacts root (default: output)
//   - CACHE_DIR: Script cache directory (default: cache/scripts)
//   - CACHE_BACKEND: "file" or "sqlite" (default: file)
//   - CACHE_DB_PATH: SQLite database path (default: cache/scripts.db)
//   - CACHE_TTL_DAYS: Script cache freshness window (default: 7)
//   - TEMP_DIR: Per-run scratch space (default: temp)
//   - KNOWLEDGE_BASE: Category rules JSON path (default: cache/knowledge_base.json)
//
// Service:
//   - CRON_EXPR: Batch schedule (default: 0 6 * * *)
//   - TOPICS_FILE: YAML batch file for scheduled runs
//   - LOG_LEVEL: debug|info|warn|error (default: info)
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Voice   VoiceConfig   `yaml:"voice"`
	Image   ImageConfig   `yaml:"image"`
	Storage StorageConfig `yaml:"storage"`
	Service ServiceConfig `yaml:"service"`
}

// LLMConfig configures the text-generation collaborator.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	APIURL      string  `yaml:"api_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Timeout     int     `yaml:"timeout"`
}

// Enabled reports whether a live text collaborator is configured. Without a
// key the planner still works, producing fallback text for every section.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// VoiceConfig configures the narration collaborator.
type VoiceConfig struct {
	APIURL string `yaml:"api_url"`
	// Preset pins the voice; empty means detect the narration language and
	// pick from the preset table.
	Preset          string  `yaml:"preset"`
	Temperature     float64 `yaml:"temperature"`
	Timeout         int     `yaml:"timeout"`
	DefaultLanguage string  `yaml:"default_language"`
}

// DefaultLanguageTag parses the configured default narration language.
func (c VoiceConfig) DefaultLanguageTag() language.Tag {
	tag, err := language.Parse(c.DefaultLanguage)
	if err != nil {
		return language.Spanish
	}
	return tag
}

// ImageConfig configures the visual collaborator.
type ImageConfig struct {
	APIURL      string `yaml:"api_url"`
	Model       string `yaml:"model"`
	Timeout     int    `yaml:"timeout"`
	Concurrency int    `yaml:"concurrency"`
}

// StorageConfig groups directories and the cache backend selection.
type StorageConfig struct {
	OutputDir     string `yaml:"output_dir"`
	CacheDir      string `yaml:"cache_dir"`
	CacheBackend  string `yaml:"cache_backend"`
	CacheDBPath   string `yaml:"cache_db_path"`
	CacheTTLDays  int    `yaml:"cache_ttl_days"`
	TempDir       string `yaml:"temp_dir"`
	KnowledgeBase string `yaml:"knowledge_base"`
}

// ServiceConfig configures the scheduled batch runner.
type ServiceConfig struct {
	CronExpr   string `yaml:"cron_expr"`
	TopicsFile string `yaml:"topics_file"`
	LogLevel   string `yaml:"log_level"`
}

// Option is a function type for adjusting Config after the layered load.
type Option func(*Config)

// New builds a Config from defaults, an optional YAML file, environment
// variables, and options, in that order. Validation failures carry
// fault.ErrConfig.
func New(yamlPath string, opts ...Option) (*Config, error) {
	cfg := defaults()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, fault.Wrap(fault.ErrConfig, "read config file", err).
				WithContext("path", yamlPath)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fault.Wrap(fault.ErrConfig, "parse config file", err).
				WithContext("path", yamlPath)
		}
	}

	cfg.applyEnv()

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			APIURL:      "https://openrouter.ai/api/v1",
			Model:       "openai/gpt-3.5-turbo",
			MaxTokens:   1000,
			Temperature: 0.7,
			Timeout:     30,
		},
		Voice: VoiceConfig{
			Temperature:     0.7,
			Timeout:         120,
			DefaultLanguage: "es",
		},
		Image: ImageConfig{
			APIURL:      "https://image.pollinations.ai",
			Model:       "flux",
			Timeout:     60,
			Concurrency: 2,
		},
		Storage: StorageConfig{
			OutputDir:     "output",
			CacheDir:      "cache/scripts",
			CacheBackend:  "file",
			CacheDBPath:   "cache/scripts.db",
			CacheTTLDays:  7,
			TempDir:       "temp",
			KnowledgeBase: "cache/knowledge_base.json",
		},
		Service: ServiceConfig{
			CronExpr: "0 6 * * *",
			LogLevel: "info",
		},
	}
}

func (c *Config) applyEnv() {
	c.LLM.APIKey = getEnvString("LLM_API_KEY", c.LLM.APIKey)
	c.LLM.APIURL = getEnvString("LLM_API_URL", c.LLM.APIURL)
	c.LLM.Model = getEnvString("LLM_MODEL", c.LLM.Model)
	c.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvInt("LLM_TIMEOUT", c.LLM.Timeout)

	c.Voice.APIURL = getEnvString("TTS_API_URL", c.Voice.APIURL)
	c.Voice.Preset = getEnvString("TTS_VOICE_PRESET", c.Voice.Preset)
	c.Voice.Timeout = getEnvInt("TTS_TIMEOUT", c.Voice.Timeout)
	c.Voice.DefaultLanguage = getEnvString("TTS_DEFAULT_LANGUAGE", c.Voice.DefaultLanguage)

	c.Image.APIURL = getEnvString("IMAGE_API_URL", c.Image.APIURL)
	c.Image.Model = getEnvString("IMAGE_MODEL", c.Image.Model)
	c.Image.Timeout = getEnvInt("IMAGE_TIMEOUT", c.Image.Timeout)
	c.Image.Concurrency = getEnvInt("IMAGE_CONCURRENCY", c.Image.Concurrency)

	c.Storage.OutputDir = getEnvString("OUTPUT_DIR", c.Storage.OutputDir)
	c.Storage.CacheDir = getEnvString("CACHE_DIR", c.Storage.CacheDir)
	c.Storage.CacheBackend = getEnvString("CACHE_BACKEND", c.Storage.CacheBackend)
	c.Storage.CacheDBPath = getEnvString("CACHE_DB_PATH", c.Storage.CacheDBPath)
	c.Storage.CacheTTLDays = getEnvInt("CACHE_TTL_DAYS", c.Storage.CacheTTLDays)
	c.Storage.TempDir = getEnvString("TEMP_DIR", c.Storage.TempDir)
	c.Storage.KnowledgeBase = getEnvString("KNOWLEDGE_BASE", c.Storage.KnowledgeBase)

	c.Service.CronExpr = getEnvString("CRON_EXPR", c.Service.CronExpr)
	c.Service.TopicsFile = getEnvString("TOPICS_FILE", c.Service.TopicsFile)
	c.Service.LogLevel = getEnvString("LOG_LEVEL", c.Service.LogLevel)
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	if c.Voice.APIURL == "" {
		return fault.New(fault.ErrConfig, "TTS_API_URL is required")
	}
	if c.Image.APIURL == "" {
		return fault.New(fault.ErrConfig, "IMAGE_API_URL is required")
	}
	if c.LLM.Enabled() {
		if c.LLM.APIURL == "" {
			return fault.New(fault.ErrConfig, "LLM_API_URL is required when LLM_API_KEY is set")
		}
		if c.LLM.MaxTokens < 1 {
			return fault.New(fault.ErrConfig, "LLM_MAX_TOKENS must be greater than 0")
		}
		if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
			return fault.New(fault.ErrConfig, "LLM_TEMPERATURE must be between 0 and 2")
		}
	}
	switch c.Storage.CacheBackend {
	case "file", "sqlite":
	default:
		return fault.New(fault.ErrConfig, "CACHE_BACKEND must be file or sqlite").
			WithContext("backend", c.Storage.CacheBackend)
	}
	if c.Storage.CacheTTLDays < 1 {
		return fault.New(fault.ErrConfig, "CACHE_TTL_DAYS must be at least 1")
	}
	if c.Image.Concurrency < 1 {
		return fault.New(fault.ErrConfig, "IMAGE_CONCURRENCY must be at least 1")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
