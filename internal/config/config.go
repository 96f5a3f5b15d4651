// Package config handles reading and writing .ema-interview/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	orchestration "github.com/koscakluka/ema-interview/core"
)

// Config is the top-level structure for .ema-interview/config.yaml.
type Config struct {
	Version    int              `yaml:"version"`
	Session    SessionConfig    `yaml:"session"`
	Backend    BackendConfig    `yaml:"backend"`
	Assessment AssessmentConfig `yaml:"assessment"`
	Store      StoreConfig      `yaml:"store"`
	Speech     SpeechConfig     `yaml:"speech"`
	Timings    TimingsConfig    `yaml:"timings"`
}

type SessionConfig struct {
	Seed string `yaml:"seed"` // e.g. "00001-00001"
}

type BackendConfig struct {
	URL              string `yaml:"url"`
	RequestTimeoutMS int    `yaml:"request_timeout_ms"` // 0 disables
}

// AssessmentConfig selects who writes the assessment questions.
type AssessmentConfig struct {
	Provider      string `yaml:"provider"` // "backend" | "groq"
	GroqModel     string `yaml:"groq_model"`
	QuestionCount int    `yaml:"question_count"`
	JobAdFile     string `yaml:"job_ad_file"`
	QnAFile       string `yaml:"qna_file"`
	GroqAPIKey    string `yaml:"-"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // "memory" | "sqlite"
	Path   string `yaml:"path"`
}

type SpeechConfig struct {
	Enabled        bool   `yaml:"enabled"`
	AutoSpeak      bool   `yaml:"auto_speak"`
	AudioBackend   string `yaml:"audio_backend"` // "miniaudio" | "portaudio"
	Voice          string `yaml:"voice"`
	Model          string `yaml:"model"`
	Language       string `yaml:"language"`
	DeepgramAPIKey string `yaml:"-"`
}

// TimingsConfig holds every session duration in milliseconds.
type TimingsConfig struct {
	TickMS                 int `yaml:"tick_ms"`
	PreloadLeadMS          int `yaml:"preload_lead_ms"`
	AdvanceLeadMS          int `yaml:"advance_lead_ms"`
	QuestionTimeMS         int `yaml:"question_time_ms"`
	ActionDelayMS          int `yaml:"action_delay_ms"`
	FinishDelayMS          int `yaml:"finish_delay_ms"`
	InterviewActionDelayMS int `yaml:"interview_action_delay_ms"`
}

const (
	configDir  = ".ema-interview"
	configFile = "config.yaml"
)

const (
	ProviderBackend = "backend"
	ProviderGroq    = "groq"

	DriverMemory = "memory"
	DriverSQLite = "sqlite"

	AudioMiniaudio = "miniaudio"
	AudioPortaudio = "portaudio"
)

const (
	envGroqAPIKey     = "GROQ_API_KEY"
	envDeepgramAPIKey = "DEEPGRAM_API_KEY"
	envBackendURL     = "INTERVIEW_BACKEND_URL"
	envStorePath      = "INTERVIEW_STORE_PATH"
)

// ReadConfig reads .ema-interview/config.yaml from the given directory.
// Fields missing from the file keep their defaults.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configDir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to .ema-interview/config.yaml in the given directory.
// Creates the .ema-interview/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Load reads the config in dir, falling back to defaults when there is no
// file, and applies .env files and environment overrides.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if errors.Is(err, os.ErrNotExist) {
		cfg = DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	if err := loadDotEnv(dir); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads dir/.env when present. Variables already set win.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides secrets and locations from the environment.
func (c *Config) ApplyEnv() {
	if key := os.Getenv(envGroqAPIKey); key != "" {
		c.Assessment.GroqAPIKey = key
	}
	if key := os.Getenv(envDeepgramAPIKey); key != "" {
		c.Speech.DeepgramAPIKey = key
	}
	if url := strings.TrimSpace(os.Getenv(envBackendURL)); url != "" {
		c.Backend.URL = url
	}
	if path := strings.TrimSpace(os.Getenv(envStorePath)); path != "" {
		c.Store.Driver = DriverSQLite
		c.Store.Path = path
	}
}

func (c *Config) Validate() error {
	switch c.Assessment.Provider {
	case ProviderBackend, ProviderGroq:
	default:
		return fmt.Errorf("unknown assessment provider %q", c.Assessment.Provider)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("sqlite store needs a path")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Speech.AudioBackend {
	case AudioMiniaudio, AudioPortaudio:
	default:
		return fmt.Errorf("unknown audio backend %q", c.Speech.AudioBackend)
	}
	if c.Timings.TickMS <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", c.Timings.TickMS)
	}
	return nil
}

// SessionTimings converts the timings section to durations.
func (c *Config) SessionTimings() orchestration.Timings {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return orchestration.Timings{
		Tick:                 ms(c.Timings.TickMS),
		PreloadLead:          ms(c.Timings.PreloadLeadMS),
		AdvanceLead:          ms(c.Timings.AdvanceLeadMS),
		QuestionTime:         ms(c.Timings.QuestionTimeMS),
		ActionDelay:          ms(c.Timings.ActionDelayMS),
		FinishDelay:          ms(c.Timings.FinishDelayMS),
		InterviewActionDelay: ms(c.Timings.InterviewActionDelayMS),
	}
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeoutMS) * time.Millisecond
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	timings := orchestration.DefaultTimings()
	return &Config{
		Version: 1,
		Session: SessionConfig{
			Seed: "00001-00001",
		},
		Backend: BackendConfig{
			URL: "http://localhost:5000",
		},
		Assessment: AssessmentConfig{
			Provider:      ProviderBackend,
			GroqModel:     "openai/gpt-oss-120b",
			QuestionCount: 10,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
			Path:   filepath.Join(configDir, "session.db"),
		},
		Speech: SpeechConfig{
			Enabled:      false,
			AutoSpeak:    true,
			AudioBackend: AudioMiniaudio,
			Voice:        "aura-2-thalia-en",
			Model:        "nova-2",
			Language:     "tr",
		},
		Timings: TimingsConfig{
			TickMS:                 int(timings.Tick.Milliseconds()),
			PreloadLeadMS:          int(timings.PreloadLead.Milliseconds()),
			AdvanceLeadMS:          int(timings.AdvanceLead.Milliseconds()),
			QuestionTimeMS:         int(timings.QuestionTime.Milliseconds()),
			ActionDelayMS:          int(timings.ActionDelay.Milliseconds()),
			FinishDelayMS:          int(timings.FinishDelay.Milliseconds()),
			InterviewActionDelayMS: int(timings.InterviewActionDelay.Milliseconds()),
		},
	}
}
