package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type STTConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	Concurrency       int           `yaml:"concurrency"`       // max concurrent transcriptions
	MaxDownloadMB     int           `yaml:"max_download_mb"`   // recording size ceiling
	DownloadTimeout   time.Duration `yaml:"download_timeout"`  // audio GET
	TranscribeTimeout time.Duration `yaml:"transcribe_timeout"`// STT call
	SegmentTimeout    time.Duration `yaml:"segment_timeout"`   // role segmentation call
	SegmentRoles      bool          `yaml:"segment_roles"`
}

type AnalysisConfig struct {
	Provider            string        `yaml:"provider"` // openai-compatible | gemini
	APIKey              string        `yaml:"api_key"`
	BaseURL             string        `yaml:"base_url"`
	Model               string        `yaml:"model"`
	Timeout             time.Duration `yaml:"timeout"`
	ConcurrentLimit     int           `yaml:"concurrent_limit"` // max concurrent model calls
	MaxPromptTokens     int           `yaml:"max_prompt_tokens"`
	RubricVersion       string        `yaml:"rubric_version"`
	AlertRulesVersion   string        `yaml:"alert_rules_version"`
	ShortCallSec        int           `yaml:"short_call_sec"`
	NonEvaluableIntents []string      `yaml:"non_evaluable_intents"`
	AlertScoreThreshold int           `yaml:"alert_score_threshold"` // escalate below this total
	AlertSentimentFloor int           `yaml:"alert_sentiment_floor"` // escalate at or below this sentiment
}

type QueueConfig struct {
	BatchLimit   int           `yaml:"batch_limit"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Source       string        `yaml:"source"` // origin CRM tag for markers
}

type NotifyConfig struct {
	TelegramToken string `yaml:"telegram_token"`
	ChatID        int64  `yaml:"chat_id"`
}

type OpsConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	STT      STTConfig      `yaml:"stt"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Queue    QueueConfig    `yaml:"queue"`
	Notify   NotifyConfig   `yaml:"notify"`
	Ops      OpsConfig      `yaml:"ops"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Ops.JWTSecret == "" && !dev {
		return nil, errors.New("ops.jwt_secret is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills zero values with the documented defaults. Exported so
// tests can build configs the same way LoadConfig does.
func (cfg *Config) ApplyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.STT.BaseURL == "" {
		cfg.STT.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.STT.Model == "" {
		cfg.STT.Model = "whisper-1"
	}
	if cfg.STT.Concurrency <= 0 {
		cfg.STT.Concurrency = 2
	}
	if cfg.STT.MaxDownloadMB <= 0 {
		cfg.STT.MaxDownloadMB = 60
	}
	if cfg.STT.DownloadTimeout <= 0 {
		cfg.STT.DownloadTimeout = 30 * time.Second
	}
	if cfg.STT.TranscribeTimeout <= 0 {
		cfg.STT.TranscribeTimeout = 120 * time.Second
	}
	if cfg.STT.SegmentTimeout <= 0 {
		cfg.STT.SegmentTimeout = 60 * time.Second
	}
	if cfg.Analysis.Provider == "" {
		cfg.Analysis.Provider = "openai-compatible"
	}
	if cfg.Analysis.Model == "" {
		cfg.Analysis.Model = "gpt-4o-mini"
	}
	if cfg.Analysis.Timeout <= 0 {
		cfg.Analysis.Timeout = 60 * time.Second
	}
	if cfg.Analysis.ConcurrentLimit <= 0 {
		cfg.Analysis.ConcurrentLimit = 4
	}
	if cfg.Analysis.MaxPromptTokens <= 0 {
		cfg.Analysis.MaxPromptTokens = 6000
	}
	if cfg.Analysis.RubricVersion == "" {
		cfg.Analysis.RubricVersion = "v1"
	}
	if cfg.Analysis.AlertRulesVersion == "" {
		cfg.Analysis.AlertRulesVersion = "v1"
	}
	if cfg.Analysis.ShortCallSec <= 0 {
		cfg.Analysis.ShortCallSec = 25
	}
	if len(cfg.Analysis.NonEvaluableIntents) == 0 {
		cfg.Analysis.NonEvaluableIntents = []string{"short", "info", "misroute", "ivr_only"}
	}
	if cfg.Analysis.AlertScoreThreshold <= 0 {
		cfg.Analysis.AlertScoreThreshold = 40
	}
	if cfg.Analysis.AlertSentimentFloor == 0 {
		cfg.Analysis.AlertSentimentFloor = -2
	}
	if cfg.Queue.BatchLimit <= 0 {
		cfg.Queue.BatchLimit = 10
	}
	if cfg.Queue.PollInterval <= 0 {
		cfg.Queue.PollInterval = 30 * time.Second
	}
	if cfg.Queue.Source == "" {
		cfg.Queue.Source = "crm"
	}
	if cfg.Ops.Port == 0 {
		cfg.Ops.Port = 8087
	}
}
