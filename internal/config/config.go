package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Language model
	Provider            string  `mapstructure:"provider" yaml:"provider"`
	APIKey              string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL             string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model               string  `mapstructure:"model" yaml:"model"`
	AnalyzeMaxTokens    int     `mapstructure:"analyze_max_tokens" yaml:"analyze_max_tokens"`
	SynthesizeMaxTokens int     `mapstructure:"synthesize_max_tokens" yaml:"synthesize_max_tokens"`
	Temperature         float64 `mapstructure:"temperature" yaml:"temperature"`
	LLMTimeoutSec       int     `mapstructure:"llm_timeout_sec" yaml:"llm_timeout_sec"`
	BreakerFailures     int     `mapstructure:"breaker_failures" yaml:"breaker_failures"`
	BreakerCooldownSec  int     `mapstructure:"breaker_cooldown_sec" yaml:"breaker_cooldown_sec"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Server and data
	Addr       string `mapstructure:"addr" yaml:"addr"`
	DataPath   string `mapstructure:"data_path" yaml:"data_path,omitempty"`
	XLSXSheet  string `mapstructure:"xlsx_sheet" yaml:"xlsx_sheet,omitempty"`
	ParseDates bool   `mapstructure:"parse_dates" yaml:"parse_dates"`
	WatchData  bool   `mapstructure:"watch_data" yaml:"watch_data"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Providers accepted by the provider key.
var Providers = []string{"openrouter", "openai", "ollama", "none"}

// LLMTimeout returns LLMTimeoutSec as a duration.
func (c *Global) LLMTimeout() time.Duration { return time.Duration(c.LLMTimeoutSec) * time.Second }

// BreakerCooldown returns BreakerCooldownSec as a duration.
func (c *Global) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSec) * time.Second
}

// DefaultDir is ~/.dqagent.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".dqagent"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dqagent/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// The file may hold an API key.
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "none")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("model", "")
	v.SetDefault("analyze_max_tokens", 500)
	v.SetDefault("synthesize_max_tokens", 1500)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("llm_timeout_sec", 30)
	v.SetDefault("breaker_failures", 3)
	v.SetDefault("breaker_cooldown_sec", 30)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("addr", ":8000")
	v.SetDefault("data_path", "")
	v.SetDefault("xlsx_sheet", "")
	v.SetDefault("parse_dates", false)
	v.SetDefault("watch_data", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DQAGENT")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no component can run with.
func (c *Global) Validate() error {
	if !validProvider(c.Provider) {
		return fmt.Errorf("invalid provider: %s (use %s)", c.Provider, strings.Join(Providers, ", "))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature)
	}
	if c.AnalyzeMaxTokens < 0 || c.SynthesizeMaxTokens < 0 {
		return fmt.Errorf("token budgets must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log_format: %s (use text or json)", c.LogFormat)
	}
	return nil
}

func validProvider(p string) bool {
	for _, v := range Providers {
		if p == v {
			return true
		}
	}
	return false
}

// Set assigns one key from its string form, as typed on the command line.
func (c *Global) Set(key, val string) error {
	ints := map[string]*int{
		"analyze_max_tokens":    &c.AnalyzeMaxTokens,
		"synthesize_max_tokens": &c.SynthesizeMaxTokens,
		"llm_timeout_sec":       &c.LLMTimeoutSec,
		"breaker_failures":      &c.BreakerFailures,
		"breaker_cooldown_sec":  &c.BreakerCooldownSec,
		"http_timeout_sec":      &c.HTTPTimeoutSec,
		"retry_max_attempts":    &c.RetryMaxAttempts,
		"retry_base_delay_ms":   &c.RetryBaseDelayMs,
		"retry_max_delay_ms":    &c.RetryMaxDelayMs,
	}
	if dst, ok := ints[key]; ok {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*dst = i
		return nil
	}
	switch key {
	case "provider":
		p := strings.ToLower(val)
		if p == "local" {
			p = "ollama"
		}
		if !validProvider(p) {
			return fmt.Errorf("invalid provider: %s (use %s)", val, strings.Join(Providers, ", "))
		}
		c.Provider = p
	case "api_key":
		c.APIKey = val
	case "base_url":
		c.BaseURL = val
	case "model":
		c.Model = val
	case "temperature":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %v", val)
		}
		c.Temperature = f
	case "ollama_host":
		c.OllamaHost = val
	case "addr":
		c.Addr = val
	case "data_path":
		c.DataPath = val
	case "xlsx_sheet":
		c.XLSXSheet = val
	case "parse_dates", "watch_data":
		b, perr := strconv.ParseBool(val)
		if perr != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		if key == "parse_dates" {
			c.ParseDates = b
		} else {
			c.WatchData = b
		}
	case "log_level":
		c.LogLevel = val
	case "log_format":
		f := strings.ToLower(val)
		if f != "text" && f != "json" {
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
		c.LogFormat = f
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
