package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/dqagent/internal/config"
	"github.com/KaramelBytes/dqagent/internal/logging"
)

// Version is set at build time.
var Version = "dev"

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string
	// Model flags (override config if set)
	flagProvider string
	flagModel    string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "dqagent",
	Short: "Data quality agent for marketing campaign data",
	Long: `dqagent checks, repairs and explains marketing campaign datasets (CSV/TSV/XLSX).
It validates schema and missing values, removes duplicates, detects outliers,
measures completeness and answers analytical questions, either directly or
through a conversational agent backed by OpenRouter, OpenAI or Ollama.`,
	SilenceUsage: true,
	Version:      Version,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.dqagent/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "language model provider: openrouter|openai|ollama|none (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "language model name (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("provider") {
		if err := cfg.Set("provider", flagProvider); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		}
	}
	if f.Changed("model") {
		cfg.Model = flagModel
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if f.Changed("log-format") {
		cfg.LogFormat = logFormat
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if debug {
		level = logging.ParseLevel("debug")
	}
	// Logs go to stderr so stdout stays clean for results and the MCP stdio transport.
	logging.Init(level, cfg.LogFormat, os.Stderr)
}

// requireConfig returns the loaded configuration or the defaults.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}
