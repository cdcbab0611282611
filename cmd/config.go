package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/dqagent/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set dqagent configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "provider: %s\n", cfg.Provider)
		fmt.Fprintf(out, "api_key: %s\n", mask(cfg.APIKey))
		if cfg.BaseURL != "" {
			fmt.Fprintf(out, "base_url: %s\n", cfg.BaseURL)
		}
		fmt.Fprintf(out, "model: %s\n", cfg.Model)
		fmt.Fprintf(out, "analyze_max_tokens: %d\n", cfg.AnalyzeMaxTokens)
		fmt.Fprintf(out, "synthesize_max_tokens: %d\n", cfg.SynthesizeMaxTokens)
		fmt.Fprintf(out, "temperature: %.3f\n", cfg.Temperature)
		fmt.Fprintf(out, "llm_timeout_sec: %d\n", cfg.LLMTimeoutSec)
		fmt.Fprintf(out, "breaker_failures: %d\n", cfg.BreakerFailures)
		fmt.Fprintf(out, "breaker_cooldown_sec: %d\n", cfg.BreakerCooldownSec)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		if cfg.Provider == "ollama" {
			fmt.Fprintf(out, "ollama_host: %s\n", cfg.OllamaHost)
		}
		fmt.Fprintf(out, "addr: %s\n", cfg.Addr)
		if cfg.DataPath != "" {
			fmt.Fprintf(out, "data_path: %s\n", cfg.DataPath)
		}
		if cfg.XLSXSheet != "" {
			fmt.Fprintf(out, "xlsx_sheet: %s\n", cfg.XLSXSheet)
		}
		fmt.Fprintf(out, "parse_dates: %t\n", cfg.ParseDates)
		fmt.Fprintf(out, "watch_data: %t\n", cfg.WatchData)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
