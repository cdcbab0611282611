package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dqagent/internal/mcpserver"
)

var mcpData string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the data-quality tools over MCP (stdio)",
	Long: `Runs a Model Context Protocol server on stdin/stdout exposing validate_data,
fix_data, detect_anomalies, check_completeness, get_insights, load_dataset and
process_query. Logs are written to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		a, err := newApp(c, mcpData)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return mcpserver.NewServer(a.agent, Version).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpData, "data", "", "dataset to load at startup (overrides data_path)")
}
