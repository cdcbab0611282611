package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dqagent/internal/server"
)

var (
	serveAddr  string
	serveData  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (chat, tools, dataset upload, metrics)",
	Example: `  dqagent serve --data ./campaigns.csv
  dqagent serve --addr :9000 --data ./campaigns.xlsx --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			c.Addr = serveAddr
		}
		if cmd.Flags().Changed("watch") {
			c.WatchData = serveWatch
		}
		a, err := newApp(c, serveData)
		if err != nil {
			return err
		}
		watched := serveData
		if watched == "" {
			watched = c.DataPath
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(server.Config{
			Addr:     c.Addr,
			Agent:    a.agent,
			Gatherer: a.promReg,
			DataPath: watched,
			Watch:    c.WatchData,
		}).Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveData, "data", "", "dataset to load at startup (overrides data_path)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the dataset when the file changes")
}
