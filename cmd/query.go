package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dqagent/internal/utils"
)

var (
	queryData string
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query <question...>",
	Short: "Ask the agent a question about a dataset",
	Example: `  dqagent query --data campaigns.csv "Are there data quality issues?"
  dqagent query --data campaigns.csv --provider none "Which campaign had the most clicks?"
  dqagent query --data campaigns.csv --json "find outliers"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		a, err := newApp(c, queryData)
		if err != nil {
			return err
		}
		resp := a.agent.Process(context.Background(), strings.Join(args, " "))
		out := cmd.OutOrStdout()
		if queryJSON {
			b, err := utils.PrettyJSON(resp)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(b))
			return err
		}
		renderResponse(out, resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryData, "data", "", "dataset to query (overrides data_path)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the full response as JSON")
}
