package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dqagent/internal/utils"
)

var (
	invokeData   string
	invokeParams string
	invokeSet    []string
	invokeOutput string
	invokeSave   string
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <tool>",
	Short: "Run one tool directly and print its JSON result",
	Example: `  dqagent invoke validate_data --data campaigns.csv
  dqagent invoke detect_anomalies --data campaigns.csv --params '{"columns": ["clicks", "cost"]}'
  dqagent invoke get_insights --data campaigns.csv --set query="show trends" --set visualization=true
  dqagent invoke fix_data --data campaigns.csv --save-data fixed.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseInvokeParams(invokeParams, invokeSet)
		if err != nil {
			return err
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		a, err := newApp(c, invokeData)
		if err != nil {
			return err
		}
		res, err := a.registry.Invoke(context.Background(), args[0], params)
		if err != nil {
			return err
		}
		b, err := utils.PrettyJSON(res)
		if err != nil {
			return err
		}
		if invokeOutput != "" {
			if err := utils.SafeWriteFile(invokeOutput, b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote result to %s\n", invokeOutput)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
		}
		if invokeSave != "" {
			ds, err := a.registry.Store().Snapshot()
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(invokeSave, ds.CSV()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved dataset (%d rows) to %s\n", ds.Rows(), invokeSave)
		}
		if !res.OK() {
			return fmt.Errorf("%s: %s", res.Tool, res.Error)
		}
		return nil
	},
}

// parseInvokeParams merges a JSON object with key=value pairs. Values from
// --set are decoded as JSON when possible and kept as strings otherwise.
func parseInvokeParams(raw string, pairs []string) (map[string]any, error) {
	params := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return nil, fmt.Errorf("invalid --params JSON: %w", err)
		}
	}
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q (want key=value)", kv)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			params[k] = decoded
		} else {
			params[k] = v
		}
	}
	return params, nil
}

func init() {
	rootCmd.AddCommand(invokeCmd)
	invokeCmd.Flags().StringVar(&invokeData, "data", "", "dataset to run on (overrides data_path)")
	invokeCmd.Flags().StringVar(&invokeParams, "params", "", "tool parameters as a JSON object")
	invokeCmd.Flags().StringArrayVar(&invokeSet, "set", nil, "tool parameter as key=value (repeatable)")
	invokeCmd.Flags().StringVarP(&invokeOutput, "output", "o", "", "write the JSON result to a file")
	invokeCmd.Flags().StringVar(&invokeSave, "save-data", "", "write the resulting dataset as CSV (useful after fix_data)")
}
