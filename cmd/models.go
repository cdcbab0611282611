package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dqagent/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show known models with context size and pricing",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := map[string]string{}
		for _, p := range []string{ai.ProviderOpenRouter, ai.ProviderOpenAI, ai.ProviderOllama} {
			if m, ok := ai.DefaultModel(p); ok {
				defaults[m] = p
			}
		}
		rows := []table.Row{}
		for _, mi := range ai.Catalog() {
			price := "-"
			if mi.InputPerK > 0 || mi.OutputPerK > 0 {
				price = fmt.Sprintf("$%.5f / $%.5f", mi.InputPerK, mi.OutputPerK)
			}
			rows = append(rows, table.Row{mi.Name, mi.ContextTokens, price, defaults[mi.Name]})
		}
		renderTable(cmd.OutOrStdout(), "", table.Row{"Model", "Context", "Per 1K in / out", "Default for"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
