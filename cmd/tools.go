package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dqagent/internal/dataset"
	"github.com/KaramelBytes/dqagent/internal/tools"
	"github.com/KaramelBytes/dqagent/internal/utils"
)

var toolsJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available data-quality tools and their parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := tools.NewRegistry(dataset.NewStore(dataset.Options{}), nil).List()
		if toolsJSON {
			b, err := utils.PrettyJSON(map[string]any{"tools": list})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		}
		renderToolList(cmd.OutOrStdout(), list)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "print descriptors as JSON")
}
