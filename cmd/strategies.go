package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List available strategy identifiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := registry.Identifiers()
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
