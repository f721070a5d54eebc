package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <commit>",
	Short: "Show node/edge counts for a specific commit id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := engine.StatsForCommit(rootCtx, args[0])
		if err != nil {
			fail(err, errorCode(err))
			return nil
		}

		if jsonOutput {
			outputJSON(result)
			return nil
		}
		fmt.Printf("nodes=%d edges=%d\n", result.Nodes, result.Edges)
		return nil
	},
}
