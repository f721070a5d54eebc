package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/graphengine"
)

var (
	stateAt         string
	stateScenario   string
	stateConfidence string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show node/edge counts for a resolved commit reference",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := engine.StateAt(rootCtx, graphengine.StateAtArgs{
			AsOf:       refFromString(stateAt),
			Scenario:   stateScenario,
			Confidence: stateConfidence,
		})
		if err != nil {
			fail(err, errorCode(err))
			return nil
		}

		if jsonOutput {
			outputJSON(result)
			return nil
		}
		fmt.Printf("%s  nodes=%d edges=%d\n", result.AsOf, result.Nodes, result.Edges)
		return nil
	},
}

func init() {
	stateCmd.Flags().StringVar(&stateAt, "at", "main", `Commit id, branch name, or "branch@commit"`)
	stateCmd.Flags().StringVar(&stateScenario, "scenario", "", "Branch whose head is used when --at names neither a known commit nor a branch")
	stateCmd.Flags().StringVar(&stateConfidence, "confidence", "", "Confidence label to echo back in the result")
}
