package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/graphengine"
)

var (
	diffFrom     string
	diffTo       string
	diffTopology bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Diff two commit references",
	Long: `Diffs --from against --to and reports the six-count node/edge change
summary. With --topology, reports only structural adds/deletes (no
modification counts); the same full diff is computed either way.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		diffArgs := graphengine.DiffArgs{
			From: refFromString(diffFrom),
			To:   refFromString(diffTo),
		}

		if diffTopology {
			result, err := engine.TopologyDelta(rootCtx, diffArgs)
			if err != nil {
				fail(err, errorCode(err))
				return nil
			}
			if jsonOutput {
				outputJSON(result)
			} else {
				fmt.Printf("node +%d/-%d  edge +%d/-%d\n", result.NodeAdds, result.NodeDels, result.EdgeAdds, result.EdgeDels)
			}
			return nil
		}

		result, err := engine.DiffSummary(rootCtx, diffArgs)
		if err != nil {
			fail(err, errorCode(err))
			return nil
		}
		if jsonOutput {
			outputJSON(result)
		} else {
			fmt.Printf("node +%d ~%d -%d  edge +%d ~%d -%d\n",
				result.NodeAdds, result.NodeMods, result.NodeDels,
				result.EdgeAdds, result.EdgeMods, result.EdgeDels)
		}
		return nil
	},
}

func init() {
	diffCmd.Flags().StringVar(&diffFrom, "from", "", `Commit id, branch name, or "branch@commit"`)
	diffCmd.Flags().StringVar(&diffTo, "to", "", `Commit id, branch name, or "branch@commit"`)
	diffCmd.Flags().BoolVar(&diffTopology, "topology", false, "Report structural adds/deletes only")
	_ = diffCmd.MarkFlagRequired("from")
	_ = diffCmd.MarkFlagRequired("to")
}
