package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/graphengine"
)

var (
	mergeSource string
	mergeTarget string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Three-way merge --source into --target",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := engine.Merge(rootCtx, graphengine.MergeRequest{
			Source: mergeSource,
			Target: mergeTarget,
		})
		if err != nil {
			fail(err, errorCode(err))
			return nil
		}

		if jsonOutput {
			outputJSON(resp)
			return nil
		}
		if len(resp.Conflicts) > 0 {
			fmt.Println("merge blocked by conflicts:")
			for _, c := range resp.Conflicts {
				fmt.Printf("  [%s] %s: %s\n", c.Kind, c.Reference, c.Message)
			}
			return nil
		}
		fmt.Println(*resp.Result)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeSource, "source", "", "Source branch")
	mergeCmd.Flags().StringVar(&mergeTarget, "target", "", "Target branch")
	_ = mergeCmd.MarkFlagRequired("source")
	_ = mergeCmd.MarkFlagRequired("target")
}
