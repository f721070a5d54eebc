package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logBranch string

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List a branch's commit history, root to head",
	RunE: func(cmd *cobra.Command, args []string) error {
		commits, err := engine.ListCommits(rootCtx, logBranch)
		if err != nil {
			fail(err, errorCode(err))
			return nil
		}

		if jsonOutput {
			outputJSON(commits)
			return nil
		}
		for _, c := range commits {
			fmt.Printf("%s  %s  %s\n", c.ID, c.Time, c.Message)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().StringVar(&logBranch, "branch", "main", "Branch to list")
}
