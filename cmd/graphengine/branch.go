package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/graphengine"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Create and list branches",
}

var branchCreateFrom string

var branchCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fromRef *graphengine.CommitRef
		if branchCreateFrom != "" {
			r := refFromString(branchCreateFrom)
			fromRef = &r
		}

		info, err := engine.CreateBranch(rootCtx, args[0], fromRef)
		if err != nil {
			fail(err, errorCode(err))
			return nil
		}

		if jsonOutput {
			outputJSON(info)
		} else {
			head := "(empty)"
			if info.Head != nil {
				head = *info.Head
			}
			fmt.Printf("%s -> %s\n", info.Name, head)
		}
		return nil
	},
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all branches",
	RunE: func(cmd *cobra.Command, args []string) error {
		branches, err := engine.ListBranches(rootCtx)
		if err != nil {
			fail(err, errorCode(err))
			return nil
		}

		if jsonOutput {
			outputJSON(branches)
			return nil
		}
		for _, b := range branches {
			head := "(empty)"
			if b.Head != nil {
				head = *b.Head
			}
			fmt.Printf("%-20s %s\n", b.Name, head)
		}
		return nil
	},
}

func init() {
	branchCreateCmd.Flags().StringVar(&branchCreateFrom, "from", "", "Starting commit id or branch name (default: main's head)")
	branchCmd.AddCommand(branchCreateCmd)
	branchCmd.AddCommand(branchListCmd)
}
