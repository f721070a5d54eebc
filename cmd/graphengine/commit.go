package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/graphengine"
)

var (
	commitBranch  string
	commitParent  string
	commitAuthor  string
	commitMessage string
	commitTags    []string
	commitFile    string
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Apply a changeset to a branch and record a commit",
	Long: `Applies a changeset (read from --file, or stdin when --file is "-") to the
named branch's current head and records the result as a new commit.

The changeset file is a JSON object with the six mutation sequences:
node_creates, node_updates, node_deletes, edge_creates, edge_updates,
edge_deletes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := graphengine.CommitRequest{
			Branch:  commitBranch,
			Author:  commitAuthor,
			Message: commitMessage,
			Tags:    commitTags,
		}
		if commitParent != "" {
			req.Parent = &commitParent
		}

		raw, err := readChangesetInput(commitFile)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &req.Changes); err != nil {
			return fmt.Errorf("decode changeset: %w", err)
		}

		id, err := engine.Commit(rootCtx, req)
		if err != nil {
			fail(err, errorCode(err))
			return nil
		}

		if jsonOutput {
			outputJSON(map[string]string{"commit": id})
		} else {
			fmt.Println(id)
		}
		return nil
	},
}

func readChangesetInput(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required (use \"-\" for stdin)")
	}
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func init() {
	commitCmd.Flags().StringVar(&commitBranch, "branch", "main", "Branch to commit onto")
	commitCmd.Flags().StringVar(&commitParent, "parent", "", "Expected parent commit id (optimistic concurrency check)")
	commitCmd.Flags().StringVar(&commitAuthor, "author", "", "Commit author")
	commitCmd.Flags().StringVar(&commitMessage, "message", "", "Commit message")
	commitCmd.Flags().StringSliceVar(&commitTags, "tag", nil, "Tag to attach to the commit (repeatable)")
	commitCmd.Flags().StringVar(&commitFile, "file", "", `Changeset JSON file ("-" for stdin)`)
}
