package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the resolved meta-model document",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := engine.MetaModel()

		if jsonOutput {
			outputJSON(doc)
			return nil
		}
		fmt.Printf("version: %s\n", doc.Version)
		for _, t := range doc.Types {
			fmt.Printf("  type %s\n", t.ID)
		}
		for _, r := range doc.Relationships {
			fmt.Printf("  rel  %s\n", r.ID)
		}
		return nil
	},
}
