package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/steveyegge/graphengine"
)

// outputJSON pretty-prints v to stdout as JSON.
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// outputJSONError writes err as a JSON object to stderr and exits 1.
func outputJSONError(err error, code string) {
	obj := map[string]string{"error": err.Error()}
	if code != "" {
		obj["code"] = code
	}
	encoder := json.NewEncoder(os.Stderr)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(obj)
	os.Exit(1)
}

// errorCode extracts the engine error kind name from err, empty if err did
// not originate from the engine's taxonomy.
func errorCode(err error) string {
	var ge *graphengine.Error
	if errors.As(err, &ge) {
		return ge.Kind.String()
	}
	return ""
}

// fail prints err (as JSON if --json is set, else plain text) and exits 1.
func fail(err error, code string) {
	if jsonOutput {
		outputJSONError(err, code)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
