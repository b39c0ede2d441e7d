// Command treectl lists and extends a label tree from the command line,
// going through the same command and query buses as the HTTP API.
package main

import (
	"fmt"
	"io"
	"os"

	pkgerrors "labeltree/pkg/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err and, for store failures, where to look next
func reportError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
	if pkgerrors.IsStorageFailure(err) {
		fmt.Fprintln(w, "The node store could not be read or written; check --driver, --db and --config.")
	}
}
