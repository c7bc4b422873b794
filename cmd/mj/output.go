package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/andreisalomia/mini-jira/internal/types"
)

// outputJSON writes v as pretty-printed JSON.
func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// reportError prints err as `Error: <msg>` or, with --json, as
// {"error": ..., "code": ...} where code is the rejection reason tag.
func (c *cli) reportError(err error) {
	var typed *types.Error
	code := ""
	if errors.As(err, &typed) {
		code = string(typed.Reason)
	}
	if c.jsonOutput {
		errObj := map[string]string{"error": err.Error()}
		if code != "" {
			errObj["code"] = code
		}
		_ = outputJSON(c.errOut, errObj) // Best effort: nothing left to report to
		return
	}
	if code != "" {
		fmt.Fprintf(c.errOut, "Error: %v [%s]\n", err, code)
		return
	}
	fmt.Fprintf(c.errOut, "Error: %v\n", err)
}

// WarnError writes a warning message to w and returns.
// Use this for optional operations that enhance functionality but aren't required.
func WarnError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "Warning: "+format+"\n", args...)
}

// printf writes human output; write errors on stdout are not actionable.
func (c *cli) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
