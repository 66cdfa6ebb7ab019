// internal/opal/feedback.go
package opal

import (
	"fmt"
	"strings"

	"github.com/sievelabs/opalfix/internal/types"
)

// FormatFeedback renders the applied-fix list into the human-readable
// block appended to query responses: one numbered entry per fix, in
// application order, each with the original fragment, the replacement,
// a one-paragraph rationale, and an optional usage note. Pure
// presentation; returns "" for an empty list.
func FormatFeedback(applied []types.AppliedFix) string {
	if len(applied) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Your OPAL query was adjusted before execution (%d %s):\n",
		len(applied), plural(len(applied), "fix", "fixes"))

	for i, fix := range applied {
		fmt.Fprintf(&sb, "\n%d. [%s]\n", i+1, fix.Rule)
		fmt.Fprintf(&sb, "   original: %s\n", fix.Original)
		if fix.Fixed == "" {
			sb.WriteString("   fixed:    (removed)\n")
		} else {
			fmt.Fprintf(&sb, "   fixed:    %s\n", fix.Fixed)
		}
		fmt.Fprintf(&sb, "   why:      %s\n", fix.Rationale)
		if fix.Note != "" {
			fmt.Fprintf(&sb, "   note:     %s\n", fix.Note)
		}
	}
	return sb.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
