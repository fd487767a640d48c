package compiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/abp2dnr/internal/listfile"
)

// Trim caps a filter list at maxRules rule lines: the leading comment/blank
// header block is kept as-is, a trim note is inserted after it, and the
// first maxRules rule lines of the body follow. Blank lines and comments
// inside the body are discarded. Returns the trimmed document and the
// number of rule lines removed.
func Trim(doc *listfile.Document, maxRules int, now time.Time) (*listfile.Document, int) {
	out := &listfile.Document{
		Ending:          doc.Ending,
		TrailingNewline: true,
	}

	i := 0
	for ; i < len(doc.Lines); i++ {
		if isTrimRule(strings.TrimSpace(doc.Lines[i].Text)) {
			break
		}
		out.Lines = append(out.Lines, doc.Lines[i])
	}

	note := fmt.Sprintf("! Trimmed to %d rules on %s", maxRules, now.UTC().Format(time.RFC3339))
	out.Lines = append(out.Lines, listfile.Line{Text: note})

	kept, dropped := 0, 0
	for ; i < len(doc.Lines); i++ {
		if !isTrimRule(strings.TrimSpace(doc.Lines[i].Text)) {
			continue
		}
		if kept >= maxRules {
			dropped++
			continue
		}
		kept++
		out.Lines = append(out.Lines, doc.Lines[i])
	}

	for j := range out.Lines {
		out.Lines[j].Number = j + 1
	}
	return out, dropped
}

// isTrimRule mirrors the trim mode's loose notion of a rule: any non-blank
// line not starting with a comment marker (hosts-style '#' included).
func isTrimRule(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	return !strings.HasPrefix(trimmed, "!") && !strings.HasPrefix(trimmed, "#")
}
