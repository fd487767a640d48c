package compiler

import (
	"strings"

	"github.com/bnema/abp2dnr/internal/listfile"
	"github.com/bnema/abp2dnr/internal/models"
	"github.com/bnema/abp2dnr/internal/parser"
)

// DeduplicateLines rewrites a filter list keeping only the first occurrence
// of each domain-only rule. Every other line passes through byte-for-byte
// and the document keeps its line-ending style. Returns the deduplicated
// document and the number of removed lines.
func DeduplicateLines(doc *listfile.Document) (*listfile.Document, int) {
	out := &listfile.Document{
		Ending:          doc.Ending,
		TrailingNewline: doc.TrailingNewline,
	}
	seen := make(map[string]struct{})
	removed := 0

	for _, line := range doc.Lines {
		trimmed := strings.TrimSpace(line.Text)
		if parser.Classify(trimmed) == models.LineNetwork {
			// Options are irrelevant for dedup identity; even lines whose
			// options would not compile are deduplicated by domain.
			pattern, _, _ := parser.SplitOptions(trimmed)
			if domain, ok := parser.ExtractDomain(pattern); ok {
				if _, dup := seen[domain]; dup {
					removed++
					continue
				}
				seen[domain] = struct{}{}
			}
		}
		out.Lines = append(out.Lines, line)
	}

	for i := range out.Lines {
		out.Lines[i].Number = i + 1
	}
	return out, removed
}
