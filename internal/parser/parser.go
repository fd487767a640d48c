// Package parser classifies raw filter-list lines and extracts the
// domain-only fast path. Classification is a pure function of the trimmed
// line text with a fixed precedence; nothing here ever raises an error for
// a line, unsupported syntax is counted and dropped.
package parser

import (
	"strings"

	"github.com/bnema/abp2dnr/internal/listfile"
	"github.com/bnema/abp2dnr/internal/models"
)

// Parser walks a filter list and produces network rule candidates. Each
// Parser owns its own counters; create a fresh one per run.
type Parser struct {
	stats Stats
}

// Stats tracks classification counts for one parse. Intentional drops
// (exceptions, cosmetic filters) are kept separate from parse losses
// (OptionDrops) so list-quality review can tell them apart.
type Stats struct {
	Total       int
	Blank       int
	Comments    int
	Metadata    int
	Exceptions  int
	Cosmetic    int
	Network     int
	OptionDrops int // network lines dropped for untranslatable $options
}

// New creates a new parser
func New() *Parser {
	return &Parser{}
}

// Stats returns parsing statistics
func (p *Parser) Stats() Stats {
	return p.stats
}

// Classify categorizes a single trimmed line. First match wins, in this
// order: blank, comment, metadata, exception, cosmetic, network candidate.
func Classify(trimmed string) models.LineClass {
	switch {
	case trimmed == "":
		return models.LineBlank
	case strings.HasPrefix(trimmed, "!"):
		return models.LineComment
	case strings.HasPrefix(trimmed, "["):
		return models.LineMetadata
	case strings.HasPrefix(trimmed, "@@"):
		return models.LineException
	case strings.Contains(trimmed, "##"),
		strings.Contains(trimmed, "#@#"),
		strings.Contains(trimmed, "#?#"):
		return models.LineCosmetic
	default:
		return models.LineNetwork
	}
}

// Parse classifies every line and returns the network candidates in source
// order. Non-network lines contribute to the statistics and nothing else.
func (p *Parser) Parse(doc *listfile.Document) []models.Candidate {
	var out []models.Candidate

	for _, line := range doc.Lines {
		trimmed := strings.TrimSpace(line.Text)
		p.stats.Total++

		switch Classify(trimmed) {
		case models.LineBlank:
			p.stats.Blank++
		case models.LineComment:
			p.stats.Comments++
		case models.LineMetadata:
			p.stats.Metadata++
		case models.LineException:
			p.stats.Exceptions++
		case models.LineCosmetic:
			p.stats.Cosmetic++
		case models.LineNetwork:
			p.stats.Network++
			pattern, opts, ok := SplitOptions(trimmed)
			if !ok {
				p.stats.OptionDrops++
				continue
			}
			cand := models.Candidate{
				Line:    line.Number,
				Pattern: pattern,
				Options: opts,
			}
			if domain, ok := ExtractDomain(pattern); ok {
				cand.Domain = domain
			}
			out = append(out, cand)
		}
	}

	return out
}

// SplitOptions removes a trailing $options suffix from a network filter
// line. The options part is the text after the last unescaped '$'; a tail
// starting with '/' is taken to be part of the pattern, not options. The
// pattern is always returned; ok is false when an option has semantics a
// plain block rule cannot express, in which case the whole line is dropped
// rather than compiled into a surprising block.
func SplitOptions(line string) (pattern string, opts models.Options, ok bool) {
	pattern = line

	idx := strings.LastIndex(line, "$")
	if idx == -1 {
		return pattern, opts, true
	}
	if idx > 0 && line[idx-1] == '\\' {
		return pattern, opts, true
	}
	tail := line[idx+1:]
	if strings.HasPrefix(tail, "/") {
		return pattern, opts, true
	}

	pattern = line[:idx]
	opts, ok = parseOptions(tail)
	return pattern, opts, ok
}

// parseOptions parses a comma-separated ABP option list into the fields a
// block rule can carry.
func parseOptions(s string) (models.Options, bool) {
	var o models.Options

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		switch {
		case part == "third-party" || part == "3p":
			t := true
			o.ThirdParty = &t
		case part == "~third-party" || part == "~3p" || part == "first-party" || part == "1p":
			f := false
			o.ThirdParty = &f
		case part == "match-case":
			// Compiled rules are always case-insensitive; ignoring this
			// only widens matching.
		case strings.HasPrefix(part, "domain="):
			incl, excl := parseDomainOption(part[len("domain="):])
			o.InitiatorDomains = append(o.InitiatorDomains, incl...)
			o.ExcludedInitiatorDomains = append(o.ExcludedInitiatorDomains, excl...)
		default:
			negated := strings.HasPrefix(part, "~")
			rt, known := mapResourceType(strings.TrimPrefix(part, "~"))
			if !known {
				// redirect=, csp=, removeparam= and friends change rule
				// semantics entirely; drop the line.
				return models.Options{}, false
			}
			if negated {
				o.ExcludedResourceTypes = append(o.ExcludedResourceTypes, rt)
			} else {
				o.ResourceTypes = append(o.ResourceTypes, rt)
			}
		}
	}

	// The ruleset schema accepts only one of the two lists.
	if len(o.ResourceTypes) != 0 && len(o.ExcludedResourceTypes) != 0 {
		return models.Options{}, false
	}

	return o, true
}

// parseDomainOption parses domain=example.com|~excluded.com
func parseDomainOption(s string) (include, exclude []string) {
	for _, d := range strings.Split(s, "|") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if strings.HasPrefix(d, "~") {
			if n := NormalizeDomain(d[1:]); n != "" {
				exclude = append(exclude, n)
			}
		} else if n := NormalizeDomain(d); n != "" {
			include = append(include, n)
		}
	}
	return include, exclude
}

// mapResourceType maps ABP resource type options to ruleset names
func mapResourceType(s string) (string, bool) {
	switch s {
	case "script":
		return models.ResourceScript, true
	case "image", "img":
		return models.ResourceImage, true
	case "stylesheet", "css":
		return models.ResourceStylesheet, true
	case "font":
		return models.ResourceFont, true
	case "media":
		return models.ResourceMedia, true
	case "object", "object-subrequest":
		return models.ResourceObject, true
	case "xmlhttprequest", "xhr":
		return models.ResourceXHR, true
	case "ping", "beacon":
		return models.ResourcePing, true
	case "websocket":
		return models.ResourceWebSocket, true
	case "subdocument", "frame":
		return models.ResourceSubFrame, true
	case "other":
		return models.ResourceOther, true
	}
	return "", false
}

// ExtractDomain recognizes the ||host^ fast path: no '/' anywhere after the
// leading ||, trailing and embedded '^' separators stripped. The host is
// normalized but not validated against hostname rules beyond basic shape;
// the source list is trusted.
func ExtractDomain(pattern string) (string, bool) {
	if !strings.HasPrefix(pattern, "||") {
		return "", false
	}
	rest := strings.TrimSuffix(pattern[2:], "|")
	if strings.Contains(rest, "/") {
		return "", false
	}
	rest = strings.TrimRight(rest, "^")
	rest = strings.ReplaceAll(rest, "^", "")
	if strings.Contains(rest, "*") {
		// host wildcards fall through to the translator
		return "", false
	}
	domain := NormalizeDomain(rest)
	if domain == "" {
		return "", false
	}
	return domain, true
}

// NormalizeDomain lowercases, trims surrounding whitespace, and strips
// leading and trailing dots. Normalization is idempotent.
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimLeft(d, ".")
	d = strings.TrimRight(d, ".")
	return d
}
