// Package compiler turns classified filter candidates into an ordered,
// size-bounded declarativeNetRequest ruleset. Each Compiler owns its own
// dedup set, counters, and identifier sequence; nothing is shared across
// runs.
package compiler

import (
	"sort"

	"github.com/bnema/abp2dnr/internal/models"
)

// blockPriority is the priority of every compiled rule; there is no
// priority differentiation among plain block rules.
const blockPriority = 1

// Compiler assembles one ruleset.
type Compiler struct {
	maxRules int
	seen     map[string]int // normalized domain -> occurrences
	stats    Stats
}

// Stats tracks one compilation pass. Like the parser's counters, loss
// categories are kept distinct so none of them hide another.
type Stats struct {
	DomainTotal      int
	DomainUnique     int
	DomainDuplicates int
	RegexRules       int
	TranslateDrops   int // patterns with no usable translation
	LengthDrops      int // regexes over the platform length limit
	Truncated        int // rules cut by the ceiling
}

// DomainCount is one entry of the duplicate-domain report.
type DomainCount struct {
	Domain string
	Count  int
}

// New creates a compiler with the given rule ceiling; zero or negative
// means the platform default.
func New(maxRules int) *Compiler {
	if maxRules <= 0 {
		maxRules = models.DefaultMaxRules
	}
	return &Compiler{
		maxRules: maxRules,
		seen:     make(map[string]int),
	}
}

// Stats returns compilation statistics
func (c *Compiler) Stats() Stats {
	return c.stats
}

// Compile assembles the final ruleset: one rule per unique domain in
// first-seen order, then one rule per translated pattern in source order,
// with dense identifiers from 1. When the ceiling is exceeded the tail is
// dropped silently, so regex rules go first; exact-domain blocking is the
// cheaper and more reliable kind and is protected from truncation.
func (c *Compiler) Compile(cands []models.Candidate) []models.Rule {
	var domainRules []models.Rule
	var regexRules []models.Rule

	for _, cand := range cands {
		if cand.Domain != "" {
			c.stats.DomainTotal++
			c.seen[cand.Domain]++
			if c.seen[cand.Domain] > 1 {
				c.stats.DomainDuplicates++
				continue
			}
			c.stats.DomainUnique++

			cond := conditionFromOptions(cand.Options)
			cond.RequestDomains = []string{cand.Domain}
			domainRules = append(domainRules, models.Rule{
				Priority:  blockPriority,
				Action:    models.Action{Type: models.ActionBlock},
				Condition: cond,
			})
			continue
		}

		re, ok := PatternToRegex(cand.Pattern)
		if !ok {
			c.stats.TranslateDrops++
			continue
		}
		if len(re) > models.MaxPatternLength {
			c.stats.LengthDrops++
			continue
		}
		c.stats.RegexRules++

		cond := conditionFromOptions(cand.Options)
		cond.RegexFilter = re
		caseSensitive := false
		cond.IsURLFilterCaseSensitive = &caseSensitive
		regexRules = append(regexRules, models.Rule{
			Priority:  blockPriority,
			Action:    models.Action{Type: models.ActionBlock},
			Condition: cond,
		})
	}

	rules := make([]models.Rule, 0, len(domainRules)+len(regexRules))
	rules = append(rules, domainRules...)
	rules = append(rules, regexRules...)

	if len(rules) > c.maxRules {
		c.stats.Truncated = len(rules) - c.maxRules
		rules = rules[:c.maxRules]
	}

	for i := range rules {
		rules[i].ID = i + 1
	}
	return rules
}

// Duplicates lists domains seen more than once, most frequent first.
func (c *Compiler) Duplicates() []DomainCount {
	var out []DomainCount
	for d, n := range c.seen {
		if n > 1 {
			out = append(out, DomainCount{Domain: d, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// conditionFromOptions maps parsed ABP options onto a rule condition. When
// the source rule named no resource types, the rule applies to every
// subresource type; main_frame is never matched so compiled rules cannot
// break page delivery.
func conditionFromOptions(o models.Options) models.Condition {
	var cond models.Condition

	if o.ThirdParty != nil {
		if *o.ThirdParty {
			cond.DomainType = models.DomainTypeThirdParty
		} else {
			cond.DomainType = models.DomainTypeFirstParty
		}
	}

	switch {
	case len(o.ResourceTypes) != 0:
		cond.ResourceTypes = o.ResourceTypes
	case len(o.ExcludedResourceTypes) != 0:
		cond.ExcludedResourceTypes = ensureMainFrameExcluded(o.ExcludedResourceTypes)
	default:
		cond.ResourceTypes = models.SubresourceTypes()
	}

	cond.InitiatorDomains = o.InitiatorDomains
	cond.ExcludedInitiatorDomains = o.ExcludedInitiatorDomains
	return cond
}

// ensureMainFrameExcluded keeps main_frame out of "everything except"
// conditions.
func ensureMainFrameExcluded(excluded []string) []string {
	for _, rt := range excluded {
		if rt == models.ResourceMainFrame {
			return excluded
		}
	}
	return append(excluded, models.ResourceMainFrame)
}
