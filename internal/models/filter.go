package models

// LineClass categorizes one trimmed line of a filter list.
type LineClass int

const (
	LineBlank LineClass = iota
	LineComment
	LineMetadata   // [Adblock Plus 2.0] style headers, always ignored
	LineException  // @@ allow rules, unsupported in a block-only ruleset
	LineCosmetic   // ##, #@#, #?# element hiding, not expressible in DNR
	LineNetwork    // candidate for the domain fast path or the translator
)

func (c LineClass) String() string {
	switch c {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineMetadata:
		return "metadata"
	case LineException:
		return "exception"
	case LineCosmetic:
		return "cosmetic"
	case LineNetwork:
		return "network"
	}
	return "unknown"
}

// Candidate is a network filter line that survived classification and
// option parsing.
type Candidate struct {
	Line    int    // 1-based source line ordinal
	Domain  string // set when the ||domain^ fast path matched
	Pattern string // pattern with any $options suffix removed
	Options Options
}

// Options holds the subset of ABP options a plain block rule can express.
type Options struct {
	ThirdParty               *bool // nil = any party
	ResourceTypes            []string
	ExcludedResourceTypes    []string
	InitiatorDomains         []string
	ExcludedInitiatorDomains []string
}
