package models

// Rule is a single declarativeNetRequest rule, shaped exactly as Chrome
// loads it from a static ruleset JSON file.
type Rule struct {
	ID        int       `json:"id"`
	Priority  int       `json:"priority"`
	Action    Action    `json:"action"`
	Condition Condition `json:"condition"`
}

// Action defines what to do when a rule matches
type Action struct {
	Type string `json:"type"`
}

// Condition defines when a rule matches
type Condition struct {
	URLFilter                string   `json:"urlFilter,omitempty"`
	RegexFilter              string   `json:"regexFilter,omitempty"`
	IsURLFilterCaseSensitive *bool    `json:"isUrlFilterCaseSensitive,omitempty"`
	DomainType               string   `json:"domainType,omitempty"`
	ResourceTypes            []string `json:"resourceTypes,omitempty"`
	ExcludedResourceTypes    []string `json:"excludedResourceTypes,omitempty"`
	RequestDomains           []string `json:"requestDomains,omitempty"`
	ExcludedRequestDomains   []string `json:"excludedRequestDomains,omitempty"`
	InitiatorDomains         []string `json:"initiatorDomains,omitempty"`
	ExcludedInitiatorDomains []string `json:"excludedInitiatorDomains,omitempty"`
	Domains                  []string `json:"domains,omitempty"`
	ExcludedDomains          []string `json:"excludedDomains,omitempty"`
}

// Action type constants
const (
	ActionBlock         = "block"
	ActionAllow         = "allow"
	ActionRedirect      = "redirect"
	ActionUpgradeScheme = "upgradeScheme"
	ActionModifyHeaders = "modifyHeaders"
)

// Domain type constants
const (
	DomainTypeFirstParty = "firstParty"
	DomainTypeThirdParty = "thirdParty"
)

// Resource type constants (declarativeNetRequest names)
const (
	ResourceMainFrame    = "main_frame"
	ResourceSubFrame     = "sub_frame"
	ResourceStylesheet   = "stylesheet"
	ResourceScript       = "script"
	ResourceImage        = "image"
	ResourceFont         = "font"
	ResourceObject       = "object"
	ResourceXHR          = "xmlhttprequest"
	ResourcePing         = "ping"
	ResourceCSPReport    = "csp_report"
	ResourceMedia        = "media"
	ResourceWebSocket    = "websocket"
	ResourceWebTransport = "webtransport"
	ResourceWebBundle    = "webbundle"
	ResourceOther        = "other"
)

// Static ruleset limits enforced by the browser.
const (
	// DefaultMaxRules is the guaranteed static rule budget Chrome grants
	// every extension.
	DefaultMaxRules = 30000
	// MaxRuleID is the largest identifier accepted in a static ruleset.
	MaxRuleID = 300000
	// MaxPriority is the largest rule priority (signed 32-bit).
	MaxPriority = 1<<31 - 1
	// MaxPatternLength bounds urlFilter and regexFilter strings.
	MaxPatternLength = 2000
)

// AllResourceTypes returns every resource type the browser recognizes.
func AllResourceTypes() []string {
	return []string{
		ResourceMainFrame,
		ResourceSubFrame,
		ResourceStylesheet,
		ResourceScript,
		ResourceImage,
		ResourceFont,
		ResourceObject,
		ResourceXHR,
		ResourcePing,
		ResourceCSPReport,
		ResourceMedia,
		ResourceWebSocket,
		ResourceWebTransport,
		ResourceWebBundle,
		ResourceOther,
	}
}

// SubresourceTypes returns every resource type except main_frame. Compiled
// block rules never match the top-level navigation.
func SubresourceTypes() []string {
	all := AllResourceTypes()
	out := make([]string, 0, len(all)-1)
	for _, rt := range all {
		if rt == ResourceMainFrame {
			continue
		}
		out = append(out, rt)
	}
	return out
}
