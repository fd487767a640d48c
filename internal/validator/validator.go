// Package validator re-checks a serialized ruleset against the
// declarativeNetRequest structural contract. It works from the wire bytes,
// never from the assembler's in-memory structs, and reports every violation
// it finds in one pass so a bad artifact can be reviewed in one cycle. It is
// the last line of defense against the compiler producing something the
// host engine would reject or silently refuse to load.
package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bnema/abp2dnr/internal/models"
)

// Report is the outcome of validating one ruleset artifact.
type Report struct {
	Rules  int
	Errors []string
}

// Valid reports whether no violations were found.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Report) errf(idx int, field, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Errors = append(r.Errors, fmt.Sprintf("rule %d: %s: %s", idx+1, field, msg))
}

var actionTypes = map[string]struct{}{
	models.ActionBlock:         {},
	models.ActionAllow:         {},
	models.ActionRedirect:      {},
	models.ActionUpgradeScheme: {},
	models.ActionModifyHeaders: {},
}

var resourceTypes = func() map[string]struct{} {
	out := make(map[string]struct{})
	for _, rt := range models.AllResourceTypes() {
		out[rt] = struct{}{}
	}
	return out
}()

// ValidateJSON checks a serialized ruleset artifact. Violations never
// short-circuit; the returned report carries every problem found, each
// identifying the offending record's position.
func ValidateJSON(data []byte) Report {
	var rep Report

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("ruleset: not a JSON array of rules: %v", err))
		return rep
	}
	rep.Rules = len(records)

	for i, raw := range records {
		validateRecord(&rep, i, raw)
	}
	return rep
}

func validateRecord(rep *Report, idx int, raw json.RawMessage) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		rep.errf(idx, "record", "not a JSON object: %v", err)
		return
	}

	for _, key := range []string{"id", "priority", "action", "condition"} {
		if _, ok := obj[key]; !ok {
			rep.errf(idx, key, "required field missing")
		}
	}
	for key := range obj {
		switch key {
		case "id", "priority", "action", "condition":
		default:
			rep.errf(idx, key, "unknown field")
		}
	}

	if v, ok := obj["id"]; ok {
		checkInt(rep, idx, "id", v, 1, models.MaxRuleID)
	}
	if v, ok := obj["priority"]; ok {
		checkInt(rep, idx, "priority", v, 1, models.MaxPriority)
	}
	if v, ok := obj["action"]; ok {
		validateAction(rep, idx, v)
	}
	if v, ok := obj["condition"]; ok {
		validateCondition(rep, idx, v)
	}
}

func checkInt(rep *Report, idx int, field string, raw json.RawMessage, min, max int64) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var num json.Number
	if err := dec.Decode(&num); err != nil {
		rep.errf(idx, field, "must be an integer: %v", err)
		return
	}
	n, err := num.Int64()
	if err != nil {
		rep.errf(idx, field, "must be an integer, got %s", num)
		return
	}
	if n < min || n > max {
		rep.errf(idx, field, "must be between %d and %d, got %d", min, max, n)
	}
}

func validateAction(rep *Report, idx int, raw json.RawMessage) {
	var a struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		rep.errf(idx, "action", "not a JSON object: %v", err)
		return
	}
	if a.Type == nil {
		rep.errf(idx, "action.type", "required field missing")
		return
	}
	if _, ok := actionTypes[*a.Type]; !ok {
		rep.errf(idx, "action.type", "unknown action type %q", *a.Type)
	}
}

// validateCondition checks every present condition field independently; any
// subset may be absent.
func validateCondition(rep *Report, idx int, raw json.RawMessage) {
	// Unmarshal treats null as a no-op on a map, which would slip a null
	// condition through with zero field checks.
	if string(bytes.TrimSpace(raw)) == "null" {
		rep.errf(idx, "condition", "must be a JSON object, got null")
		return
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		rep.errf(idx, "condition", "not a JSON object: %v", err)
		return
	}

	for key, val := range obj {
		field := "condition." + key
		switch key {
		case "urlFilter":
			checkPatternString(rep, idx, field, val)
		case "regexFilter":
			checkRegexString(rep, idx, field, val)
		case "isUrlFilterCaseSensitive":
			var b bool
			if err := json.Unmarshal(val, &b); err != nil {
				rep.errf(idx, field, "must be a boolean")
			}
		case "domainType":
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				rep.errf(idx, field, "must be a string")
			} else if s != models.DomainTypeFirstParty && s != models.DomainTypeThirdParty {
				rep.errf(idx, field, "must be %q or %q, got %q",
					models.DomainTypeFirstParty, models.DomainTypeThirdParty, s)
			}
		case "resourceTypes", "excludedResourceTypes":
			checkResourceTypeList(rep, idx, field, val)
		case "requestDomains", "excludedRequestDomains",
			"initiatorDomains", "excludedInitiatorDomains",
			"domains", "excludedDomains":
			checkDomainList(rep, idx, field, val)
		default:
			rep.errf(idx, field, "unknown field")
		}
	}
}

func checkPatternString(rep *Report, idx int, field string, raw json.RawMessage) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		rep.errf(idx, field, "must be a string")
		return
	}
	if s == "" {
		rep.errf(idx, field, "must be non-empty")
	}
	if len(s) > models.MaxPatternLength {
		rep.errf(idx, field, "exceeds %d characters (%d)", models.MaxPatternLength, len(s))
	}
	if i := strings.IndexFunc(s, isControl); i >= 0 {
		rep.errf(idx, field, "contains control character %U at offset %d", s[i], i)
	}
}

func checkRegexString(rep *Report, idx int, field string, raw json.RawMessage) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		rep.errf(idx, field, "must be a string")
		return
	}
	if len(s) > models.MaxPatternLength {
		rep.errf(idx, field, "exceeds %d characters (%d)", models.MaxPatternLength, len(s))
		return
	}
	if _, err := regexp.Compile(s); err != nil {
		rep.errf(idx, field, "does not compile: %v", err)
	}
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

func checkResourceTypeList(rep *Report, idx int, field string, raw json.RawMessage) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		rep.errf(idx, field, "must be an array of strings")
		return
	}
	if len(list) == 0 {
		rep.errf(idx, field, "must be non-empty")
		return
	}
	for _, rt := range list {
		if _, ok := resourceTypes[rt]; !ok {
			rep.errf(idx, field, "unknown resource type %q", rt)
		}
	}
}

func checkDomainList(rep *Report, idx int, field string, raw json.RawMessage) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		rep.errf(idx, field, "must be an array of strings")
		return
	}
	for i, d := range list {
		if d == "" {
			rep.errf(idx, field, "element %d is empty", i)
		}
	}
}
