package validator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidRuleset(t *testing.T) {
	payload := `[
	  {
	    "id": 1,
	    "priority": 1,
	    "action": {"type": "block"},
	    "condition": {
	      "requestDomains": ["doubleclick.net"],
	      "resourceTypes": ["script", "image"]
	    }
	  },
	  {
	    "id": 2,
	    "priority": 1,
	    "action": {"type": "block"},
	    "condition": {
	      "regexFilter": "^https?://(?:[a-z0-9-]+\\.)*ads\\.example\\.com(?::\\d+)?/path/.*\\.js",
	      "isUrlFilterCaseSensitive": false,
	      "domainType": "thirdParty"
	    }
	  }
	]`

	rep := ValidateJSON([]byte(payload))
	assert.True(t, rep.Valid(), "errors: %v", rep.Errors)
	assert.Equal(t, 2, rep.Rules)
}

func TestNegativeIdentifier(t *testing.T) {
	payload := `[{"id": -1, "priority": 1, "action": {"type": "block"}, "condition": {}}]`

	rep := ValidateJSON([]byte(payload))
	assert.False(t, rep.Valid())
	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[0], "rule 1")
	assert.Contains(t, rep.Errors[0], "id")
	assert.Contains(t, rep.Errors[0], "-1")
}

func TestAccumulatesAllViolations(t *testing.T) {
	payload := `[
	  {"id": 0, "priority": 0, "action": {"type": "explode"}, "condition": {"resourceTypes": []}},
	  {"id": 1, "priority": 1, "action": {"type": "block"}}
	]`

	rep := ValidateJSON([]byte(payload))
	assert.False(t, rep.Valid())
	// rule 1: id range, priority range, action type, empty resourceTypes;
	// rule 2: missing condition.
	assert.Len(t, rep.Errors, 5)

	var secondRule bool
	for _, e := range rep.Errors {
		if strings.HasPrefix(e, "rule 2:") {
			secondRule = true
			assert.Contains(t, e, "condition")
		}
	}
	assert.True(t, secondRule, "violations must identify the record position")
}

func TestFieldChecks(t *testing.T) {
	record := func(condition string) string {
		return fmt.Sprintf(`[{"id": 1, "priority": 1, "action": {"type": "block"}, "condition": %s}]`, condition)
	}

	tests := []struct {
		name      string
		payload   string
		wantError string
	}{
		{
			name:      "non-integer id",
			payload:   `[{"id": 1.5, "priority": 1, "action": {"type": "block"}, "condition": {}}]`,
			wantError: "id",
		},
		{
			name:      "id above platform maximum",
			payload:   `[{"id": 300001, "priority": 1, "action": {"type": "block"}, "condition": {}}]`,
			wantError: "300000",
		},
		{
			name:      "unknown top-level field",
			payload:   `[{"id": 1, "priority": 1, "action": {"type": "block"}, "condition": {}, "extra": 1}]`,
			wantError: "extra",
		},
		{
			name:      "empty urlFilter",
			payload:   record(`{"urlFilter": ""}`),
			wantError: "urlFilter",
		},
		{
			name:      "control character in urlFilter",
			payload:   record(`{"urlFilter": "ads\u0001"}`),
			wantError: "control character",
		},
		{
			name:      "regexFilter does not compile",
			payload:   record(`{"regexFilter": "("}`),
			wantError: "compile",
		},
		{
			name:      "unknown resource type",
			payload:   record(`{"resourceTypes": ["script", "imag"]}`),
			wantError: "imag",
		},
		{
			name:      "empty domain list element",
			payload:   record(`{"requestDomains": ["a.example", ""]}`),
			wantError: "requestDomains",
		},
		{
			name:      "bad domainType",
			payload:   record(`{"domainType": "anyParty"}`),
			wantError: "domainType",
		},
		{
			name:      "unknown condition field",
			payload:   record(`{"regexfilter": "x"}`),
			wantError: "regexfilter",
		},
		{
			name:      "isUrlFilterCaseSensitive must be boolean",
			payload:   record(`{"isUrlFilterCaseSensitive": "no"}`),
			wantError: "boolean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := ValidateJSON([]byte(tt.payload))
			require.False(t, rep.Valid())
			joined := strings.Join(rep.Errors, "\n")
			assert.Contains(t, joined, tt.wantError)
		})
	}
}

func TestPatternLengthLimits(t *testing.T) {
	long := strings.Repeat("a", 2001)

	payload := fmt.Sprintf(
		`[{"id": 1, "priority": 1, "action": {"type": "block"}, "condition": {"urlFilter": %q}}]`, long)
	rep := ValidateJSON([]byte(payload))
	assert.False(t, rep.Valid())
	assert.Contains(t, strings.Join(rep.Errors, "\n"), "2000")

	payload = fmt.Sprintf(
		`[{"id": 1, "priority": 1, "action": {"type": "block"}, "condition": {"regexFilter": %q}}]`, long)
	rep = ValidateJSON([]byte(payload))
	assert.False(t, rep.Valid())
	assert.Contains(t, strings.Join(rep.Errors, "\n"), "2000")

	// Exactly at the limit is fine.
	payload = fmt.Sprintf(
		`[{"id": 1, "priority": 1, "action": {"type": "block"}, "condition": {"urlFilter": %q}}]`,
		strings.Repeat("a", 2000))
	rep = ValidateJSON([]byte(payload))
	assert.True(t, rep.Valid(), "errors: %v", rep.Errors)
}

func TestNullObjects(t *testing.T) {
	payload := `[{"id": 1, "priority": 1, "action": {"type": "block"}, "condition": null}]`
	rep := ValidateJSON([]byte(payload))
	require.False(t, rep.Valid(), "null condition must be rejected")
	assert.Contains(t, strings.Join(rep.Errors, "\n"), "condition")

	payload = `[{"id": 1, "priority": 1, "action": null, "condition": {}}]`
	rep = ValidateJSON([]byte(payload))
	require.False(t, rep.Valid(), "null action must be rejected")
	assert.Contains(t, strings.Join(rep.Errors, "\n"), "action")
}

func TestNotAnArray(t *testing.T) {
	rep := ValidateJSON([]byte(`{"id": 1}`))
	assert.False(t, rep.Valid())
	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[0], "array")
}

func TestEmptyRuleset(t *testing.T) {
	rep := ValidateJSON([]byte(`[]`))
	assert.True(t, rep.Valid())
	assert.Equal(t, 0, rep.Rules)
}
