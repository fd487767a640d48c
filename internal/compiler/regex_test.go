package compiler

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternToRegex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:     "hostname with path and wildcard",
			input:    "||ads.example.com/path/*.js^",
			expected: `^https?://(?:[a-z0-9-]+\.)*ads\.example\.com(?::\d+)?/path/.*\.js`,
			ok:       true,
		},
		{
			name:     "hostname without path requires a boundary",
			input:    "||example.com",
			expected: `^https?://(?:[a-z0-9-]+\.)*example\.com(?::\d+)?(?:/|$)`,
			ok:       true,
		},
		{
			name:     "hostname separators are stripped",
			input:    "||example.com^/ads",
			expected: `^https?://(?:[a-z0-9-]+\.)*example\.com(?::\d+)?/ads`,
			ok:       true,
		},
		{
			name:     "scheme anchored",
			input:    "|http://example.com/ads",
			expected: `^http://example\.com/ads`,
			ok:       true,
		},
		{
			name:     "scheme anchored with wildcard and separator",
			input:    "|https://example.com/ads/*.gif^",
			expected: `^https://example\.com/ads/.*\.gif`,
			ok:       true,
		},
		{
			name:     "fallback substring",
			input:    "/banner/*/img^",
			expected: `/banner/.*/img`,
			ok:       true,
		},
		{
			name:     "fallback escapes metacharacters",
			input:    "ads?id=(1)",
			expected: `ads\?id=\(1\)`,
			ok:       true,
		},
		{
			name:     "fallback right anchor",
			input:    "/ads/banner.gif|",
			expected: `/ads/banner\.gif$`,
			ok:       true,
		},
		{
			name:     "wildcard runs collapse",
			input:    "a**b",
			expected: `a.*b`,
			ok:       true,
		},
		{
			name:  "empty host fails",
			input: "||^",
			ok:    false,
		},
		{
			name:  "host wildcard fails",
			input: "||ads.*.example.com/x",
			ok:    false,
		},
		{
			name:  "bare wildcard fails",
			input: "*",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := PatternToRegex(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// mustTranslate compiles the translated pattern with the same engine the
// host uses for regexFilter.
func mustTranslate(t *testing.T, pattern string) *regexp.Regexp {
	t.Helper()
	re, ok := PatternToRegex(pattern)
	require.True(t, ok, "pattern %q should translate", pattern)
	return regexp.MustCompile(re)
}

func TestHostnameRegexMatching(t *testing.T) {
	re := mustTranslate(t, "||ads.example.com/path/*.js^")

	assert.True(t, re.MatchString("https://ads.example.com/path/foo.js"))
	assert.True(t, re.MatchString("https://cdn.ads.example.com/path/foo.js"))
	assert.True(t, re.MatchString("http://ads.example.com:8080/path/a/b.js"))
	assert.False(t, re.MatchString("https://ads.example.com.evil.net/path/foo.js"))
	assert.False(t, re.MatchString("https://ads.example.com/other/foo.js"))
}

func TestHostnameSuffixCollision(t *testing.T) {
	re := mustTranslate(t, "||example.com^")

	assert.True(t, re.MatchString("https://example.com/"))
	assert.True(t, re.MatchString("https://example.com"))
	assert.True(t, re.MatchString("https://sub.example.com/x"))
	assert.True(t, re.MatchString("http://example.com:8080/x"))
	assert.False(t, re.MatchString("https://evilexample.com/"))
	assert.False(t, re.MatchString("https://example.com.evil.net/"))
	assert.False(t, re.MatchString("https://example.community/"))
}

func TestFallbackMatching(t *testing.T) {
	re := mustTranslate(t, "/banner/*/img^")

	assert.True(t, re.MatchString("https://any.test/banner/xyz/img"))
	assert.True(t, re.MatchString("https://any.test/banner//img"), "wildcard matches the empty string")
	assert.False(t, re.MatchString("https://any.test/banner-img"))
}

func TestEscapingSafety(t *testing.T) {
	// Metacharacters in the source pattern must only ever match themselves.
	re := mustTranslate(t, "ads?id=(1)")

	assert.True(t, re.MatchString("https://x.test/ads?id=(1)"))
	assert.False(t, re.MatchString("https://x.test/adsXid=(1)"), "? must not be a quantifier")
	assert.False(t, re.MatchString("https://x.test/ad?id=1"))
}

func TestWildcardSurvivesEscaping(t *testing.T) {
	// The wildcard's own expansion (.*) must not be escaped into a literal.
	re, ok := PatternToRegex("a*b")
	require.True(t, ok)
	assert.Equal(t, "a.*b", re)

	compiled := regexp.MustCompile(re)
	assert.True(t, compiled.MatchString("ab"), "wildcard matches the empty string")
	assert.True(t, compiled.MatchString("a-anything-b"))
	assert.False(t, compiled.MatchString("a"))
}

func TestTranslationsCompileUnderRE2(t *testing.T) {
	patterns := []string{
		"||ads.example.com/path/*.js^",
		"||example.com^",
		"|https://example.com/ads/*.gif^",
		"/banner/*/img^",
		"ads?id=(1)",
		`a[b]{c}+d.e$f|`,
	}
	for _, p := range patterns {
		re, ok := PatternToRegex(p)
		require.True(t, ok, "pattern %q should translate", p)
		_, err := regexp.Compile(re)
		assert.NoError(t, err, "translated %q -> %q", p, re)
	}
}
