package compiler

import (
	"regexp"
	"strings"
)

// wildcardToken protects '*' expansion while other metacharacters are
// escaped. NUL cannot occur in a trimmed filter line, so the sentinel never
// collides; regexp.QuoteMeta passes it through untouched.
const wildcardToken = "\x00"

const (
	// reHostPrefix anchors at the scheme and permits any chain of
	// subdomain labels before the host.
	reHostPrefix = `^https?://(?:[a-z0-9-]+\.)*`
	// reOptionalPort allows an explicit port between host and path.
	reOptionalPort = `(?::\d+)?`
	// reHostBoundary ends a domain-only match at a path separator or the
	// end of the URL, so ||example.com^ cannot match example.com.evil.net.
	reHostBoundary = `(?:/|$)`
)

var reWildcardRun = regexp.MustCompile(`\*+`)

// PatternToRegex translates an ABP network pattern into a regular
// expression limited to linear-time constructs, suitable for the ruleset's
// regexFilter condition. ok is false when the pattern has no usable
// translation; the caller drops the line.
func PatternToRegex(pattern string) (string, bool) {
	pattern = strings.TrimSpace(pattern)

	rightAnchor := false
	if strings.HasSuffix(pattern, "|") && !strings.HasSuffix(pattern, `\|`) {
		rightAnchor = true
		pattern = pattern[:len(pattern)-1]
	}

	switch {
	case strings.HasPrefix(pattern, "||"):
		return hostnameRegex(pattern[2:], rightAnchor)

	case strings.HasPrefix(pattern, "|http://"), strings.HasPrefix(pattern, "|https://"):
		body := escapeBody(strings.TrimRight(pattern[1:], "*"))
		if body == "" {
			return "", false
		}
		if rightAnchor {
			body += "$"
		}
		return "^" + body, true

	default:
		// Least precise case: an unanchored substring match. Dangling
		// asterisks are meaningless here.
		body := escapeBody(strings.Trim(pattern, "*"))
		if body == "" {
			return "", false
		}
		if rightAnchor {
			body += "$"
		}
		return body, true
	}
}

// hostnameRegex handles ||host and ||host/path... patterns. The host part
// matches either the exact host or any subdomain of it, anchored on both
// sides so suffix collisions (evilexample.com) are impossible.
func hostnameRegex(rest string, rightAnchor bool) (string, bool) {
	host := rest
	path := ""
	if i := strings.Index(rest, "/"); i >= 0 {
		host, path = rest[:i], rest[i:]
	}

	host = strings.ReplaceAll(host, "^", "")
	host = strings.TrimLeft(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" || strings.Contains(host, "*") {
		return "", false
	}

	re := reHostPrefix + regexp.QuoteMeta(host) + reOptionalPort
	if path == "" {
		return re + reHostBoundary, true
	}

	p := escapeBody(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if rightAnchor {
		p += "$"
	}
	return re + p, true
}

// escapeBody strips ^ separators, protects * wildcards behind the sentinel,
// escapes every remaining metacharacter, then restores the wildcards as .*
// after escaping, so the wildcard's own expansion is never double-escaped.
func escapeBody(s string) string {
	s = strings.ReplaceAll(s, "^", "")
	s = reWildcardRun.ReplaceAllString(s, wildcardToken)
	s = regexp.QuoteMeta(s)
	return strings.ReplaceAll(s, wildcardToken, ".*")
}
