package llm

import (
	"regexp"
	"strings"
)

const (
	// DefaultHost is used when no endpoint override is configured.
	DefaultHost = "https://generativelanguage.googleapis.com"
	// DefaultVersion is appended to endpoints that carry no version segment.
	DefaultVersion = "v1beta"
)

// versionSegment matches API version path segments such as v1, v1beta or v1alpha2.
var versionSegment = regexp.MustCompile(`^v\d+(?:(?:alpha|beta)\d*)?$`)

// NormalizeEndpoint trims whitespace, any query or fragment and trailing
// slashes, substitutes the default host for an empty value, and appends the
// default version segment when the path does not already carry one. It is
// idempotent.
func NormalizeEndpoint(raw string) string {
	base := strings.TrimSpace(raw)
	// the client adds its own ?key= and path after the base
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimRight(base, "/")
	if base == "" {
		return DefaultHost + "/" + DefaultVersion
	}
	if _, _, ok := splitVersion(base); ok {
		return base
	}
	return base + "/" + DefaultVersion
}

// splitVersion returns the part of a normalized base URL in front of its
// version segment, and the segment itself.
func splitVersion(base string) (root, version string, ok bool) {
	rest := base
	prefix := ""
	if i := strings.Index(rest, "://"); i >= 0 {
		prefix, rest = rest[:i+3], rest[i+3:]
	}

	segments := strings.Split(rest, "/")
	// segments[0] is the host
	for i := 1; i < len(segments); i++ {
		if versionSegment.MatchString(segments[i]) {
			return prefix + strings.Join(segments[:i], "/"), segments[i], true
		}
	}
	return "", "", false
}
