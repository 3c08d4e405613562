package bistro

import (
	"strings"
)

// NormalizeOrigin strips any trailing slash so origins compare and
// concatenate consistently.
func NormalizeOrigin(origin string) string {
	return strings.TrimRight(origin, "/")
}

// ComposeURL joins an origin and a path with exactly one slash between
// them.
func ComposeURL(origin, path string) string {
	origin = NormalizeOrigin(origin)
	if path == "" {
		return origin + "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return origin + path
}

// FirstNonEmpty returns the first value that is not the empty string.
// It is the precedence primitive behind every SEO field chain.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
