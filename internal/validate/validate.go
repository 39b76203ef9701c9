// internal/validate/validate.go
package validate

import (
	"regexp"
	"strings"
)

// resultURLPattern matches a speedtest.net result permalink and nothing else:
// no trailing path segments, query strings or fragments. The single-letter
// segment encodes the result kind (app, desktop, in-browser).
var resultURLPattern = regexp.MustCompile(`^https://www\.speedtest\.net/my-result/(a|d|i)/[0-9]+$`)

// IsResultURL reports whether s, after trimming surrounding whitespace, is a
// well-formed speedtest.net result link. It performs no network access.
func IsResultURL(s string) bool {
	return resultURLPattern.MatchString(strings.TrimSpace(s))
}

// Partition splits raw input into valid result URLs and everything else,
// preserving input order in both lists. Entries that are blank after trimming
// are dropped entirely. The returned URLs are the trimmed forms.
func Partition(urls []string) (valid, invalid []string) {
	for _, raw := range urls {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		if IsResultURL(u) {
			valid = append(valid, u)
		} else {
			invalid = append(invalid, u)
		}
	}
	return valid, invalid
}
