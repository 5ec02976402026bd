package intake

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client filename to a safe ASCII basename:
// path separators become spaces, whitespace runs become "_", anything
// outside [A-Za-z0-9_.-] is dropped and leading/trailing "._" are trimmed.
// The result may be empty.
func SanitizeFilename(name string) string {
	name = stripNonASCII(norm.NFKD.String(name))

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")

	return strings.Trim(name, "._")
}

func stripNonASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
}
