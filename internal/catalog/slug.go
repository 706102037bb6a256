package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes the string and drops combining marks, so
// "Café Décor" slugs the same as "Cafe Decor".
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns a display name into a URL slug: accents stripped, lowered,
// any run of non-alphanumerics collapsed to a single hyphen.
func Slugify(name string) string {
	flat, _, err := transform.String(stripAccents, name)
	if err != nil {
		flat = name
	}

	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(flat) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
