// Package sanitize strips characters that are not allowed in file names on common filesystems.
package sanitize

import "strings"

// Forbidden lists every character removed by Sanitize
const Forbidden = `<>:"'/\|?*`

var replacer = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(Forbidden))
	for _, r := range Forbidden {
		pairs = append(pairs, string(r), "")
	}
	return strings.NewReplacer(pairs...)
}()

// Sanitize removes every forbidden character from s. Everything else,
// whitespace included, is kept as is.
func Sanitize(s string) string {
	return replacer.Replace(s)
}
