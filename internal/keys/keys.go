// Package keys builds the composite partition keys used by the storage
// connectors. A composite key joins the identifiers of a record and its
// ancestors, so each hierarchy level has a single key attribute.
package keys

import "strings"

const (
	sep    = '#'
	escape = '\\'
)

// Compose joins identifier parts into a composite key.
// Separator and escape characters inside a part are escaped, so Split
// always recovers the original parts.
func Compose(parts ...string) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(sep)
		}
		for j := 0; j < len(p); j++ {
			c := p[j]
			if c == sep || c == escape {
				b.WriteByte(escape)
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Split reverses Compose.
func Split(key string) []string {
	var (
		parts []string
		cur   strings.Builder
	)
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == escape && i+1 < len(key):
			i++
			cur.WriteByte(key[i])
		case c == sep:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(parts, cur.String())
}
