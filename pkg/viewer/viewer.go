// Package viewer builds proxy URLs for image storages with limited access
// (hotlink protection, referer checks, region locks).
package viewer

import (
	"encoding/json"
	"strings"
)

// Template wraps the configured viewer URL template. The template carries
// __LINK__, __HEADERS__ and __PROXY__ placeholders substituted per link.
type Template struct {
	raw string
}

// New creates a Template. An empty template disables proxying: Form then
// returns links unchanged.
func New(raw string) *Template {
	return &Template{raw: raw}
}

// Form builds the proxied viewer URL for link, sending origin as the
// referer. useProxy asks the viewer to route through its own upstream proxy.
func (t *Template) Form(link, origin string, useProxy bool) string {
	if t.raw == "" {
		return link
	}

	headers, _ := json.Marshal(map[string]string{"referer": origin})

	proxyFlag := "0"
	if useProxy {
		proxyFlag = "1"
	}

	return decode(strings.NewReplacer(
		"__LINK__", link,
		"__HEADERS__", string(headers),
		"__PROXY__", proxyFlag,
	).Replace(t.raw))
}

// Escapes of URI-reserved characters stay encoded when the viewer URL is
// decoded, so the wrapped link keeps its own structure.
const reservedEscapes = ";/?:@&=+$,#"

// decode resolves percent escapes in s, keeping reserved ones intact.
// A malformed escape returns s unchanged.
func decode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return s
		}
		hi, okHi := unhex(s[i+1])
		lo, okLo := unhex(s[i+2])
		if !okHi || !okLo {
			return s
		}
		if c := hi<<4 | lo; strings.IndexByte(reservedEscapes, c) >= 0 {
			b.WriteString(s[i : i+3])
		} else {
			b.WriteByte(c)
		}
		i += 2
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
