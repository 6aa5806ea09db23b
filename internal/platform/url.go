package platform

import (
	"net/url"
	"strings"
)

// fallbackBase anchors relative inputs and serves as the inert placeholder
// when nothing can be parsed at all.
const fallbackBase = "https://example.com"

// SafeParseURL parses a link permissively: first as an absolute URL, then
// with an https scheme prefixed, then resolved against a dummy base. It
// never returns nil and never panics; hopeless input yields an inert
// placeholder URL.
func SafeParseURL(raw string) *url.URL {
	raw = strings.TrimSpace(raw)

	if u, err := url.Parse(raw); err == nil && u.Host != "" && u.Scheme != "" {
		return u
	}

	if !strings.Contains(raw, "://") {
		if u, err := url.Parse("https://" + raw); err == nil && u.Hostname() != "" {
			return u
		}
	}

	if base, err := url.Parse(fallbackBase); err == nil {
		if u, err := base.Parse(raw); err == nil {
			return u
		}
	}

	u, _ := url.Parse(fallbackBase)
	return u
}
