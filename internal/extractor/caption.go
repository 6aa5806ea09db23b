package extractor

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	shortLinkRx  = regexp.MustCompile(`(?i)\s?(?:https?://)?t\.co/\w+$`)
	whitespaceRx = regexp.MustCompile(`\s+`)
)

// cleanCaption strips trailing platform short-link tokens and collapses
// whitespace runs.
func cleanCaption(caption string) string {
	for {
		stripped := shortLinkRx.ReplaceAllString(caption, "")
		if stripped == caption {
			break
		}
		caption = stripped
	}
	return strings.TrimSpace(whitespaceRx.ReplaceAllString(caption, " "))
}

var sizeUnits = []string{"B", "kB", "MB", "GB", "TB"}

// humanSize renders a byte count for media pick descriptions.
func humanSize(bytes int64) string {
	if bytes <= 0 {
		return "0.00 B"
	}

	power := int(math.Log(float64(bytes)) / math.Log(1024))
	if power >= len(sizeUnits) {
		power = len(sizeUnits) - 1
	}
	return fmt.Sprintf("%.2f %s", float64(bytes)/math.Pow(1024, float64(power)), sizeUnits[power])
}

// trailingExtension returns the extension of a URL path, without the dot.
// Dots elsewhere in the URL (hostname, directories) do not count.
func trailingExtension(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || i == len(path)-1 {
		return ""
	}
	ext := path[i+1:]
	if len(ext) > 5 || strings.ContainsAny(ext, "/?&=") {
		return ""
	}
	return ext
}
