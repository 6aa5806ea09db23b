package extractor

import (
	"context"
	"net/url"
	"regexp"

	"github.com/medialoom/socialpick/internal/domain"
)

var (
	pbsSuffixRx    = regexp.MustCompile(`:\w+$`)
	pbsExtensionRx = regexp.MustCompile(`\.\w+$`)
)

// TwitterDirect resolves direct links to the Twitter media CDNs. No network
// calls: everything derives from the URL itself.
type TwitterDirect struct{}

// Resolve handles video.twimg.com clips and pbs.twimg.com images.
func (TwitterDirect) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	if u.Hostname() == "video.twimg.com" {
		clean := *u
		clean.RawQuery = ""
		href := clean.String()

		return &domain.SocialPost{
			PostURL: href,
			Medias: []domain.Media{{
				Type:        domain.MediaVideo,
				ExternalURL: href,
				Original:    href,
			}},
		}, nil
	}

	format := u.Query().Get("format")
	if format == "" {
		format = "jpg"
	}
	mediaPath := pbsExtensionRx.ReplaceAllString(pbsSuffixRx.ReplaceAllString(u.Path, ""), "")

	href := "https://pbs.twimg.com" + mediaPath + "." + format

	return &domain.SocialPost{
		PostURL: href,
		Medias: []domain.Media{{
			Type:        domain.MediaPhoto,
			ExternalURL: href,
			Original:    href + ":orig",
		}},
	}, nil
}
