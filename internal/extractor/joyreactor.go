package extractor

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/fetch"
	"github.com/medialoom/socialpick/internal/platform"
	"github.com/medialoom/socialpick/pkg/viewer"
)

var (
	joyreactorImgHostRx = regexp.MustCompile(`^img\d+\.`)
	joyreactorPostRx    = regexp.MustCompile(`^/post/(\d+)`)
)

// Joyreactor scrapes joyreactor post pages. Direct image-host links
// short-circuit into a single viewer-proxied media.
type Joyreactor struct {
	fetch  Fetcher
	viewer *viewer.Template
	cookie string
	logger *slog.Logger
}

// NewJoyreactor creates the Joyreactor extractor.
func NewJoyreactor(f Fetcher, v *viewer.Template, cookie string, logger *slog.Logger) *Joyreactor {
	return &Joyreactor{fetch: f, viewer: v, cookie: cookie, logger: logger}
}

func (j *Joyreactor) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	if joyreactorImgHostRx.MatchString(u.Hostname()) {
		mediaType := domain.MediaPhoto
		if strings.HasSuffix(u.Path, ".gif") {
			mediaType = domain.MediaGif
		}
		return &domain.SocialPost{
			PostURL: u.String(),
			Medias: []domain.Media{{
				Type:        mediaType,
				ExternalURL: j.viewer.Form(u.String(), u.Scheme+"://"+u.Host, false),
			}},
		}, nil
	}

	m := joyreactorPostRx.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, nil
	}

	postURL := "https://joyreactor.cc/post/" + m[1]
	body, err := j.fetch.Text(ctx, postURL, fetch.Options{
		Referer: "https://joyreactor.cc/",
		Cookie:  j.cookie,
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, domain.NewShapeError(postURL, "document")
	}

	content := doc.Find(".post_content").First()
	if content.Length() == 0 {
		return nil, domain.NewShapeError(postURL, ".post_content")
	}

	result := &domain.SocialPost{PostURL: postURL}

	authorAnchor := doc.Find("#contentinner .uhead_nick a").First()
	result.Author = strings.TrimSpace(authorAnchor.Text())
	if href, ok := authorAnchor.Attr("href"); ok {
		result.AuthorURL = platform.SafeParseURL(href).String()
	}

	result.Caption = strings.TrimSpace(doc.Find(".post_content > div:first-child > h3").First().Text())
	if result.Caption == "" {
		description := doc.Find(".post_description").First().Text()
		result.Caption = strings.TrimSpace(strings.SplitN(description, ":", 2)[0])
	}

	content.Find(".image").Each(func(_ int, wrapper *goquery.Selection) {
		if media, ok := j.scrapeImageWrapper(wrapper); ok {
			result.Medias = append(result.Medias, media)
		}
	})

	if len(result.Medias) == 0 {
		return nil, nil
	}
	return result, nil
}

// scrapeImageWrapper maps one .image block to a media: either a video
// holder (webm/mp4 sources, gif holders marked separately) or a plain
// image with an optional full-size anchor.
func (j *Joyreactor) scrapeImageWrapper(wrapper *goquery.Selection) (domain.Media, bool) {
	holder := wrapper.Find(".video_holder, .video_gif_holder").First()
	if holder.Length() > 0 {
		video := wrapper.Find("video").First()
		if video.Length() == 0 {
			return domain.Media{}, false
		}

		_, muted := video.Attr("muted")
		isGif := holder.HasClass("video_gif_holder") || muted
		media := domain.Media{Type: domain.MediaVideo}
		if isGif {
			media.Type = domain.MediaGif
		}

		// Keep the last mp4 source: webm does not play everywhere.
		var source string
		video.Find("source").Each(func(_ int, s *goquery.Selection) {
			if strings.HasSuffix(strings.ToLower(s.AttrOr("type", "")), "mp4") {
				if src := reactorPrepareURL(s.AttrOr("src", "")); src != "" {
					source = src
				}
			}
		})
		if source != "" {
			media.Filetype = "mp4"
			media.ExternalURL = j.viewerProxy(source)
			media.Original = media.ExternalURL
		}

		if holder.HasClass("video_gif_holder") {
			if gif := reactorPrepareURL(holder.Find(".video_gif_source").AttrOr("href", "")); gif != "" {
				media.Original = j.viewerProxy(gif)
			}
			if media.ExternalURL == "" && media.Original != "" {
				media.ExternalURL = media.Original
			}
		}

		if media.ExternalURL == "" {
			return domain.Media{}, false
		}
		return media, true
	}

	preview := reactorPrepareURL(wrapper.Find("img").First().AttrOr("src", ""))
	if preview == "" {
		return domain.Media{}, false
	}

	media := domain.Media{
		Type:        domain.MediaPhoto,
		ExternalURL: j.viewerProxy(preview),
	}

	full := reactorPrepareURL(wrapper.Find("a").First().AttrOr("href", ""))
	media.Filetype = trailingExtension(full)
	if media.Filetype == "" {
		media.Filetype = trailingExtension(preview)
	}
	if full != "" {
		media.Original = j.viewerProxy(full)
	}
	return media, true
}

func (j *Joyreactor) viewerProxy(link string) string {
	u := platform.SafeParseURL(link)
	return j.viewer.Form(u.String(), u.Scheme+"://"+u.Host, false)
}

// reactorPrepareURL fixes up the protocol-relative links reactor markup uses.
func reactorPrepareURL(link string) string {
	if link == "" {
		return ""
	}
	u := platform.SafeParseURL(link)
	if u.Path == "" || u.Path == "/" {
		return ""
	}
	return u.String()
}
