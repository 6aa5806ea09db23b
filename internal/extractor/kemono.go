package extractor

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/fetch"
)

const kemonoOrigin = "https://kemono.party"

// Kemono scrapes kemono.party post pages. The first thumbnail is the
// page banner and gets skipped.
type Kemono struct {
	fetch  Fetcher
	cookie string
	logger *slog.Logger
}

// NewKemono creates the Kemono extractor.
func NewKemono(f Fetcher, cookie string, logger *slog.Logger) *Kemono {
	return &Kemono{fetch: f, cookie: cookie, logger: logger}
}

func (k *Kemono) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	if u.Path == "" || u.Path == "/" {
		return nil, nil
	}

	postURL := kemonoOrigin + u.Path
	body, err := k.fetch.Text(ctx, postURL, fetch.Options{Cookie: k.cookie})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, domain.NewShapeError(postURL, "document")
	}

	result := &domain.SocialPost{PostURL: postURL}

	doc.Find(".post__thumbnail > .fileThumb").Each(func(i int, anchor *goquery.Selection) {
		if i == 0 {
			return
		}
		media := domain.Media{Type: domain.MediaPhoto}
		if href, ok := anchor.Attr("href"); ok {
			media.Original = kemonoAbsolute(href)
		}
		if src, ok := anchor.Find("img").First().Attr("src"); ok {
			media.ExternalURL = kemonoAbsolute(src)
		}
		if media.ExternalURL == "" && media.Original == "" {
			return
		}
		if media.ExternalURL == "" {
			media.ExternalURL = media.Original
		}
		result.Medias = append(result.Medias, media)
	})

	user := doc.Find(".post__user-name").First()
	result.Author = strings.TrimSpace(user.Text())
	if href, ok := user.Attr("href"); ok {
		result.AuthorURL = kemonoAbsolute(href)
	}
	result.Caption = strings.TrimSpace(doc.Find(".post__title").First().Text())

	return result, nil
}

func kemonoAbsolute(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	if strings.HasPrefix(link, "//") {
		return "https:" + link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return kemonoOrigin + link
}
