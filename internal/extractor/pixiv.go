package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/fetch"
	"github.com/medialoom/socialpick/internal/remux"
	"github.com/medialoom/socialpick/pkg/viewer"
)

const (
	pixivOrigin   = "https://www.pixiv.net"
	pixivAllPages = -1
)

var (
	pixivArtworkRx      = regexp.MustCompile(`/artworks/(\d+)`)
	pixivPreloadURLRx   = regexp.MustCompile(`"original"\s*:\s*"([^"]+)"`)
	pixivPreloadPageRx  = regexp.MustCompile(`"pageCount"\s*:\s*(\d+)`)
	pixivTrailingFileRx = regexp.MustCompile(`\d+\.(\w+)$`)
	pixivMasterPageRx   = regexp.MustCompile(`(?i)\d+(_master\d+\.\w+)$`)
)

type pixivIllust struct {
	Title         string `json:"title"`
	IllustTitle   string `json:"illustTitle"`
	Description   string `json:"description"`
	IllustComment string `json:"illustComment"`
	UserName      string `json:"userName"`
	UserID        string `json:"userId"`
	PageCount     int    `json:"pageCount"`
	URLs          struct {
		Mini     string `json:"mini"`
		Thumb    string `json:"thumb"`
		Small    string `json:"small"`
		Regular  string `json:"regular"`
		Original string `json:"original"`
	} `json:"urls"`
	Tags struct {
		Tags []struct {
			Romaji string `json:"romaji"`
		} `json:"tags"`
	} `json:"tags"`
}

// caption picks the first filled caption-like field.
func (il pixivIllust) caption() string {
	for _, c := range []string{il.Title, il.IllustTitle, il.Description, il.IllustComment} {
		if c != "" {
			return c
		}
	}
	return ""
}

// ugoira reports whether the illust is an animation: pixiv marks it only
// through "ugoira" showing up in the image URLs or the romaji tags.
func (il pixivIllust) ugoira() bool {
	urls := []string{il.URLs.Mini, il.URLs.Thumb, il.URLs.Small, il.URLs.Regular, il.URLs.Original}
	for _, u := range urls {
		if strings.Contains(strings.ToLower(u), "ugoira") {
			return true
		}
	}
	for _, tag := range il.Tags.Tags {
		if strings.Contains(strings.ToLower(tag.Romaji), "ugoira") {
			return true
		}
	}
	return false
}

type pixivPreload struct {
	Illust map[string]pixivIllust `json:"illust"`
}

type pixivUgoiraMeta struct {
	Body struct {
		OriginalSrc string              `json:"originalSrc"`
		Frames      []remux.UgoiraFrame `json:"frames"`
	} `json:"body"`
}

// Pixiv resolves pixiv artwork pages, including multi-page posts and
// ugoira animations, which it assembles into a local video.
type Pixiv struct {
	fetch  Fetcher
	remux  Remuxer
	viewer *viewer.Template
	logger *slog.Logger
}

// NewPixiv creates the Pixiv extractor.
func NewPixiv(f Fetcher, r Remuxer, v *viewer.Template, logger *slog.Logger) *Pixiv {
	return &Pixiv{fetch: f, remux: r, viewer: v, logger: logger}
}

func (p *Pixiv) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	illustID := ""
	if m := pixivArtworkRx.FindStringSubmatch(u.Path); m != nil {
		illustID = m[1]
	} else {
		illustID = u.Query().Get("illust_id")
	}
	if illustID == "" {
		return nil, nil
	}
	return p.resolveArtwork(ctx, illustID, pixivAllPages)
}

// resolveArtwork fetches one artwork by id. pageIndex selects a single
// page of a multi-page post; pixivAllPages takes them all.
func (p *Pixiv) resolveArtwork(ctx context.Context, illustID string, pageIndex int) (*domain.SocialPost, error) {
	pageURL := pixivOrigin + "/en/artworks/" + illustID
	opts := fetch.Options{Referer: pixivOrigin, UseProxy: true}

	body, err := p.fetch.Text(ctx, pageURL, opts)
	if err != nil {
		return nil, err
	}

	illust, ok := parsePixivPreload(body, illustID)
	if !ok {
		return nil, domain.NewShapeError(pageURL, "meta-preload-data")
	}

	result := &domain.SocialPost{
		Caption:   illust.caption(),
		Author:    illust.UserName,
		AuthorURL: pixivOrigin + "/users/" + illust.UserID,
		PostURL:   pageURL,
	}

	if illust.ugoira() {
		if media := p.resolveUgoira(ctx, illustID, opts); media != nil {
			result.Medias = append(result.Medias, *media)
			return result, nil
		}
		// Ugoira assembly failed: fall through to the still frame.
	}

	original := illust.URLs.Original
	if original == "" {
		return nil, domain.NewShapeError(pageURL, "urls.original")
	}

	base := pixivTrailingFileRx.ReplaceAllString(original, "")
	filetype := "png"
	if m := pixivTrailingFileRx.FindStringSubmatch(original); m != nil {
		filetype = m[1]
	}
	master := illust.URLs.Regular
	if master == "" {
		master = pixivMasterFromOriginal(original)
	}

	pages := illust.PageCount
	if pages < 1 {
		pages = 1
	}
	for i := 0; i < pages; i++ {
		if pageIndex != pixivAllPages && i != pageIndex {
			continue
		}
		pageOriginal := fmt.Sprintf("%s%d.%s", base, i, filetype)
		pagePreview := pixivMasterPageRx.ReplaceAllString(master, fmt.Sprintf("%d$1", i))
		result.Medias = append(result.Medias, domain.Media{
			Type:        domain.MediaPhoto,
			ExternalURL: p.viewer.Form(pagePreview, pixivOrigin, true),
			Filetype:    filetype,
			Original:    p.viewer.Form(pageOriginal, pixivOrigin, true),
		})
	}

	return result, nil
}

// pixivMasterFromOriginal derives the master1200 preview link when the
// preload data carries no regular URL.
func pixivMasterFromOriginal(original string) string {
	master := strings.Replace(original, "/img-original/", "/img-master/", 1)
	return pixivTrailingFileRx.ReplaceAllString(master, "0_master1200.$1")
}

// resolveUgoira downloads the frame archive and timing metadata and
// assembles a video. Returns nil on any failure.
func (p *Pixiv) resolveUgoira(ctx context.Context, illustID string, opts fetch.Options) *domain.Media {
	metaURL := pixivOrigin + "/ajax/illust/" + illustID + "/ugoira_meta"

	var meta pixivUgoiraMeta
	if err := p.fetch.JSON(ctx, metaURL, opts, &meta); err != nil {
		p.logger.Warn("pixiv ugoira meta fetch failed", "illust", illustID, "error", err)
		return nil
	}
	if meta.Body.OriginalSrc == "" || len(meta.Body.Frames) == 0 {
		p.logger.Warn("pixiv ugoira meta incomplete", "illust", illustID)
		return nil
	}

	archive, err := p.fetch.Bytes(ctx, meta.Body.OriginalSrc, opts)
	if err != nil {
		p.logger.Warn("pixiv ugoira archive fetch failed", "illust", illustID, "error", err)
		return nil
	}

	return p.remux.BuildUgoira(ctx, remux.UgoiraMeta{
		OriginalSrc: meta.Body.OriginalSrc,
		Frames:      meta.Body.Frames,
	}, archive)
}

// parsePixivPreload pulls the illust record out of the page's
// meta-preload-data tag, falling back to a raw scan of the document
// when the markup shifts.
func parsePixivPreload(body, illustID string) (pixivIllust, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err == nil {
		if content, ok := doc.Find("#meta-preload-data").Attr("content"); ok {
			var preload pixivPreload
			if json.Unmarshal([]byte(content), &preload) == nil {
				if illust, ok := preload.Illust[illustID]; ok {
					return illust, true
				}
			}
		}
	}

	// Raw fallback: enough to find the original image and page count.
	urlMatch := pixivPreloadURLRx.FindStringSubmatch(body)
	if urlMatch == nil {
		return pixivIllust{}, false
	}
	var illust pixivIllust
	illust.URLs.Original = strings.ReplaceAll(urlMatch[1], `\/`, "/")
	illust.PageCount = 1
	if pageMatch := pixivPreloadPageRx.FindStringSubmatch(body); pageMatch != nil {
		fmt.Sscanf(pageMatch[1], "%d", &illust.PageCount)
	}
	return illust, true
}
