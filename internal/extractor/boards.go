package extractor

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/fetch"
	"github.com/medialoom/socialpick/internal/platform"
)

// The image boards share one shape: fetch the post page, find the
// full-resolution link, return a single-photo post.

var danbooruPostPathRx = regexp.MustCompile(`^/posts/\d+`)

// Danbooru resolves danbooru post pages.
type Danbooru struct {
	Fetch Fetcher
}

func (d *Danbooru) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	if !danbooruPostPathRx.MatchString(u.Path) {
		return nil, nil
	}

	doc, err := boardDocument(ctx, d.Fetch, u)
	if err != nil {
		return nil, err
	}

	source, ok := doc.Find("#post-info-size > a").First().Attr("href")
	if !ok || source == "" {
		return nil, domain.NewShapeError(u.String(), "#post-info-size")
	}

	post := singlePhotoPost(u, source)

	uploader := doc.Find("#post-info-uploader > a").First()
	if uploader.Length() > 0 {
		post.Author = uploader.AttrOr("data-user-name", "")
		if href, ok := uploader.Attr("href"); ok {
			post.AuthorURL = resolveAgainst(u, href)
		}
	}
	return post, nil
}

// Gelbooru resolves gelbooru post pages through the tag-list original link.
type Gelbooru struct {
	Fetch Fetcher
}

func (g *Gelbooru) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	doc, err := boardDocument(ctx, g.Fetch, u)
	if err != nil {
		return nil, err
	}

	source, ok := doc.Find(`.tag-list a[href$=".jpeg"], .tag-list a[href$=".jpg"], .tag-list a[href$=".png"]`).
		First().Attr("href")
	if !ok || source == "" {
		return nil, domain.NewShapeError(u.String(), ".tag-list")
	}
	return singlePhotoPost(u, source), nil
}

// The highres anchor carries href before or after its id depending on
// the board, so the tag is located first and href extracted second.
var (
	boardHighresAnchorRx = regexp.MustCompile(`(?i)<a\s[^>]*id="?highres[^>]*>`)
	boardHrefRx          = regexp.MustCompile(`(?i)href="([^"]+)"`)
)

// Konachan resolves konachan post pages via the highres anchor.
type Konachan struct {
	Fetch Fetcher
}

func (k *Konachan) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	return highresPost(ctx, k.Fetch, u)
}

// Yandere resolves yande.re post pages via the highres anchor.
type Yandere struct {
	Fetch Fetcher
}

func (y *Yandere) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	return highresPost(ctx, y.Fetch, u)
}

// Sankaku resolves sankaku post pages. The highres anchor comes
// before its id attribute there, with protocol-relative links.
type Sankaku struct {
	Fetch Fetcher
}

var sankakuHighresRx = regexp.MustCompile(`(?i)<a\s+href="([^"]+)"\s+id="?highres`)

func (s *Sankaku) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	body, err := s.Fetch.Text(ctx, u.String(), fetch.Options{})
	if err != nil {
		return nil, err
	}

	m := sankakuHighresRx.FindStringSubmatch(bodySection(body))
	if m == nil {
		return nil, domain.NewShapeError(u.String(), "highres")
	}

	source := strings.ReplaceAll(m[1], "&amp;", "&")
	if !strings.HasPrefix(source, "https:") {
		source = "https:" + source
	}
	return singlePhotoPost(u, source), nil
}

// Eshuushuu resolves e-shuushuu.net image pages.
type Eshuushuu struct {
	Fetch Fetcher
}

var eshuushuuThumbRx = regexp.MustCompile(`(?i)<a\s+class="thumb_image"\s+href="([^"]+)"`)

func (e *Eshuushuu) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	body, err := e.Fetch.Text(ctx, u.String(), fetch.Options{})
	if err != nil {
		return nil, err
	}

	m := eshuushuuThumbRx.FindStringSubmatch(bodySection(body))
	if m == nil {
		return nil, domain.NewShapeError(u.String(), "thumb_image")
	}

	path := strings.TrimPrefix(strings.ReplaceAll(m[1], "//", "/"), "/")
	return singlePhotoPost(u, "https://e-shuushuu.net/"+path), nil
}

// Zerochan resolves zerochan pages through og:image meta tags; the page
// body is then scanned for a larger variant with the same basename.
type Zerochan struct {
	Fetch Fetcher
}

var (
	zerochanOgImageRx      = regexp.MustCompile(`(?i)<meta\s+(?:name|property)="og:image"\s+content="([^"]+)"`)
	zerochanTwitterImageRx = regexp.MustCompile(`(?i)<meta\s+(?:name|property)="twitter:image"\s+content="([^"]+)"`)
	zerochanExtensionRx    = regexp.MustCompile(`\.\w+$`)
)

func (z *Zerochan) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	body, err := z.Fetch.Text(ctx, u.String(), fetch.Options{})
	if err != nil {
		return nil, err
	}

	head := strings.SplitN(body, "</head", 2)[0]
	var source string
	if m := zerochanOgImageRx.FindStringSubmatch(head); m != nil {
		source = m[1]
	} else if m := zerochanTwitterImageRx.FindStringSubmatch(head); m != nil {
		source = m[1]
	}
	if source == "" {
		return nil, domain.NewShapeError(u.String(), "og:image")
	}

	basename := zerochanExtensionRx.ReplaceAllString(source, "")
	if basenameRx, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(basename) + `\.\w+`); err == nil {
		if all := basenameRx.FindAllString(body, -1); len(all) > 0 {
			source = all[len(all)-1]
		}
	}
	return singlePhotoPost(u, source), nil
}

// AnimePictures resolves anime-pictures.net post pages.
type AnimePictures struct {
	Fetch Fetcher
}

func (a *AnimePictures) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	doc, err := boardDocument(ctx, a.Fetch, u)
	if err != nil {
		return nil, err
	}

	source, ok := doc.Find("#get_image_link").First().Attr("href")
	if !ok || source == "" {
		return nil, domain.NewShapeError(u.String(), "#get_image_link")
	}
	return singlePhotoPost(u, resolveAgainst(u, source)), nil
}

func boardDocument(ctx context.Context, f Fetcher, u *url.URL) (*goquery.Document, error) {
	body, err := f.Text(ctx, u.String(), fetch.Options{})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, domain.NewShapeError(u.String(), "document")
	}
	return doc, nil
}

func highresPost(ctx context.Context, f Fetcher, u *url.URL) (*domain.SocialPost, error) {
	body, err := f.Text(ctx, u.String(), fetch.Options{})
	if err != nil {
		return nil, err
	}

	anchor := boardHighresAnchorRx.FindString(bodySection(body))
	if anchor == "" {
		return nil, domain.NewShapeError(u.String(), "highres")
	}
	m := boardHrefRx.FindStringSubmatch(anchor)
	if m == nil {
		return nil, domain.NewShapeError(u.String(), "highres")
	}
	return singlePhotoPost(u, m[1]), nil
}

// bodySection cuts everything before <body so head markup never matches.
func bodySection(page string) string {
	parts := strings.SplitN(page, "<body", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return page
}

func singlePhotoPost(u *url.URL, source string) *domain.SocialPost {
	return &domain.SocialPost{
		PostURL: u.String(),
		Medias: []domain.Media{{
			Type:        domain.MediaPhoto,
			ExternalURL: source,
		}},
	}
}

// resolveAgainst makes href absolute relative to the page origin.
func resolveAgainst(page *url.URL, href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return platform.SafeParseURL(href).String()
	}
	return page.ResolveReference(parsed).String()
}
