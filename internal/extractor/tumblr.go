package extractor

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/fetch"
	"github.com/medialoom/socialpick/internal/media"
)

var (
	tumblrMainPathRx  = regexp.MustCompile(`(?i)^/([^/]+)/(\d+)`)
	tumblrSubPathRx   = regexp.MustCompile(`(?i)^/posts?/(\d+)`)
	tumblrSubdomainRx = regexp.MustCompile(`(?i)\.tumblr\.(com|co\.\w+|org)$`)
)

type tumblrImageVariant struct {
	URL   string `json:"url"`
	Width int64  `json:"width"`
}

type tumblrBlock struct {
	Type  string               `json:"type"`
	Text  string               `json:"text"`
	Media []tumblrImageVariant `json:"media"`
}

type tumblrAPIPost struct {
	Response struct {
		Content []tumblrBlock `json:"content"`
		Trail   []struct {
			Content []tumblrBlock `json:"content"`
		} `json:"trail"`
	} `json:"response"`
}

// Tumblr resolves tumblr posts through the v2 blog API. Image blocks
// yield their widest variant, text blocks join into the caption.
type Tumblr struct {
	fetch  Fetcher
	apiKey string
	logger *slog.Logger
}

// NewTumblr creates the Tumblr extractor.
func NewTumblr(f Fetcher, apiKey string, logger *slog.Logger) *Tumblr {
	return &Tumblr{fetch: f, apiKey: apiKey, logger: logger}
}

func (t *Tumblr) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	blogID, postID := tumblrIDs(u)
	if blogID == "" || postID == "" {
		return nil, nil
	}

	apiURL := "https://api.tumblr.com/v2/blog/" + blogID + "/posts/" + postID + "?api_key=" + url.QueryEscape(t.apiKey)

	var post tumblrAPIPost
	if err := t.fetch.JSON(ctx, apiURL, fetch.Options{}, &post); err != nil {
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Status == 404 {
			return nil, nil
		}
		return nil, err
	}

	content := post.Response.Content
	if len(content) == 0 && len(post.Response.Trail) > 0 {
		content = post.Response.Trail[0].Content
	}
	if len(content) == 0 {
		return nil, domain.NewShapeError(apiURL, "content")
	}

	result := &domain.SocialPost{
		Author:    blogID,
		AuthorURL: "https://" + blogID + ".tumblr.com",
		PostURL:   "https://" + blogID + ".tumblr.com/post/" + postID,
	}

	var captions []string
	for _, block := range content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				captions = append(captions, block.Text)
			}
		case "image":
			widest, ok := media.Best(block.Media, func(v tumblrImageVariant) int64 { return v.Width })
			if !ok || widest.URL == "" {
				continue
			}
			mediaType := domain.MediaPhoto
			if strings.HasSuffix(strings.ToLower(widest.URL), ".gif") {
				mediaType = domain.MediaGif
			}
			result.Medias = append(result.Medias, domain.Media{
				Type:        mediaType,
				ExternalURL: widest.URL,
			})
		}
	}

	if len(result.Medias) == 0 {
		return nil, domain.NewShapeError(apiURL, "content.image")
	}

	result.Caption = strings.TrimSpace(strings.Join(captions, "\n\n"))
	return result, nil
}

// tumblrIDs pulls the blog and post IDs from either the subdomain form
// (blog.tumblr.com/post/123) or the main-domain form (tumblr.com/blog/123).
func tumblrIDs(u *url.URL) (blogID, postID string) {
	if m := tumblrSubPathRx.FindStringSubmatch(u.Path); m != nil {
		if tumblrSubdomainRx.MatchString(u.Hostname()) {
			return tumblrSubdomainRx.ReplaceAllString(u.Hostname(), ""), m[1]
		}
		return "", ""
	}
	if m := tumblrMainPathRx.FindStringSubmatch(u.Path); m != nil {
		return m[1], m[2]
	}
	return "", ""
}
