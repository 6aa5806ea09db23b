package extractor

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"

	"github.com/medialoom/socialpick/internal/config"
	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/fetch"
	"github.com/medialoom/socialpick/internal/media"
	"github.com/medialoom/socialpick/internal/remux"
	"github.com/medialoom/socialpick/pkg/ytdlp"
)

var (
	instagramPostRx = regexp.MustCompile(`(?i)^/p/[\w-]+/?$`)
	instagramReelRx = regexp.MustCompile(`(?i)^/reel/[\w-]+/?$`)
)

// instagramVersion is one quality variant of an Instagram image or video.
type instagramVersion struct {
	URL    string `json:"url"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
}

// instagramItem is the post payload inside the web JSON API response.
type instagramItem struct {
	Caption *struct {
		Text string `json:"text"`
	} `json:"caption"`
	User *struct {
		Username string `json:"username"`
	} `json:"user"`
	VideoVersions  []instagramVersion `json:"video_versions"`
	ImageVersions2 *struct {
		Candidates []instagramVersion `json:"candidates"`
	} `json:"image_versions2"`
	CarouselMedia []instagramItem `json:"carousel_media"`
}

type instagramResponse struct {
	Items []instagramItem `json:"items"`
}

// Instagram resolves /p/ posts through the web JSON API and /reel/ clips
// through yt-dlp plus a video+audio merge.
type Instagram struct {
	fetch  Fetcher
	remux  Remuxer
	ytdlp  MetadataDumper
	tokens config.TokensConfig
	logger *slog.Logger
}

// NewInstagram creates the Instagram extractor.
func NewInstagram(f Fetcher, r Remuxer, y MetadataDumper, tokens config.TokensConfig, logger *slog.Logger) *Instagram {
	return &Instagram{fetch: f, remux: r, ytdlp: y, tokens: tokens, logger: logger}
}

func (ig *Instagram) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	switch {
	case instagramPostRx.MatchString(u.Path):
		return ig.resolvePost(ctx, u)
	case instagramReelRx.MatchString(u.Path):
		return ig.resolveReel(ctx, u)
	default:
		return nil, nil
	}
}

func (ig *Instagram) resolvePost(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	apiURL := "https://" + u.Hostname() + u.Path + "?__a=1&__d=dis"

	var resp instagramResponse
	err := ig.fetch.JSON(ctx, apiURL, fetch.Options{
		Referer:  "https://www.instagram.com/",
		Cookie:   ig.tokens.InstagramCookie,
		UseProxy: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Items) == 0 {
		return nil, domain.NewShapeError(apiURL, "items")
	}
	item := resp.Items[0]

	post := &domain.SocialPost{
		PostURL: "https://instagram.com" + u.Path,
	}
	if item.Caption != nil {
		post.Caption = item.Caption.Text
	}
	if item.User != nil {
		post.Author = item.User.Username
		post.AuthorURL = "https://instagram.com/" + item.User.Username
	}

	widest := func(v instagramVersion) int64 { return v.Width }

	switch {
	case len(item.CarouselMedia) > 0:
		for _, slot := range item.CarouselMedia {
			if best, ok := media.Best(slot.VideoVersions, widest); ok {
				post.Medias = append(post.Medias, domain.Media{
					Type:        domain.MediaVideo,
					ExternalURL: best.URL,
				})
				continue
			}
			if slot.ImageVersions2 != nil {
				if best, ok := media.Best(slot.ImageVersions2.Candidates, widest); ok {
					post.Medias = append(post.Medias, domain.Media{
						Type:        domain.MediaPhoto,
						ExternalURL: best.URL,
					})
				}
			}
		}
	case len(item.VideoVersions) > 0:
		if best, ok := media.Best(item.VideoVersions, widest); ok {
			post.Medias = []domain.Media{{Type: domain.MediaVideo, ExternalURL: best.URL}}
		}
	case item.ImageVersions2 != nil:
		if best, ok := media.Best(item.ImageVersions2.Candidates, widest); ok {
			post.Medias = []domain.Media{{Type: domain.MediaPhoto, ExternalURL: best.URL}}
		}
	}

	return post, nil
}

func (ig *Instagram) resolveReel(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	var extra []string
	if ig.tokens.InstagramCookiesFile != "" {
		extra = append(extra, "--cookies", ig.tokens.InstagramCookiesFile)
	}

	out, err := ig.ytdlp.Dump(ctx, u.String(), extra...)
	if err != nil {
		return nil, err
	}

	post := &domain.SocialPost{
		Caption:   out.Description,
		PostURL:   out.WebpageURL,
		Author:    out.Uploader,
		AuthorURL: out.UploaderURL,
	}
	if post.AuthorURL == "" && out.Uploader != "" {
		post.AuthorURL = "https://instagram.com/" + out.Uploader
	}

	size := func(f ytdlp.Format) int64 { return f.Size() }
	bestVideo, ok := media.Best(out.VideoOnly(), size)
	if !ok {
		return nil, domain.NewShapeError(u.String(), "formats")
	}
	bestAudio, _ := media.Best(out.AudioOnly(), size)

	result := ig.remux.Merge(ctx, bestVideo.URL, bestAudio.URL, remux.MergeOptions{})
	appendMergeResult(post, result)

	return post, nil
}
