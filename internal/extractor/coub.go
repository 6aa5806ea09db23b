package extractor

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/fetch"
	"github.com/medialoom/socialpick/internal/media"
	"github.com/medialoom/socialpick/internal/remux"
)

type coubVersion struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

type coubJSON struct {
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	Channel   struct {
		Title     string `json:"title"`
		Permalink string `json:"permalink"`
	} `json:"channel"`
	FileVersions struct {
		HTML5 struct {
			Video map[string]coubVersion `json:"video"`
			Audio map[string]coubVersion `json:"audio"`
		} `json:"html5"`
		Mobile struct {
			Video string   `json:"video"`
			Audio []string `json:"audio"`
		} `json:"mobile"`
		Share struct {
			Default string `json:"default"`
		} `json:"share"`
	} `json:"file_versions"`
}

// Coub resolves coub clips. The silent video track and the looping
// audio track ship separately, so the result is merged locally with
// the video looped until the audio runs out.
type Coub struct {
	fetch  Fetcher
	remux  Remuxer
	logger *slog.Logger
}

// NewCoub creates the Coub extractor.
func NewCoub(f Fetcher, r Remuxer, logger *slog.Logger) *Coub {
	return &Coub{fetch: f, remux: r, logger: logger}
}

func (c *Coub) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	if !strings.HasPrefix(u.Path, "/view/") {
		return nil, nil
	}

	body, err := c.fetch.Text(ctx, u.String(), fetch.Options{})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, domain.NewShapeError(u.String(), "document")
	}

	raw := doc.Find("script#coubPageCoubJson").Text()
	if raw == "" {
		return nil, domain.NewShapeError(u.String(), "coubPageCoubJson")
	}

	var coub coubJSON
	if err := json.Unmarshal([]byte(raw), &coub); err != nil {
		return nil, domain.NewShapeError(u.String(), "coubPageCoubJson")
	}

	result := &domain.SocialPost{
		Caption:   coub.Title,
		Author:    coub.Channel.Title,
		AuthorURL: "https://coub.com/" + coub.Channel.Permalink,
		PostURL:   "https://coub.com/view/" + coub.Permalink,
	}

	videoURL := bestCoubVersion(coub.FileVersions.HTML5.Video)
	audioURL := bestCoubVersion(coub.FileVersions.HTML5.Audio)

	if videoURL == "" {
		videoURL = coub.FileVersions.Mobile.Video
		if len(coub.FileVersions.Mobile.Audio) > 0 {
			audioURL = coub.FileVersions.Mobile.Audio[0]
		}
	}

	if videoURL == "" {
		share := coub.FileVersions.Share.Default
		if share == "" {
			return nil, domain.NewShapeError(u.String(), "file_versions")
		}
		result.Medias = append(result.Medias, domain.Media{
			Type:        domain.MediaVideo,
			ExternalURL: share,
		})
		return result, nil
	}

	merge := c.remux.Merge(ctx, videoURL, audioURL, remux.MergeOptions{LoopVideo: true})
	appendMergeResult(result, merge)
	return result, nil
}

// bestCoubVersion picks the biggest rendition of a version map.
func bestCoubVersion(versions map[string]coubVersion) string {
	items := make([]coubVersion, 0, len(versions))
	for _, v := range versions {
		if v.URL != "" {
			items = append(items, v)
		}
	}
	best, ok := media.Best(items, func(v coubVersion) int64 { return v.Size })
	if !ok {
		return ""
	}
	return best.URL
}
