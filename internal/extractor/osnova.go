package extractor

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/fetch"
	"github.com/medialoom/socialpick/internal/platform"
)

var (
	osnovaUserPostRx = regexp.MustCompile(`^/u/\d+[\w-]*/(\d+)`)
	osnovaPostRx     = regexp.MustCompile(`^(?:(?:/s)?/[\w-]+)?/(\d+)`)
	osnovaHostRx     = regexp.MustCompile(`^.*\.(\w+\.\w+)$`)
)

type osnovaBlock struct {
	Type string `json:"type"`
	Data struct {
		Items []struct {
			Image *struct {
				Data struct {
					UUID string `json:"uuid"`
					Type string `json:"type"`
				} `json:"data"`
			} `json:"image"`
		} `json:"items"`
		Tweet struct {
			Data struct {
				TweetData struct {
					IDStr string `json:"id_str"`
					User  struct {
						ScreenName string `json:"screen_name"`
					} `json:"user"`
				} `json:"tweet_data"`
			} `json:"data"`
		} `json:"tweet"`
		Instagram struct {
			Data struct {
				BoxData struct {
					URL string `json:"url"`
				} `json:"box_data"`
			} `json:"data"`
		} `json:"instagram"`
	} `json:"data"`
}

type osnovaPost struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Author struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"author"`
	Blocks []osnovaBlock `json:"blocks"`
}

type osnovaResponse struct {
	Result *osnovaPost `json:"result"`
}

// Osnova resolves posts on Osnova-engine sites (dtf.ru and friends).
// Posts are block lists: media blocks map straight to the leonardo CDN,
// embedded tweets and instagram posts are resolved through their own
// extractors. A failed embedded block drops its medias but never the post.
type Osnova struct {
	fetch     Fetcher
	twitter   Extractor
	instagram Extractor
	logger    *slog.Logger
}

// NewOsnova creates the Osnova extractor with the delegates it embeds.
func NewOsnova(f Fetcher, twitter, instagram Extractor, logger *slog.Logger) *Osnova {
	return &Osnova{fetch: f, twitter: twitter, instagram: instagram, logger: logger}
}

func (o *Osnova) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	host := u.Hostname()
	if m := osnovaHostRx.FindStringSubmatch(host); m != nil {
		host = m[1]
	}
	// the.tj is an alias domain, its API lives on tjournal.ru.
	if host == "the.tj" {
		host = "tjournal.ru"
	}

	postRx := osnovaPostRx
	if strings.HasPrefix(strings.ToLower(u.Path), "/u") {
		postRx = osnovaUserPostRx
	}
	m := postRx.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, nil
	}

	apiURL := "https://api." + host + "/v2.31/content?id=" + m[1]

	var response osnovaResponse
	if err := o.fetch.JSON(ctx, apiURL, fetch.Options{}, &response); err != nil {
		return nil, err
	}
	if response.Result == nil {
		return nil, domain.NewShapeError(apiURL, "result")
	}
	post := response.Result

	result := &domain.SocialPost{
		Caption:   post.Title,
		Author:    post.Author.Name,
		AuthorURL: "https://" + host + "/u/" + strconv.FormatInt(post.Author.ID, 10),
		PostURL:   post.URL,
	}

	// Embedded blocks load concurrently; results join in block order.
	type delegated struct {
		extractor Extractor
		link      string
	}
	var queue []delegated

	for _, block := range post.Blocks {
		switch block.Type {
		case "tweet":
			tweet := block.Data.Tweet.Data.TweetData
			if tweet.IDStr == "" {
				continue
			}
			queue = append(queue, delegated{
				extractor: o.twitter,
				link:      "https://twitter.com/" + tweet.User.ScreenName + "/status/" + tweet.IDStr,
			})
		case "instagram":
			if link := block.Data.Instagram.Data.BoxData.URL; link != "" {
				queue = append(queue, delegated{extractor: o.instagram, link: link})
			}
		case "media":
			for _, item := range block.Data.Items {
				if item.Image == nil || item.Image.Data.UUID == "" {
					continue
				}
				result.Medias = append(result.Medias, osnovaLeonardoMedia(item.Image.Data.UUID, item.Image.Data.Type))
			}
		}
	}

	if len(queue) > 0 {
		blockMedias := make([][]domain.Media, len(queue))
		group, groupCtx := errgroup.WithContext(ctx)
		for i, d := range queue {
			i, d := i, d
			group.Go(func() error {
				post, err := d.extractor.Resolve(groupCtx, platform.SafeParseURL(d.link))
				if err != nil || post == nil {
					o.logger.Warn("osnova embedded block failed", "link", d.link, "error", err)
					return nil
				}
				blockMedias[i] = post.Medias
				return nil
			})
		}
		group.Wait()
		for _, medias := range blockMedias {
			result.Medias = append(result.Medias, medias...)
		}
	}

	if len(result.Medias) == 0 {
		return nil, domain.NewShapeError(apiURL, "blocks")
	}
	return result, nil
}

// osnovaLeonardoMedia builds the CDN link for one uploaded image.
// Gifs are served as mp4, webp repacked as jpeg.
func osnovaLeonardoMedia(uuid, imageType string) domain.Media {
	base := "https://leonardo.osnova.io/" + uuid
	if imageType == "gif" {
		return domain.Media{
			Type:        domain.MediaVideo,
			ExternalURL: base + "/-/format/mp4/",
			Original:    base,
		}
	}
	external := base + "/-/preview/1000/"
	if imageType == "webp" {
		external += "-/format/jpeg/"
	}
	return domain.Media{
		Type:        domain.MediaPhoto,
		ExternalURL: external,
		Original:    base,
	}
}
