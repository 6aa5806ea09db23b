// Package extractor converts matched post URLs into normalized social posts.
// One extractor per platform; all of them answer (nil, nil) for URLs outside
// their post-path shape and a typed error for upstream failures.
package extractor

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/medialoom/socialpick/internal/config"
	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/fetch"
	"github.com/medialoom/socialpick/internal/platform"
	"github.com/medialoom/socialpick/internal/remux"
	"github.com/medialoom/socialpick/pkg/viewer"
	"github.com/medialoom/socialpick/pkg/ytdlp"
)

// Extractor resolves a URL of its platform into a SocialPost.
// A (nil, nil) return means "not applicable": the URL does not look like a
// post of this platform. Errors are hard upstream failures.
type Extractor interface {
	Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error)
}

// Fetcher is the slice of the HTTP client extractors consume.
type Fetcher interface {
	Text(ctx context.Context, url string, opts fetch.Options) (string, error)
	Bytes(ctx context.Context, url string, opts fetch.Options) ([]byte, error)
	JSON(ctx context.Context, url string, opts fetch.Options, out any) error
}

// Remuxer is the slice of the remux subsystem extractors consume.
type Remuxer interface {
	Merge(ctx context.Context, videoURL, audioURL string, opts remux.MergeOptions) remux.Result
	Convert(ctx context.Context, videoURL, targetExt, videoCodec, audioCodec string) remux.Result
	BuildUgoira(ctx context.Context, meta remux.UgoiraMeta, zipData []byte) *domain.Media
}

// MetadataDumper is the slice of the yt-dlp client extractors consume.
type MetadataDumper interface {
	Dump(ctx context.Context, url string, extraArgs ...string) (*ytdlp.Output, error)
}

// Deps carries everything the extractor set needs. Clients are constructed
// once at startup and injected; extractors hold no hidden global state.
type Deps struct {
	Fetch  Fetcher
	Remux  Remuxer
	Ytdlp  MetadataDumper
	Viewer *viewer.Template
	Tools  config.ToolsConfig
	Tokens config.TokensConfig
	Logger *slog.Logger
}

// Set is the typed dispatch table from platform to extractor.
type Set struct {
	table  map[platform.Platform]Extractor
	logger *slog.Logger
}

// NewSet builds the full extractor table. The aggregator platform receives
// the Twitter and Instagram extractors it delegates embedded blocks to.
func NewSet(d Deps) *Set {
	twitter := NewTwitter(d.Tools, d.Logger)
	instagram := NewInstagram(d.Fetch, d.Remux, d.Ytdlp, d.Tokens, d.Logger)
	pixiv := NewPixiv(d.Fetch, d.Remux, d.Viewer, d.Logger)

	table := map[platform.Platform]Extractor{
		platform.Twitter:       twitter,
		platform.TwitterDirect: &TwitterDirect{},
		platform.Instagram:     instagram,
		platform.Reddit:        NewReddit(d.Fetch, d.Remux, d.Viewer, d.Logger),
		platform.Pixiv:         pixiv,
		platform.PixivDirect:   NewPixivDirect(pixiv, d.Logger),
		platform.Tiktok:        NewTiktok(d.Ytdlp, d.Remux, d.Logger),
		platform.Youtube:       NewYoutube(d.Ytdlp, d.Logger),
		platform.Coub:          NewCoub(d.Fetch, d.Remux, d.Logger),
		platform.Osnova:        NewOsnova(d.Fetch, twitter, instagram, d.Logger),
		platform.Tumblr:        NewTumblr(d.Fetch, d.Tokens.TumblrAPIKey, d.Logger),
		platform.Joyreactor:    NewJoyreactor(d.Fetch, d.Viewer, d.Tokens.JoyreactorCookie, d.Logger),
		platform.KemonoParty:   NewKemono(d.Fetch, d.Tokens.KemonoCookie, d.Logger),
		platform.Danbooru:      &Danbooru{Fetch: d.Fetch},
		platform.Gelbooru:      &Gelbooru{Fetch: d.Fetch},
		platform.Konachan:      &Konachan{Fetch: d.Fetch},
		platform.Yandere:       &Yandere{Fetch: d.Fetch},
		platform.Eshuushuu:     &Eshuushuu{Fetch: d.Fetch},
		platform.Sankaku:       &Sankaku{Fetch: d.Fetch},
		platform.Zerochan:      &Zerochan{Fetch: d.Fetch},
		platform.AnimePictures: &AnimePictures{Fetch: d.Fetch},
	}

	return &Set{table: table, logger: d.Logger}
}

// Resolve dispatches to the extractor owning the platform. Unknown
// platforms degrade to "no result".
func (s *Set) Resolve(ctx context.Context, p platform.Platform, u *url.URL) (*domain.SocialPost, error) {
	ex, ok := s.table[p]
	if !ok || u == nil {
		return nil, nil
	}
	return ex.Resolve(ctx, u)
}
