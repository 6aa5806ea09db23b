package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/pkg/ytdlp"
)

// Youtube lists the downloadable renditions of a video through yt-dlp.
// Nothing is remuxed: every rendition is offered as an external link
// with a description the user can pick from.
type Youtube struct {
	ytdlp  MetadataDumper
	logger *slog.Logger
}

// NewYoutube creates the Youtube extractor.
func NewYoutube(dumper MetadataDumper, logger *slog.Logger) *Youtube {
	return &Youtube{ytdlp: dumper, logger: logger}
}

func (y *Youtube) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	out, err := y.ytdlp.Dump(ctx, u.String())
	if err != nil {
		return nil, err
	}

	result := &domain.SocialPost{
		Caption:   out.Title,
		Author:    out.Uploader,
		AuthorURL: out.UploaderURL,
		PostURL:   out.WebpageURL,
	}

	muxed := ytdlp.UniqueBySize(out.Muxed())
	sort.SliceStable(muxed, func(i, j int) bool { return muxed[i].Height > muxed[j].Height })
	for _, f := range muxed {
		result.Medias = append(result.Medias, domain.Media{
			Type:        domain.MediaVideo,
			ExternalURL: f.URL,
			Filetype:    f.Ext,
			Description: youtubeVideoDescription(f),
		})
	}

	for _, f := range ytdlp.UniqueBySize(out.AudioOnly()) {
		result.Medias = append(result.Medias, domain.Media{
			Type:        domain.MediaAudio,
			ExternalURL: f.URL,
			Filetype:    f.Ext,
			Description: youtubeAudioDescription(f),
		})
	}

	if len(result.Medias) == 0 {
		return nil, domain.NewShapeError(u.String(), "formats")
	}
	return result, nil
}

func youtubeVideoDescription(f ytdlp.Format) string {
	parts := []string{}
	if f.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dp", f.Height))
	}
	parts = append(parts, ytdlp.CodecName(f.Vcodec))
	if size := f.Size(); size > 0 {
		parts = append(parts, humanSize(size))
	}
	return strings.Join(parts, ", ")
}

func youtubeAudioDescription(f ytdlp.Format) string {
	parts := []string{"audio", ytdlp.CodecName(f.Acodec)}
	if size := f.Size(); size > 0 {
		parts = append(parts, humanSize(size))
	}
	return strings.Join(parts, ", ")
}
