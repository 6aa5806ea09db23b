package extractor

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/media"
	"github.com/medialoom/socialpick/pkg/ytdlp"
)

// Tiktok resolves tiktok videos through yt-dlp. H.264 renditions pass
// through as external links; when only H.265 is available the biggest
// rendition is converted locally so common players can show it.
type Tiktok struct {
	ytdlp  MetadataDumper
	remux  Remuxer
	logger *slog.Logger
}

// NewTiktok creates the Tiktok extractor.
func NewTiktok(dumper MetadataDumper, r Remuxer, logger *slog.Logger) *Tiktok {
	return &Tiktok{ytdlp: dumper, remux: r, logger: logger}
}

func (t *Tiktok) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	out, err := t.ytdlp.Dump(ctx, u.String())
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
	if len(muxed) == 0 {
		return nil, domain.NewShapeError(u.String(), "formats")
	}

	h264 := tiktokPlayable(muxed)
	if len(h264) > 0 {
		for _, f := range h264 {
			result.Medias = append(result.Medias, domain.Media{
				Type:        domain.MediaVideo,
				ExternalURL: f.URL,
				Filetype:    f.Ext,
				Description: tiktokDescription(f),
			})
		}
		return result, nil
	}

	// Only H.265 left: convert the biggest one.
	best, ok := media.Best(muxed, ytdlp.Format.Size)
	if !ok {
		return nil, domain.NewShapeError(u.String(), "formats")
	}
	converted := t.remux.Convert(ctx, best.URL, "mp4", "h264", "aac")
	appendMergeResult(result, converted)
	if len(result.Medias) > 0 {
		result.Medias[0].Description = tiktokDescription(best)
	}
	return result, nil
}

// tiktokPlayable keeps the formats that play without conversion.
func tiktokPlayable(formats []ytdlp.Format) []ytdlp.Format {
	var out []ytdlp.Format
	for _, f := range formats {
		if strings.Contains(strings.ToLower(f.Vcodec), "avc") || strings.Contains(strings.ToLower(f.Vcodec), "h264") {
			out = append(out, f)
		}
	}
	return out
}

func tiktokDescription(f ytdlp.Format) string {
	parts := []string{ytdlp.CodecName(f.Vcodec)}
	if size := f.Size(); size > 0 {
		parts = append(parts, humanSize(size))
	}
	if strings.Contains(strings.ToLower(f.FormatNote), "watermark") {
		parts = append(parts, "watermarked")
	}
	return strings.Join(parts, ", ")
}
