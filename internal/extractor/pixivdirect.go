package extractor

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"

	"github.com/medialoom/socialpick/internal/domain"
)

// i.pximg.net paths look like /img-original/img/2024/01/02/03/04/05/12345678_p2.png
var pximgPathRx = regexp.MustCompile(`/(\d+)_p(\d+)[._]`)

// PixivDirect maps a direct i.pximg.net image URL back to its artwork
// page and resolves the single page the URL points at.
type PixivDirect struct {
	pixiv  *Pixiv
	logger *slog.Logger
}

// NewPixivDirect creates the direct-link extractor on top of Pixiv.
func NewPixivDirect(pixiv *Pixiv, logger *slog.Logger) *PixivDirect {
	return &PixivDirect{pixiv: pixiv, logger: logger}
}

func (p *PixivDirect) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	m := pximgPathRx.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, nil
	}

	index, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, nil
	}

	return p.pixiv.resolveArtwork(ctx, m[1], index)
}
