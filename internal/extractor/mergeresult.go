package extractor

import (
	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/platform"
	"github.com/medialoom/socialpick/internal/remux"
)

// appendMergeResult maps a remux outcome onto the post's media list:
// external URL for pass-through/fallback, local file with its release
// callback for a successful merge. Empty results contribute nothing.
func appendMergeResult(post *domain.SocialPost, result remux.Result) {
	switch {
	case result.Local():
		post.Medias = append(post.Medias, domain.Media{
			Type:     domain.MediaVideo,
			Filename: result.Filename,
			Filetype: trailingExtension(platform.SafeParseURL(result.VideoSource).Path),
			Filesize: result.Filesize,
			OtherSources: map[string]string{
				"videoSource": result.VideoSource,
				"audioSource": result.AudioSource,
			},
			FileCallback: result.FileCallback,
		})
	case result.ExternalURL != "":
		post.Medias = append(post.Medias, domain.Media{
			Type:        domain.MediaVideo,
			ExternalURL: result.ExternalURL,
		})
	}
}
