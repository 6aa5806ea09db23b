package extractor

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/fetch"
	"github.com/medialoom/socialpick/internal/platform"
	"github.com/medialoom/socialpick/internal/remux"
	"github.com/medialoom/socialpick/pkg/viewer"
)

var (
	redditPostRx  = regexp.MustCompile(`(?i)^((?:/r/[\w.-]+)?/comments/[\w.-]+)/?`)
	imgurHostRx   = regexp.MustCompile(`(?i)imgur\.com$`)
	plainImageRx  = regexp.MustCompile(`(?i)\.(jpe?g|png)$`)
	gifRx         = regexp.MustCompile(`(?i)\.gif$`)
	hlsAudioURIRx = regexp.MustCompile(`URI="([^"]+)"`)
)

// redditMediaSource is one rendition in preview/media metadata.
type redditMediaSource struct {
	URL string `json:"url"`
	Gif string `json:"gif"`
	U   string `json:"u"`
}

type redditPostData struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	URL             string `json:"url"`
	URLOverridden   string `json:"url_overridden_by_dest"`
	IsVideo         bool   `json:"is_video"`
	IsGallery       bool   `json:"is_gallery"`
	CrosspostParent string `json:"crosspost_parent"`
	SecureMedia     *struct {
		RedditVideo *struct {
			FallbackURL string `json:"fallback_url"`
			HLSURL      string `json:"hls_url"`
		} `json:"reddit_video"`
	} `json:"secure_media"`
	GalleryData *struct {
		Items []struct {
			MediaID string `json:"media_id"`
		} `json:"items"`
	} `json:"gallery_data"`
	MediaMetadata map[string]struct {
		S *redditMediaSource `json:"s"`
	} `json:"media_metadata"`
	Preview *struct {
		Images []struct {
			Source   *redditMediaSource `json:"source"`
			Variants *struct {
				Gif *struct {
					Source *redditMediaSource `json:"source"`
				} `json:"gif"`
				MP4 *struct {
					Source *redditMediaSource `json:"source"`
				} `json:"mp4"`
			} `json:"variants"`
		} `json:"images"`
	} `json:"preview"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPostData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Reddit resolves reddit post URLs through the public .json listing API.
// Videos are re-joined with their separately-hosted audio rendition found
// by walking the HLS master playlist.
type Reddit struct {
	fetch  Fetcher
	remux  Remuxer
	viewer *viewer.Template
	logger *slog.Logger
}

// NewReddit creates the Reddit extractor.
func NewReddit(f Fetcher, r Remuxer, v *viewer.Template, logger *slog.Logger) *Reddit {
	return &Reddit{fetch: f, remux: r, viewer: v, logger: logger}
}

func (rd *Reddit) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	path := u.Path
	if u.Hostname() == "redd.it" {
		path = "/comments" + path
	}

	m := redditPostRx.FindStringSubmatch(path)
	if m == nil {
		return nil, nil
	}

	postURL := "https://www.reddit.com" + m[1]
	opts := fetch.Options{Referer: "https://www.reddit.com/"}

	var listings []redditListing
	if err := rd.fetch.JSON(ctx, postURL+".json", opts, &listings); err != nil {
		return nil, err
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return nil, domain.NewShapeError(postURL, "post")
	}
	post := listings[0].Data.Children[0].Data

	// Crossposts resolve through their parent.
	if post.CrosspostParent != "" {
		parts := strings.SplitN(post.CrosspostParent, "_", 2)
		if len(parts) != 2 || parts[1] == "" {
			return nil, nil
		}
		return rd.Resolve(ctx, platform.SafeParseURL("https://www.reddit.com/comments/"+parts[1]))
	}

	result := &domain.SocialPost{
		Caption:   post.Title,
		Author:    post.Author,
		AuthorURL: "https://www.reddit.com/u/" + post.Author,
		PostURL:   postURL,
	}

	imageURL := post.URL
	if imageURL == "" {
		imageURL = post.URLOverridden
	}
	isGif := gifRx.MatchString(imageURL)

	if post.IsVideo {
		if post.SecureMedia == nil || post.SecureMedia.RedditVideo == nil || post.SecureMedia.RedditVideo.FallbackURL == "" {
			return nil, domain.NewShapeError(postURL, "secure_media.reddit_video")
		}
		video := post.SecureMedia.RedditVideo.FallbackURL
		hls := post.SecureMedia.RedditVideo.HLSURL

		mediaType := domain.MediaVideo
		if isGif {
			mediaType = domain.MediaGif
		}

		merge := remux.Result{ExternalURL: video}
		if !isGif && hls != "" {
			if audio := rd.findHLSAudio(ctx, hls, opts); audio != "" {
				merge = rd.remux.Merge(ctx, video, audio, remux.MergeOptions{})
			}
		}

		appendMergeResult(result, merge)
		if len(result.Medias) > 0 && !result.Medias[0].Local() {
			result.Medias[0].Type = mediaType
		}
		return result, nil
	}

	if post.IsGallery {
		if post.GalleryData != nil {
			for _, item := range post.GalleryData.Items {
				meta, ok := post.MediaMetadata[item.MediaID]
				if !ok || meta.S == nil {
					continue
				}
				if meta.S.Gif != "" {
					result.Medias = append(result.Medias, domain.Media{
						Type:        domain.MediaGif,
						ExternalURL: meta.S.Gif,
					})
					continue
				}
				preview := platform.SafeParseURL(htmlUnescapeAmp(meta.S.U))
				result.Medias = append(result.Medias, domain.Media{
					Type:        domain.MediaPhoto,
					ExternalURL: "https://" + strings.Replace(preview.Hostname(), "preview.", "i.", 1) + preview.Path,
				})
			}
		}
		return result, nil
	}

	// Animated previews (gifs hosted as mp4).
	if post.Preview != nil {
		for _, image := range post.Preview.Images {
			if image.Variants == nil || image.Variants.MP4 == nil || image.Variants.MP4.Source == nil {
				continue
			}
			mediaType := domain.MediaVideo
			if image.Variants.Gif != nil && image.Variants.Gif.Source != nil {
				mediaType = domain.MediaGif
			}
			result.Medias = append(result.Medias, domain.Media{
				Type:        mediaType,
				ExternalURL: htmlUnescapeAmp(image.Variants.MP4.Source.URL),
				Filetype:    "mp4",
			})
		}
	}

	if len(result.Medias) == 0 && plainImageRx.MatchString(imageURL) {
		external := imageURL
		if imgurHostRx.MatchString(platform.SafeParseURL(imageURL).Hostname()) {
			source := imageURL
			if post.Preview != nil && len(post.Preview.Images) > 0 && post.Preview.Images[0].Source != nil {
				if u := htmlUnescapeAmp(post.Preview.Images[0].Source.URL); u != "" {
					source = u
				}
			}
			external = rd.viewer.Form(source, "https://www.reddit.com", true)
		}
		mediaType := domain.MediaPhoto
		if isGif {
			mediaType = domain.MediaGif
		}
		result.Medias = append(result.Medias, domain.Media{
			Type:        mediaType,
			ExternalURL: external,
		})
	}

	return result, nil
}

// findHLSAudio walks the HLS master playlist for the audio rendition URL.
// Any failure means "merge nothing": the fallback video plays on its own.
func (rd *Reddit) findHLSAudio(ctx context.Context, hlsURL string, opts fetch.Options) string {
	master, err := rd.fetch.Text(ctx, hlsURL, opts)
	if err != nil {
		rd.logger.Warn("reddit hls master fetch failed", "url", hlsURL, "error", err)
		return ""
	}

	audioPlaylist := audioPlaylistURI(master)
	if audioPlaylist == "" {
		return ""
	}

	playlistURL := siblingURL(hlsURL, audioPlaylist)
	playlist, err := rd.fetch.Text(ctx, playlistURL, opts)
	if err != nil {
		rd.logger.Warn("reddit hls audio playlist fetch failed", "url", playlistURL, "error", err)
		return ""
	}

	segment := lastSegment(playlist)
	if segment == "" {
		return ""
	}

	return siblingURL(hlsURL, segment)
}

// audioPlaylistURI extracts the URI of the last TYPE=AUDIO rendition
// declared in an HLS master playlist.
func audioPlaylistURI(master string) string {
	var audioLine string
	for _, line := range strings.Split(master, "\n") {
		if strings.Contains(strings.ToUpper(line), "TYPE=AUDIO") {
			audioLine = line
		}
	}
	if m := hlsAudioURIRx.FindStringSubmatch(audioLine); m != nil {
		return m[1]
	}
	return ""
}

// lastSegment returns the last non-comment entry of a media playlist.
func lastSegment(playlist string) string {
	var last string
	for _, line := range strings.Split(playlist, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			last = line
		}
	}
	return last
}

// siblingURL replaces the last path element of base with name.
func siblingURL(base, name string) string {
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		return base[:i+1] + name
	}
	return name
}

// htmlUnescapeAmp undoes the &amp; escaping reddit applies to CDN URLs.
func htmlUnescapeAmp(s string) string {
	return strings.ReplaceAll(s, "&amp;", "&")
}
