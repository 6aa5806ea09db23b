package extractor

import (
	"context"
	"testing"

	"github.com/medialoom/socialpick/internal/config"
	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/platform"
	"github.com/medialoom/socialpick/pkg/ytdlp"
)

func TestInstagramCarouselPost(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://www.instagram.com/p/abc123/?__a=1&__d=dis"] = mustJSON(t, map[string]any{
		"items": []map[string]any{{
			"caption": map[string]any{"text": "a carousel"},
			"user":    map[string]any{"username": "someone"},
			"carousel_media": []map[string]any{
				{
					"image_versions2": map[string]any{"candidates": []map[string]any{
						{"url": "https://cdn/small.jpg", "width": 100},
						{"url": "https://cdn/big.jpg", "width": 800},
					}},
				},
				{
					"video_versions": []map[string]any{
						{"url": "https://cdn/clip.mp4", "width": 720},
					},
				},
			},
		}},
	})

	ig := NewInstagram(fetcher, &fakeRemuxer{}, &fakeDumper{}, config.TokensConfig{InstagramCookie: "sess=1"}, testLogger())
	post, err := ig.Resolve(context.Background(), platform.SafeParseURL("https://www.instagram.com/p/abc123/"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if post.Caption != "a carousel" || post.Author != "someone" {
		t.Errorf("post = %q by %q", post.Caption, post.Author)
	}
	if len(post.Medias) != 2 {
		t.Fatalf("got %d medias, want 2", len(post.Medias))
	}
	if post.Medias[0].ExternalURL != "https://cdn/big.jpg" {
		t.Errorf("media[0] = %q, want the widest candidate", post.Medias[0].ExternalURL)
	}
	if post.Medias[1].Type != domain.MediaVideo {
		t.Errorf("media[1].Type = %q, want video", post.Medias[1].Type)
	}

	opts := fetcher.opts["https://www.instagram.com/p/abc123/?__a=1&__d=dis"]
	if opts.Cookie != "sess=1" || !opts.UseProxy {
		t.Errorf("request opts = %+v, want cookie and proxy", opts)
	}
}

func TestInstagramReelMergesBestStreams(t *testing.T) {
	dumper := &fakeDumper{out: &ytdlp.Output{
		Description: "a reel",
		Uploader:    "someone",
		WebpageURL:  "https://www.instagram.com/reel/xyz/",
		Formats: []ytdlp.Format{
			{FormatID: "v1", URL: "https://cdn/v-small", Vcodec: "h264", Acodec: "none", Filesize: 100},
			{FormatID: "v2", URL: "https://cdn/v-big", Vcodec: "h264", Acodec: "none", Filesize: 400},
			{FormatID: "a1", URL: "https://cdn/a", Vcodec: "none", Acodec: "aac", Filesize: 40},
		},
	}}
	remuxer := &fakeRemuxer{}

	ig := NewInstagram(newFakeFetcher(), remuxer, dumper, config.TokensConfig{}, testLogger())
	post, err := ig.Resolve(context.Background(), platform.SafeParseURL("https://www.instagram.com/reel/xyz/"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if remuxer.mergedVideo != "https://cdn/v-big" || remuxer.mergedAudio != "https://cdn/a" {
		t.Errorf("merged %q + %q", remuxer.mergedVideo, remuxer.mergedAudio)
	}
	if len(post.Medias) != 1 {
		t.Fatalf("got %d medias, want 1", len(post.Medias))
	}
	if post.AuthorURL != "https://instagram.com/someone" {
		t.Errorf("AuthorURL = %q", post.AuthorURL)
	}
}

func TestInstagramNonPostPath(t *testing.T) {
	ig := NewInstagram(newFakeFetcher(), &fakeRemuxer{}, &fakeDumper{}, config.TokensConfig{}, testLogger())
	post, err := ig.Resolve(context.Background(), platform.SafeParseURL("https://www.instagram.com/someone/"))
	if post != nil || err != nil {
		t.Fatalf("Resolve() = %v, %v, want nil, nil", post, err)
	}
}
