package extractor

import (
	"context"
	"testing"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/platform"
)

func tumblrPostFixture(t *testing.T, content []map[string]any) string {
	t.Helper()
	return mustJSON(t, map[string]any{"response": map[string]any{"content": content}})
}

func TestTumblrImageAndTextBlocks(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://api.tumblr.com/v2/blog/someblog/posts/123?api_key=key"] = tumblrPostFixture(t, []map[string]any{
		{"type": "text", "text": "first paragraph"},
		{
			"type": "image",
			"media": []map[string]any{
				{"url": "https://64.media.tumblr.com/small.jpg", "width": 400},
				{"url": "https://64.media.tumblr.com/big.jpg", "width": 1280},
			},
		},
		{"type": "text", "text": "second paragraph"},
		{
			"type": "image",
			"media": []map[string]any{
				{"url": "https://64.media.tumblr.com/anim.gif", "width": 500},
			},
		},
	})

	tumblr := NewTumblr(fetcher, "key", testLogger())
	post, err := tumblr.Resolve(context.Background(), platform.SafeParseURL("https://www.tumblr.com/someblog/123"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if post.Caption != "first paragraph\n\nsecond paragraph" {
		t.Errorf("Caption = %q", post.Caption)
	}
	if len(post.Medias) != 2 {
		t.Fatalf("got %d medias, want 2", len(post.Medias))
	}
	if post.Medias[0].ExternalURL != "https://64.media.tumblr.com/big.jpg" {
		t.Errorf("media[0] = %q, want the widest variant", post.Medias[0].ExternalURL)
	}
	if post.Medias[1].Type != domain.MediaGif {
		t.Errorf("media[1].Type = %q, want gif", post.Medias[1].Type)
	}
	if post.Author != "someblog" || post.PostURL != "https://someblog.tumblr.com/post/123" {
		t.Errorf("post = %q %q", post.Author, post.PostURL)
	}
}

func TestTumblrSubdomainForm(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://api.tumblr.com/v2/blog/someblog/posts/456?api_key=key"] = tumblrPostFixture(t, []map[string]any{
		{
			"type": "image",
			"media": []map[string]any{
				{"url": "https://64.media.tumblr.com/pic.png", "width": 640},
			},
		},
	})

	tumblr := NewTumblr(fetcher, "key", testLogger())
	post, err := tumblr.Resolve(context.Background(), platform.SafeParseURL("https://someblog.tumblr.com/post/456"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(post.Medias) != 1 {
		t.Fatalf("got %d medias, want 1", len(post.Medias))
	}
}

func TestTumblrTrailFallback(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://api.tumblr.com/v2/blog/someblog/posts/789?api_key=key"] = mustJSON(t, map[string]any{
		"response": map[string]any{
			"content": []map[string]any{},
			"trail": []map[string]any{
				{"content": []map[string]any{
					{
						"type": "image",
						"media": []map[string]any{
							{"url": "https://64.media.tumblr.com/reblog.jpg", "width": 800},
						},
					},
				}},
			},
		},
	})

	tumblr := NewTumblr(fetcher, "key", testLogger())
	post, err := tumblr.Resolve(context.Background(), platform.SafeParseURL("https://www.tumblr.com/someblog/789"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(post.Medias) != 1 || post.Medias[0].ExternalURL != "https://64.media.tumblr.com/reblog.jpg" {
		t.Fatalf("medias = %+v, want the trail image", post.Medias)
	}
}

func TestTumblrNotFoundIsNotApplicable(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.errs["https://api.tumblr.com/v2/blog/someblog/posts/404?api_key=key"] = domain.NewFetchError("x", 404, nil)

	tumblr := NewTumblr(fetcher, "key", testLogger())
	post, err := tumblr.Resolve(context.Background(), platform.SafeParseURL("https://www.tumblr.com/someblog/404"))
	if post != nil || err != nil {
		t.Fatalf("Resolve() = %v, %v, want nil, nil for a 404", post, err)
	}
}

func TestTumblrIDs(t *testing.T) {
	tests := []struct {
		url      string
		wantBlog string
		wantPost string
	}{
		{"https://www.tumblr.com/someblog/123", "someblog", "123"},
		{"https://someblog.tumblr.com/post/456", "someblog", "456"},
		{"https://someblog.tumblr.co.uk/posts/789", "someblog", "789"},
		{"https://www.tumblr.com/someblog", "", ""},
		{"https://example.com/post/123", "", ""},
	}

	for _, tt := range tests {
		blog, post := tumblrIDs(platform.SafeParseURL(tt.url))
		if blog != tt.wantBlog || post != tt.wantPost {
			t.Errorf("tumblrIDs(%q) = %q, %q, want %q, %q", tt.url, blog, post, tt.wantBlog, tt.wantPost)
		}
	}
}
