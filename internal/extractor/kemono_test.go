package extractor

import (
	"context"
	"testing"

	"github.com/medialoom/socialpick/internal/platform"
)

func TestKemonoScrapesThumbnails(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://kemono.party/patreon/user/1/post/2"] = `<html><body>
		<h1 class="post__title">a post</h1>
		<a class="post__user-name" href="/patreon/user/1">creator</a>
		<div class="post__thumbnail"><a class="fileThumb" href="/data/banner.png"><img src="/thumb/banner.png"></a></div>
		<div class="post__thumbnail"><a class="fileThumb" href="/data/one.png"><img src="/thumb/one.png"></a></div>
		<div class="post__thumbnail"><a class="fileThumb" href="/data/two.png"><img src="/thumb/two.png"></a></div>
	</body></html>`

	kemono := NewKemono(fetcher, "ddg=pass", testLogger())
	post, err := kemono.Resolve(context.Background(), platform.SafeParseURL("https://kemono.party/patreon/user/1/post/2"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// The first thumbnail is the banner and gets skipped.
	if len(post.Medias) != 2 {
		t.Fatalf("got %d medias, want 2", len(post.Medias))
	}
	if post.Medias[0].ExternalURL != "https://kemono.party/thumb/one.png" {
		t.Errorf("media[0] = %q", post.Medias[0].ExternalURL)
	}
	if post.Medias[0].Original != "https://kemono.party/data/one.png" {
		t.Errorf("media[0].Original = %q", post.Medias[0].Original)
	}
	if post.Caption != "a post" || post.Author != "creator" {
		t.Errorf("post = %q by %q", post.Caption, post.Author)
	}
	if got := fetcher.opts["https://kemono.party/patreon/user/1/post/2"].Cookie; got != "ddg=pass" {
		t.Errorf("request cookie = %q", got)
	}
}

func TestKemonoRootPath(t *testing.T) {
	kemono := NewKemono(newFakeFetcher(), "", testLogger())
	post, err := kemono.Resolve(context.Background(), platform.SafeParseURL("https://kemono.party/"))
	if post != nil || err != nil {
		t.Fatalf("Resolve() = %v, %v, want nil, nil", post, err)
	}
}
