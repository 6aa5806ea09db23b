package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/platform"
	"github.com/medialoom/socialpick/pkg/viewer"
)

const joyreactorViewerTemplate = "https://viewer.example.com/?link=__LINK__&headers=__HEADERS__&proxy=__PROXY__"

func TestJoyreactorDirectImageHost(t *testing.T) {
	joyreactor := NewJoyreactor(newFakeFetcher(), viewer.New(joyreactorViewerTemplate), "", testLogger())

	post, err := joyreactor.Resolve(context.Background(), platform.SafeParseURL("https://img10.joyreactor.cc/pics/post/full/pic-123.gif"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(post.Medias) != 1 {
		t.Fatalf("got %d medias, want 1", len(post.Medias))
	}
	if post.Medias[0].Type != domain.MediaGif {
		t.Errorf("Type = %q, want gif", post.Medias[0].Type)
	}
	if !strings.Contains(post.Medias[0].ExternalURL, "viewer.example.com") {
		t.Errorf("ExternalURL = %q, want a viewer link", post.Medias[0].ExternalURL)
	}
}

func TestJoyreactorPostScrape(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://joyreactor.cc/post/555"] = `<html><body><div id="contentinner">
		<div class="uhead_nick"><a href="https://joyreactor.cc/user/someone">someone</a></div>
		<div class="post_content">
			<div><h3>post title</h3></div>
			<div class="image">
				<a href="https://img10.joyreactor.cc/pics/post/full/pic-1.jpeg">
					<img src="https://img10.joyreactor.cc/pics/post/pic-1.jpeg">
				</a>
			</div>
			<div class="image">
				<div class="video_holder">
					<video><source src="//img10.joyreactor.cc/pics/post/webm/clip.webm" type="video/webm">
					<source src="//img10.joyreactor.cc/pics/post/mp4/clip.mp4" type="video/mp4"></video>
				</div>
			</div>
		</div>
	</div></body></html>`

	joyreactor := NewJoyreactor(fetcher, viewer.New(joyreactorViewerTemplate), "sessioncookie", testLogger())

	post, err := joyreactor.Resolve(context.Background(), platform.SafeParseURL("https://m.joyreactor.cc/post/555"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if post.Caption != "post title" || post.Author != "someone" {
		t.Errorf("post = %q by %q", post.Caption, post.Author)
	}
	if len(post.Medias) != 2 {
		t.Fatalf("got %d medias, want 2", len(post.Medias))
	}
	if post.Medias[0].Type != domain.MediaPhoto || post.Medias[0].Filetype != "jpeg" {
		t.Errorf("media[0] = %+v", post.Medias[0])
	}
	if post.Medias[1].Type != domain.MediaVideo || post.Medias[1].Filetype != "mp4" {
		t.Errorf("media[1] = %+v", post.Medias[1])
	}
	if !strings.Contains(post.Medias[1].ExternalURL, "clip.mp4") {
		t.Errorf("media[1].ExternalURL = %q, want the mp4 source", post.Medias[1].ExternalURL)
	}

	if got := fetcher.opts["https://joyreactor.cc/post/555"].Cookie; got != "sessioncookie" {
		t.Errorf("request cookie = %q", got)
	}
}

func TestJoyreactorNonPostPath(t *testing.T) {
	joyreactor := NewJoyreactor(newFakeFetcher(), viewer.New(""), "", testLogger())
	post, err := joyreactor.Resolve(context.Background(), platform.SafeParseURL("https://joyreactor.cc/tag/anime"))
	if post != nil || err != nil {
		t.Fatalf("Resolve() = %v, %v, want nil, nil", post, err)
	}
}
