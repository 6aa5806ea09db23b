package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/platform"
	"github.com/medialoom/socialpick/pkg/viewer"
)

func pixivPageFixture(t *testing.T, illustID string, illust map[string]any) string {
	t.Helper()
	preload := mustJSON(t, map[string]any{"illust": map[string]any{illustID: illust}})
	return `<html><head><meta name="preload-data" id="meta-preload-data" content='` + preload + `'></head><body></body></html>`
}

func TestPixivMultiPageArtwork(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://www.pixiv.net/en/artworks/111"] = pixivPageFixture(t, "111", map[string]any{
		"illustTitle": "artwork",
		"userName":    "artist",
		"userId":      "9",
		"pageCount":   3,
		"urls": map[string]any{
			"original": "https://i.pximg.net/img-original/img/2024/01/02/111_p0.png",
			"regular":  "https://i.pximg.net/img-master/img/2024/01/02/111_p0_master1200.jpg",
		},
	})

	pixiv := NewPixiv(fetcher, &fakeRemuxer{}, viewer.New(""), testLogger())
	post, err := pixiv.Resolve(context.Background(), platform.SafeParseURL("https://www.pixiv.net/en/artworks/111"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if post.Caption != "artwork" || post.AuthorURL != "https://www.pixiv.net/users/9" {
		t.Errorf("post = %+v", post)
	}
	if len(post.Medias) != 3 {
		t.Fatalf("got %d medias, want 3 pages", len(post.Medias))
	}
	// Preview link serves the master1200 rendition, Original the full image.
	if got := post.Medias[2].ExternalURL; !strings.HasSuffix(got, "/111_p2_master1200.jpg") {
		t.Errorf("media[2].ExternalURL = %q, want the _p2 master preview", got)
	}
	if got := post.Medias[2].Original; !strings.Contains(got, "img-original") || !strings.Contains(got, "_p2.png") {
		t.Errorf("media[2].Original = %q, want the _p2 original", got)
	}
	if post.Medias[0].Filetype != "png" {
		t.Errorf("filetype = %q, want the original's png", post.Medias[0].Filetype)
	}
}

func TestPixivMasterDerivedWithoutRegular(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://www.pixiv.net/en/artworks/111"] = pixivPageFixture(t, "111", map[string]any{
		"pageCount": 1,
		"urls":      map[string]any{"original": "https://i.pximg.net/img-original/img/2024/01/02/111_p0.png"},
	})

	pixiv := NewPixiv(fetcher, &fakeRemuxer{}, viewer.New(""), testLogger())
	post, err := pixiv.Resolve(context.Background(), platform.SafeParseURL("https://www.pixiv.net/en/artworks/111"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "https://i.pximg.net/img-master/img/2024/01/02/111_p0_master1200.png"
	if len(post.Medias) != 1 || post.Medias[0].ExternalURL != want {
		t.Fatalf("medias = %+v, want derived master preview %q", post.Medias, want)
	}
}

func TestPixivSinglePageIndex(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://www.pixiv.net/en/artworks/111"] = pixivPageFixture(t, "111", map[string]any{
		"pageCount": 3,
		"urls":      map[string]any{"original": "https://i.pximg.net/img-original/img/2024/01/02/111_p0.png"},
	})

	pixiv := NewPixiv(fetcher, &fakeRemuxer{}, viewer.New(""), testLogger())
	direct := NewPixivDirect(pixiv, testLogger())

	post, err := direct.Resolve(context.Background(), platform.SafeParseURL("https://i.pximg.net/img-original/img/2024/01/02/111_p1.png"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(post.Medias) != 1 || !strings.Contains(post.Medias[0].Original, "_p1.") {
		t.Fatalf("medias = %+v, want only the _p1 page", post.Medias)
	}
}

func TestPixivUgoira(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://www.pixiv.net/en/artworks/222"] = pixivPageFixture(t, "222", map[string]any{
		"illustTitle": "anim",
		"pageCount":   1,
		"urls":        map[string]any{"original": "https://i.pximg.net/img-original/img/2024/01/02/222_ugoira0.jpg"},
	})
	fetcher.bodies["https://www.pixiv.net/ajax/illust/222/ugoira_meta"] = mustJSON(t, map[string]any{
		"body": map[string]any{
			"originalSrc": "https://i.pximg.net/img-zip-ugoira/222_ugoira1920x1080.zip",
			"frames":      []map[string]any{{"file": "000000.jpg", "delay": 50}},
		},
	})
	fetcher.bodies["https://i.pximg.net/img-zip-ugoira/222_ugoira1920x1080.zip"] = "zipbytes"

	remuxer := &fakeRemuxer{ugoiraMedia: &domain.Media{Type: domain.MediaGif, Filename: "anim.mp4"}}
	pixiv := NewPixiv(fetcher, remuxer, viewer.New(""), testLogger())

	post, err := pixiv.Resolve(context.Background(), platform.SafeParseURL("https://www.pixiv.net/en/artworks/222"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(post.Medias) != 1 || post.Medias[0].Filename != "anim.mp4" {
		t.Fatalf("medias = %+v, want the assembled ugoira", post.Medias)
	}
}

func TestPixivUgoiraTaggedFailureFallsBackToStill(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://www.pixiv.net/en/artworks/222"] = pixivPageFixture(t, "222", map[string]any{
		"pageCount": 1,
		"urls":      map[string]any{"original": "https://i.pximg.net/img-original/img/2024/01/02/222_p0.jpg"},
		"tags":      map[string]any{"tags": []map[string]any{{"romaji": "Ugoira"}}},
	})
	// No ugoira_meta body registered: the meta fetch fails.

	pixiv := NewPixiv(fetcher, &fakeRemuxer{}, viewer.New(""), testLogger())
	post, err := pixiv.Resolve(context.Background(), platform.SafeParseURL("https://www.pixiv.net/en/artworks/222"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(post.Medias) != 1 || post.Medias[0].Type != domain.MediaPhoto {
		t.Fatalf("medias = %+v, want the still frame", post.Medias)
	}
}

func TestPixivIllustIDQueryParam(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["https://www.pixiv.net/en/artworks/111"] = pixivPageFixture(t, "111", map[string]any{
		"pageCount": 1,
		"urls":      map[string]any{"original": "https://i.pximg.net/img-original/img/2024/01/02/111_p0.png"},
	})

	pixiv := NewPixiv(fetcher, &fakeRemuxer{}, viewer.New(""), testLogger())
	post, err := pixiv.Resolve(context.Background(), platform.SafeParseURL("https://www.pixiv.net/member_illust.php?mode=medium&illust_id=111"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if post == nil || len(post.Medias) != 1 {
		t.Fatalf("post = %+v, want the artwork via illust_id", post)
	}
}

func TestParsePixivPreloadRawFallback(t *testing.T) {
	page := `<html><body><script>{"pageCount":2,"urls":{"original":"https:\/\/i.pximg.net\/img-original\/img\/111_p0.png"}}</script></body></html>`

	illust, ok := parsePixivPreload(page, "111")
	if !ok {
		t.Fatal("parsePixivPreload() ok = false")
	}
	if illust.URLs.Original != "https://i.pximg.net/img-original/img/111_p0.png" {
		t.Errorf("Original = %q", illust.URLs.Original)
	}
}

func TestPixivDirectNonImagePath(t *testing.T) {
	pixiv := NewPixiv(newFakeFetcher(), &fakeRemuxer{}, viewer.New(""), testLogger())
	direct := NewPixivDirect(pixiv, testLogger())

	post, err := direct.Resolve(context.Background(), platform.SafeParseURL("https://i.pximg.net/about"))
	if post != nil || err != nil {
		t.Fatalf("Resolve() = %v, %v, want nil, nil", post, err)
	}
}
