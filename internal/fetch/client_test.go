package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/medialoom/socialpick/internal/config"
	"github.com/medialoom/socialpick/internal/domain"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(config.ProxyConfig{}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestGetSendsHeaders(t *testing.T) {
	var gotReferer, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		gotCookie = r.Header.Get("Cookie")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(t)
	text, err := c.Text(context.Background(), srv.URL, Options{
		Referer: "https://www.pixiv.net/",
		Cookie:  "session=abc",
	})
	if err != nil {
		t.Fatalf("Text() error: %v", err)
	}
	if text != "ok" {
		t.Errorf("body = %q", text)
	}
	if gotReferer != "https://www.pixiv.net/" {
		t.Errorf("referer = %q", gotReferer)
	}
	if gotCookie != "session=abc" {
		t.Errorf("cookie = %q", gotCookie)
	}
}

func TestGetNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t)
	_, err := c.Get(context.Background(), srv.URL, Options{})

	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("want *domain.FetchError, got %v", err)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", fetchErr.Status)
	}
}

func TestRateLimitedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t)
	_, err := c.Get(context.Background(), srv.URL, Options{})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("want ErrRateLimited, got %v", err)
	}
}

func TestJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"hello"}`))
	}))
	defer srv.Close()

	c := newTestClient(t)
	var out struct {
		Title string `json:"title"`
	}
	if err := c.JSON(context.Background(), srv.URL, Options{}, &out); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	if out.Title != "hello" {
		t.Errorf("title = %q", out.Title)
	}
}

func TestDownloadToWritesFile(t *testing.T) {
	payload := []byte("binary video payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	c := newTestClient(t)
	path := filepath.Join(t.TempDir(), "out.mp4")
	if err := c.DownloadTo(context.Background(), srv.URL, path, Options{}); err != nil {
		t.Fatalf("DownloadTo() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(payload) {
		t.Errorf("file content mismatch")
	}
}

func TestDownloadToFailureLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(t)
	path := filepath.Join(t.TempDir(), "out.mp4")
	if err := c.DownloadTo(context.Background(), srv.URL, path, Options{}); err == nil {
		t.Fatal("expected error for 403")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("partial file should not exist")
	}
}
