package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/medialoom/socialpick/internal/config"
	"github.com/medialoom/socialpick/internal/domain"
)

var tweetStatusRx = regexp.MustCompile(`^(?:/[\w_]+)?/status(?:es)?/(\d+)`)

// Twitter resolves tweet URLs through the external scraper binary, which
// prints a ready SocialPost as JSON on stdout.
type Twitter struct {
	binaryPath  string
	cookiesPath string
	execTimeout time.Duration
	logger      *slog.Logger
}

// NewTwitter creates the Twitter extractor.
func NewTwitter(tools config.ToolsConfig, logger *slog.Logger) *Twitter {
	return &Twitter{
		binaryPath:  tools.TwitterScraperPath,
		cookiesPath: tools.TwitterCookiesPath,
		execTimeout: tools.ExecTimeout,
		logger:      logger,
	}
}

// Resolve extracts the status ID from the tweet path and delegates to the
// scraper binary.
func (t *Twitter) Resolve(ctx context.Context, u *url.URL) (*domain.SocialPost, error) {
	m := tweetStatusRx.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, nil
	}
	statusID := m[1]

	if t.binaryPath == "" {
		return nil, fmt.Errorf("twitter scraper binary not configured")
	}
	if stat, err := os.Stat(t.binaryPath); err != nil || stat.IsDir() {
		return nil, fmt.Errorf("twitter scraper binary unavailable at %s", t.binaryPath)
	}

	if t.execTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.execTimeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, t.binaryPath, "getTweet", t.cookiesPath, statusID)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		return nil, fmt.Errorf("twitter scraper (status %s): %w: %s", statusID, err, msg)
	}
	if stderr.Len() > 0 {
		return nil, fmt.Errorf("twitter scraper (status %s) wrote to stderr: %s", statusID, strings.TrimSpace(stderr.String()))
	}

	var post domain.SocialPost
	if err := json.Unmarshal(stdout.Bytes(), &post); err != nil {
		return nil, fmt.Errorf("decode twitter scraper output (status %s): %w", statusID, err)
	}

	if len(post.Medias) == 0 || post.Author == "" || post.AuthorURL == "" {
		return nil, nil
	}

	post.Caption = cleanCaption(post.Caption)

	return &post, nil
}
