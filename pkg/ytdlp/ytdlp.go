// Package ytdlp shells out to the yt-dlp binary to resolve page URLs into
// media format metadata. Only --dump-json mode is used; the tool never
// downloads anything itself.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Format is one downloadable rendition reported by yt-dlp.
type Format struct {
	FormatID       string  `json:"format_id"`
	FormatNote     string  `json:"format_note"`
	URL            string  `json:"url"`
	Ext            string  `json:"ext"`
	Vcodec         string  `json:"vcodec"`
	Acodec         string  `json:"acodec"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	TBR            float64 `json:"tbr"`
}

// Size returns the best known byte size of the format, exact over estimate.
func (f Format) Size() int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}
	return f.FilesizeApprox
}

// HasVideo reports whether the format carries a video stream.
func (f Format) HasVideo() bool {
	return f.Vcodec != "" && f.Vcodec != "none"
}

// HasAudio reports whether the format carries an audio stream.
func (f Format) HasAudio() bool {
	return f.Acodec != "" && f.Acodec != "none"
}

// CodecName strips the profile suffix from a codec tag (avc1.64001F → avc1).
func CodecName(codec string) string {
	if i := strings.IndexByte(codec, '.'); i >= 0 {
		return codec[:i]
	}
	return codec
}

// Output is the subset of yt-dlp's --dump-json payload the extractors use.
type Output struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Uploader    string   `json:"uploader"`
	UploaderURL string   `json:"uploader_url"`
	WebpageURL  string   `json:"webpage_url"`
	Formats     []Format `json:"formats"`
}

// VideoOnly returns formats with a video stream and no audio.
func (o *Output) VideoOnly() []Format {
	var out []Format
	for _, f := range o.Formats {
		if f.HasVideo() && !f.HasAudio() {
			out = append(out, f)
		}
	}
	return out
}

// AudioOnly returns formats with an audio stream and no video.
func (o *Output) AudioOnly() []Format {
	var out []Format
	for _, f := range o.Formats {
		if f.HasAudio() && !f.HasVideo() {
			out = append(out, f)
		}
	}
	return out
}

// Muxed returns formats carrying both streams.
func (o *Output) Muxed() []Format {
	var out []Format
	for _, f := range o.Formats {
		if f.HasVideo() && f.HasAudio() {
			out = append(out, f)
		}
	}
	return out
}

// UniqueBySize drops formats whose byte size duplicates an earlier one.
// yt-dlp reports the same TikTok rendition under several format ids.
func UniqueBySize(formats []Format) []Format {
	seen := make(map[int64]bool, len(formats))
	var out []Format
	for _, f := range formats {
		size := f.Size()
		if seen[size] {
			continue
		}
		seen[size] = true
		out = append(out, f)
	}
	return out
}

// Client invokes the yt-dlp binary.
type Client struct {
	binary  string
	proxy   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a yt-dlp client. proxyAddr, when non-empty, is passed as
// a socks5 --proxy to every invocation. A positive timeout caps each run.
func NewClient(binary, proxyAddr string, timeout time.Duration, logger *slog.Logger) *Client {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Client{binary: binary, proxy: proxyAddr, timeout: timeout, logger: logger}
}

// Dump runs `yt-dlp <url> --dump-json` plus extraArgs and decodes the
// resulting metadata. Arguments go through an argv vector, never a shell.
func (c *Client) Dump(ctx context.Context, url string, extraArgs ...string) (*Output, error) {
	args := []string{url, "--dump-json"}
	if c.proxy != "" {
		args = append(args, "--proxy", "socks5://"+c.proxy)
	}
	args = append(args, extraArgs...)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[:512] + "..."
		}
		return nil, fmt.Errorf("%s %s: %w: %s", c.binary, url, err, msg)
	}

	var out Output
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("decode %s output for %s: %w", c.binary, url, err)
	}

	return &out, nil
}
