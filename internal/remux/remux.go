// Package remux merges separately-hosted video and audio streams into a
// single deliverable file, converts codecs the delivery target cannot play,
// and assembles ugoira frame archives into videos. Every operation here
// fails soft: on any error the caller gets the original external URL (or no
// media at all) instead of an error, and no temp file outlives the call.
package remux

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/medialoom/socialpick/internal/config"
	"github.com/medialoom/socialpick/internal/fetch"
)

// Downloader streams a remote source into a local file.
type Downloader interface {
	DownloadTo(ctx context.Context, url, path string, opts fetch.Options) error
}

// Runner executes an external tool. Arguments are passed as a vector, never
// through a shell, so special characters in source URLs cannot inject.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%s: %w: %s", name, err, truncate(stderr.String(), 512))
		}
		return fmt.Errorf("%s: %w", name, err)
	}

	// The encoder runs with -loglevel error; anything on stderr is a real
	// problem even on a zero exit code.
	if stderr.Len() > 0 {
		return fmt.Errorf("%s wrote to stderr: %s", name, truncate(stderr.String(), 512))
	}

	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Result is the outcome of a Merge or Convert call. Exactly one of
// ExternalURL or Filename is set: ExternalURL means no work was needed or
// the operation degraded to the original source; Filename points at a local
// file owned by FileCallback.
type Result struct {
	ExternalURL  string
	Filename     string
	Filesize     int64
	VideoSource  string
	AudioSource  string
	FileCallback func()
}

// Local reports whether the result is a locally produced file.
func (r Result) Local() bool {
	return r.Filename != "" && r.FileCallback != nil
}

// Empty reports a degenerate result carrying neither a URL nor a file.
func (r Result) Empty() bool {
	return r.ExternalURL == "" && r.Filename == ""
}

// MergeOptions tune looping behavior for gif-like sources where one stream
// is much shorter than the other.
type MergeOptions struct {
	LoopVideo bool
	LoopAudio bool
}

// Remuxer owns the encoder binary and the temp-file namespace.
type Remuxer struct {
	ffmpeg      string
	tempDir     string
	dl          Downloader
	runner      Runner
	execTimeout time.Duration
	logger      *slog.Logger
}

// New creates a Remuxer. The ffmpeg path is resolved through PATH when not
// absolute so a missing binary surfaces at startup, not mid-request.
func New(tools config.ToolsConfig, storage config.StorageConfig, dl Downloader, logger *slog.Logger) (*Remuxer, error) {
	ffmpegPath, err := exec.LookPath(tools.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	return &Remuxer{
		ffmpeg:      ffmpegPath,
		tempDir:     storage.TempPath,
		dl:          dl,
		runner:      execRunner{},
		execTimeout: tools.ExecTimeout,
		logger:      logger,
	}, nil
}

// run invokes the encoder with the configured per-invocation timeout.
func (r *Remuxer) run(ctx context.Context, args ...string) error {
	if r.execTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.execTimeout)
		defer cancel()
	}
	return r.runner.Run(ctx, r.ffmpeg, args...)
}

// tempBase derives a collision-resistant per-operation name from the source
// URL and the current time. The temp directory is shared across concurrent
// requests; uniqueness comes from this name, not from locking.
func (r *Remuxer) tempBase(source string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%d", source, time.Now().UnixNano())))
	return "socialpick_" + hex.EncodeToString(sum[:])
}

var extensionRx = regexp.MustCompile(`\.(\w+)$`)

// sourceExtension guesses the container extension from a URL path,
// defaulting to mp4.
func sourceExtension(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	if m := extensionRx.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return "mp4"
}

// removeOnce builds an idempotent deleter for the given paths.
func removeOnce(paths ...string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			for _, p := range paths {
				os.Remove(p)
			}
		})
	}
}

// Merge downloads the video and audio sources, copies the video stream and
// transcodes audio to AAC into one container. It never returns a hard
// failure: a degraded but playable external link beats a broken post, so
// any error cleans up and falls back to the bare video URL.
func (r *Remuxer) Merge(ctx context.Context, videoURL, audioURL string, opts MergeOptions) Result {
	if videoURL == "" {
		return Result{}
	}
	if audioURL == "" {
		// Nothing to merge.
		return Result{ExternalURL: videoURL}
	}

	base := r.tempBase(videoURL)
	videoPath := filepath.Join(r.tempDir, base+"_video")
	audioPath := filepath.Join(r.tempDir, base+"_audio")
	outPath := filepath.Join(r.tempDir, base+"_out."+sourceExtension(videoURL))

	cleanupInputs := removeOnce(videoPath, audioPath)

	fail := func(stage string, err error) Result {
		r.logger.Error("video+audio merge degraded to source",
			"stage", stage,
			"video", videoURL,
			"audio", audioURL,
			"error", err,
		)
		cleanupInputs()
		os.Remove(outPath)
		return Result{ExternalURL: videoURL}
	}

	if err := r.dl.DownloadTo(ctx, videoURL, videoPath, fetch.Options{}); err != nil {
		return fail("download video", err)
	}
	if err := r.dl.DownloadTo(ctx, audioURL, audioPath, fetch.Options{}); err != nil {
		return fail("download audio", err)
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	if opts.LoopVideo {
		args = append(args, "-stream_loop", "-1")
	}
	args = append(args, "-i", videoPath)
	if opts.LoopAudio && !opts.LoopVideo {
		args = append(args, "-stream_loop", "-1")
	}
	args = append(args, "-i", audioPath)
	if opts.LoopVideo || opts.LoopAudio {
		// Cap looped output so a gif-like source cannot balloon.
		args = append(args, "-shortest", "-fs", "20M")
	}
	args = append(args, "-c:v", "copy", "-c:a", "aac", "-qscale", "0", outPath)

	if err := r.run(ctx, args...); err != nil {
		return fail("encode", err)
	}

	cleanupInputs()

	return Result{
		Filename:     outPath,
		FileCallback: removeOnce(outPath),
		VideoSource:  videoURL,
		AudioSource:  audioURL,
	}
}

// Convert re-encodes a single video source into the target container and
// codecs. Same fail-soft contract as Merge.
func (r *Remuxer) Convert(ctx context.Context, videoURL, targetExt, videoCodec, audioCodec string) Result {
	if videoURL == "" {
		return Result{}
	}
	if targetExt == "" {
		targetExt = "mp4"
	}
	if videoCodec == "" {
		videoCodec = "h264"
	}
	if audioCodec == "" {
		audioCodec = "copy"
	}

	base := r.tempBase(videoURL)
	inPath := filepath.Join(r.tempDir, base+"_in")
	outPath := filepath.Join(r.tempDir, base+"_out."+targetExt)

	cleanupInput := removeOnce(inPath)

	fail := func(stage string, err error) Result {
		r.logger.Error("codec conversion degraded to source",
			"stage", stage,
			"video", videoURL,
			"error", err,
		)
		cleanupInput()
		os.Remove(outPath)
		return Result{ExternalURL: videoURL}
	}

	if err := r.dl.DownloadTo(ctx, videoURL, inPath, fetch.Options{}); err != nil {
		return fail("download", err)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", inPath,
		"-c:v", videoCodec,
		"-c:a", audioCodec,
		outPath,
	}
	if err := r.run(ctx, args...); err != nil {
		return fail("encode", err)
	}

	cleanupInput()

	result := Result{
		Filename:     outPath,
		FileCallback: removeOnce(outPath),
		VideoSource:  videoURL,
	}
	if stat, err := os.Stat(outPath); err == nil {
		result.Filesize = stat.Size()
	}

	return result
}
