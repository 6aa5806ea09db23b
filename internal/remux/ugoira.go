package remux

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/medialoom/socialpick/internal/domain"
)

// UgoiraFrame is one frame of a Pixiv ugoira animation: an image file inside
// the source zip plus its display duration.
type UgoiraFrame struct {
	File  string `json:"file"`
	Delay int    `json:"delay"`
}

// UgoiraMeta is the frame-timing metadata of an ugoira post.
type UgoiraMeta struct {
	OriginalSrc string        `json:"originalSrc"`
	Frames      []UgoiraFrame `json:"frames"`
}

const ugoiraDefaultDelayMs = 100

var unsafeNameRx = regexp.MustCompile(`[^\w.]`)

// BuildUgoira unpacks the frame zip, writes a concat-demuxer script with one
// entry per frame and renders a single video through the encoder. Every
// per-frame temp file and the script are removed regardless of outcome; the
// output file is owned by the returned media's FileCallback. Any failure
// yields nil, which callers treat as one fewer media item.
func (r *Remuxer) BuildUgoira(ctx context.Context, meta UgoiraMeta, zipData []byte) *domain.Media {
	media, err := r.buildUgoira(ctx, meta, zipData)
	if err != nil {
		r.logger.Error("ugoira assembly failed", "source", meta.OriginalSrc, "error", err)
		return nil
	}
	return media
}

func (r *Remuxer) buildUgoira(ctx context.Context, meta UgoiraMeta, zipData []byte) (*domain.Media, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, fmt.Errorf("open frame zip: %w", err)
	}

	delays := make(map[string]int, len(meta.Frames))
	for _, frame := range meta.Frames {
		delays[frame.File] = frame.Delay
	}

	base := r.tempBase(meta.OriginalSrc)
	outPath := filepath.Join(r.tempDir, base+"_output.mp4")

	var framePaths []string
	cleanupFrames := func() {
		for _, p := range framePaths {
			os.Remove(p)
		}
	}

	var script strings.Builder
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		framePath := filepath.Join(r.tempDir, base+"_"+unsafeNameRx.ReplaceAllString(entry.Name, ""))
		if err := extractZipEntry(entry, framePath); err != nil {
			cleanupFrames()
			return nil, fmt.Errorf("unzip frame %s: %w", entry.Name, err)
		}
		framePaths = append(framePaths, framePath)

		delay := delays[entry.Name]
		if delay <= 0 {
			delay = ugoiraDefaultDelayMs
		}
		fmt.Fprintf(&script, "file '%s'\nduration %.3f\n", framePath, float64(delay)/1000)
	}

	if len(framePaths) == 0 {
		return nil, fmt.Errorf("frame zip of %s holds no files", meta.OriginalSrc)
	}

	scriptPath := filepath.Join(r.tempDir, base+"_list.txt")
	if err := os.WriteFile(scriptPath, []byte(script.String()), 0644); err != nil {
		cleanupFrames()
		return nil, fmt.Errorf("write concat script: %w", err)
	}

	defer func() {
		os.Remove(scriptPath)
		cleanupFrames()
	}()

	// Even dimensions and yuv420p keep the output playable everywhere.
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0",
		"-i", scriptPath,
		"-movflags", "faststart",
		"-pix_fmt", "yuv420p",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		outPath,
	}
	if err := r.run(ctx, args...); err != nil {
		os.Remove(outPath)
		return nil, fmt.Errorf("render ugoira: %w", err)
	}

	return &domain.Media{
		Type:         domain.MediaGif,
		ExternalURL:  meta.OriginalSrc,
		Original:     meta.OriginalSrc,
		OtherSources: map[string]string{"zip": meta.OriginalSrc},
		Filetype:     "mp4",
		Filename:     outPath,
		FileCallback: removeOnce(outPath),
	}, nil
}

func extractZipEntry(entry *zip.File, path string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}

	return dst.Close()
}
