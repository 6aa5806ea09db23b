package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/medialoom/socialpick/internal/domain"
	"github.com/medialoom/socialpick/internal/hooks"
	"github.com/medialoom/socialpick/internal/platform"
)

// Resolver dispatches a classified URL to its platform extractor.
type Resolver interface {
	Resolve(ctx context.Context, p platform.Platform, u *url.URL) (*domain.SocialPost, error)
}

// ResolveHandler answers the two query forms of the root endpoint:
// ?url= resolves a post, ?video-done= releases a served temp file.
type ResolveHandler struct {
	extractors Resolver
	hooks      *hooks.Registry
	logger     *slog.Logger
}

// NewResolveHandler creates the root endpoint handler.
func NewResolveHandler(extractors Resolver, registry *hooks.Registry, logger *slog.Logger) *ResolveHandler {
	return &ResolveHandler{extractors: extractors, hooks: registry, logger: logger}
}

// ErrorResponse is the JSON body of non-2xx answers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Root handles GET /.
func (h *ResolveHandler) Root(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if filename := query.Get("video-done"); filename != "" {
		h.videoDone(w, filename)
		return
	}

	if postURL := query.Get("url"); postURL != "" {
		h.resolve(w, r, postURL)
		return
	}

	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "url query parameter required"})
}

func (h *ResolveHandler) resolve(w http.ResponseWriter, r *http.Request, postURL string) {
	detected, u, ok := platform.Classify(postURL)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown platform"})
		return
	}

	post, err := h.extractors.Resolve(r.Context(), detected, u)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			h.logger.Warn("upstream rate limit", "platform", detected, "url", postURL)
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "upstream rate limit"})
			return
		}
		h.logger.Error("resolve failed", "platform", detected, "url", postURL, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "cannot resolve post"})
		return
	}
	if post == nil || len(post.Medias) == 0 {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no media found"})
		return
	}

	// Locally produced files live until the caller reports back or the
	// watchdog gives up on them.
	for i := range post.Medias {
		media := &post.Medias[i]
		if media.Local() {
			h.hooks.Track(media.Filename, media.FileCallback)
		}
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *ResolveHandler) videoDone(w http.ResponseWriter, filename string) {
	released := h.hooks.Release(filename)
	if !released {
		h.logger.Warn("release for untracked file", "filename", filename)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"released": released})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
