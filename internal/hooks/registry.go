// Package hooks tracks deferred release of locally produced media files.
// A file handed to the HTTP layer stays on disk until the caller signals it
// was picked up, or until a watchdog expires it; either way the release
// callback fires exactly once.
package hooks

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	id    string
	timer *time.Timer
	fire  func()
}

// Registry correlates filenames of delivered files with their release
// callbacks. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	logger  *slog.Logger
}

// NewRegistry creates a Registry whose watchdog fires after ttl.
func NewRegistry(ttl time.Duration, logger *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Registry{
		entries: make(map[string]*entry),
		ttl:     ttl,
		logger:  logger,
	}
}

// Track registers a release callback for filename and arms the watchdog.
// Tracking the same filename again replaces the previous hook after firing
// it, so a stale entry can never shadow a fresh file.
func (r *Registry) Track(filename string, release func()) {
	if filename == "" || release == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[filename]; ok {
		old.timer.Stop()
		old.fire()
	}

	e := &entry{id: uuid.NewString(), fire: release}
	e.timer = time.AfterFunc(r.ttl, func() {
		r.expire(filename, e.id)
	})
	r.entries[filename] = e
}

// Release fires the hook for filename early. Returns false when the
// filename is unknown (already released, expired, or never tracked).
func (r *Registry) Release(filename string) bool {
	r.mu.Lock()
	e, ok := r.entries[filename]
	if ok {
		delete(r.entries, filename)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	e.timer.Stop()
	e.fire()
	return true
}

// expire is the watchdog path: last-resort leak prevention when the caller
// never signals pickup.
func (r *Registry) expire(filename, id string) {
	r.mu.Lock()
	e, ok := r.entries[filename]
	if ok && e.id == id {
		delete(r.entries, filename)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	r.logger.Warn("media file expired without pickup", "filename", filename)
	e.fire()
}

// Len reports the number of tracked files.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close releases every tracked file immediately.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.timer.Stop()
		e.fire()
	}
}
