package dev

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/chen-dev/chen/internal/errors"
	"github.com/chen-dev/chen/pkg/virtual"
)

// EventKind classifies a filesystem notification.
type EventKind int

const (
	EventCreate EventKind = iota
	EventWrite
	EventRemove
	EventRename
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Notification is one filesystem change under the pages root.
type Notification struct {
	Path string
	Kind EventKind
}

// ModuleInvalidator marks a served module stale.
type ModuleInvalidator interface {
	InvalidateModule(id string) bool
}

// Reloader requests a full reload of connected clients.
type Reloader interface {
	NotifyReload()
}

// WatcherConfig configures the invalidation watcher.
type WatcherConfig struct {
	// Root is the pages directory.
	Root string

	// Ignore patterns to skip. Plain names match any path segment; globs
	// use doublestar syntax against the base name or, when they contain
	// a "/", against the path relative to Root.
	Ignore []string

	// ModuleID is the module invalidated on change.
	// Default: virtual.ResolvedID.
	ModuleID string

	// Logger receives watcher diagnostics. Nil disables logging.
	Logger *zap.Logger

	// Metrics counts invalidations. May be nil.
	Metrics *Metrics
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	".DS_Store",
	"*.swp",
	"*.swo",
	"*.tmp",
	"*~",
}

// Watcher keeps the route module in sync with the pages directory. Every
// relevant notification marks the module stale and requests exactly one
// full reload.
type Watcher struct {
	config   WatcherConfig
	graph    ModuleInvalidator
	reloader Reloader
	logger   *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	watched map[string]struct{}
}

// NewWatcher creates a watcher. Start must be called to begin watching.
func NewWatcher(config WatcherConfig, graph ModuleInvalidator, reloader Reloader) *Watcher {
	if config.Ignore == nil {
		config.Ignore = DefaultIgnore
	}
	if config.ModuleID == "" {
		config.ModuleID = virtual.ResolvedID
	}
	if abs, err := filepath.Abs(config.Root); err == nil {
		config.Root = abs
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		config:   config,
		graph:    graph,
		reloader: reloader,
		logger:   logger.Named("watcher"),
		watched:  make(map[string]struct{}),
	}
}

// Root returns the watched pages directory.
func (w *Watcher) Root() string {
	return w.config.Root
}

// Start subscribes to filesystem notifications and processes them on a
// background goroutine until Stop is called.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("E131").Wrap(err)
	}
	w.fsw = fsw
	w.watched = make(map[string]struct{})

	// The parent is watched so a root created later is noticed.
	parent := filepath.Dir(w.config.Root)
	if err := w.add(parent); err != nil {
		w.logger.Debug("parent of pages root not watched", zap.String("dir", parent), zap.Error(err))
	}
	if err := w.addTree(w.config.Root); err != nil {
		fsw.Close()
		w.fsw = nil
		return errors.New("E131").WithFile(w.config.Root).Wrap(err)
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.loop(fsw, w.stopCh, w.doneCh)

	w.logger.Debug("watching pages", zap.String("root", w.config.Root), zap.Int("dirs", len(w.watched)))
	return nil
}

// Stop stops watching and waits for the event goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	fsw := w.fsw
	w.mu.Unlock()

	<-done
	fsw.Close()
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Notify handles one notification: the module is marked stale and exactly
// one full reload is requested.
func (w *Watcher) Notify(n Notification) {
	served := w.graph.InvalidateModule(w.config.ModuleID)
	w.config.Metrics.incInvalidations()
	w.logger.Debug("pages changed",
		zap.String("path", n.Path),
		zap.Stringer("kind", n.Kind),
		zap.Bool("served", served),
	)
	w.reloader.NotifyReload()
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if n, ok := w.translate(event); ok {
				w.Notify(n)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if isFatalFsnotifyError(err) {
				w.logger.Error("watcher stopped", zap.Error(err))
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// translate maps an fsnotify event to a notification, extending the watch
// set when directories appear.
func (w *Watcher) translate(event fsnotify.Event) (Notification, bool) {
	rel, ok := w.relative(event.Name)
	if !ok || w.shouldIgnore(rel) {
		return Notification{}, false
	}

	var kind EventKind
	switch {
	case event.Has(fsnotify.Create):
		kind = EventCreate
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			w.mu.Lock()
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("cannot watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			w.mu.Unlock()
		}
	case event.Has(fsnotify.Remove):
		kind = EventRemove
		w.forget(event.Name)
	case event.Has(fsnotify.Rename):
		kind = EventRename
		w.forget(event.Name)
	case event.Has(fsnotify.Write):
		if rel == "." {
			return Notification{}, false
		}
		kind = EventWrite
	default:
		return Notification{}, false
	}

	return Notification{Path: event.Name, Kind: kind}, true
}

// relative returns name relative to the root using "/" separators. It
// reports false for paths outside the root.
func (w *Watcher) relative(name string) (string, bool) {
	rel, err := filepath.Rel(w.config.Root, name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// addTree must be called with mu held.
func (w *Watcher) addTree(root string) error {
	info, err := os.Lstat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("skipping unreadable path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(p); ok && rel != "." && w.shouldIgnore(rel) {
			return filepath.SkipDir
		}
		return w.add(p)
	})
}

// add must be called with mu held.
func (w *Watcher) add(dir string) error {
	if _, ok := w.watched[dir]; ok {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watched[dir] = struct{}{}
	return nil
}

func (w *Watcher) forget(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prefix := name + string(filepath.Separator)
	for dir := range w.watched {
		if dir == name || strings.HasPrefix(dir, prefix) {
			delete(w.watched, dir)
		}
	}
}

// WatchedDirs returns the number of directories being watched.
func (w *Watcher) WatchedDirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// shouldIgnore checks a root-relative, slash-separated path.
func (w *Watcher) shouldIgnore(rel string) bool {
	name := path.Base(rel)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/")
		hasGlob := strings.ContainsAny(pattern, "*?[{")

		if hasGlob {
			target := name
			if hasPathSep {
				target = rel
			}
			if matched, _ := doublestar.Match(pattern, target); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(rel, pattern) {
				return true
			}
			continue
		}

		if pathHasSegment(rel, pattern) {
			return true
		}
	}

	return false
}

func pathHasSegment(p, segment string) bool {
	if segment == "" {
		return false
	}
	for _, part := range splitPathSegments(p) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(p, pattern string) bool {
	pathParts := splitPathSegments(p)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}

	return false
}

func splitPathSegments(p string) []string {
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
