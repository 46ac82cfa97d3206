// SPDX-License-Identifier: MPL-2.0

// Package watch reruns a callback when source files change.
//
// Events are collected until the tree has been quiet for the debounce
// period, then the callback receives every changed path at once. Only one
// callback runs at a time; changes arriving while it runs are held for the
// next round.
package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

// defaultIgnores are never watched: VCS data, package manager caches,
// generated output and editor droppings.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/.yarn/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config describes what to watch and what to run.
	Config struct {
		// BaseDir is the watched tree. Empty means the working directory.
		BaseDir string
		// Patterns select the files, relative to BaseDir, whose changes
		// count. No patterns means every file counts.
		Patterns []string
		// Ignore patterns are added to the built-in ignores.
		Ignore   []string
		Debounce time.Duration
		// OnChange receives the changed paths relative to BaseDir, sorted.
		// Its error is logged and watching continues.
		OnChange func(ctx context.Context, changed []string) error
		Logger   *log.Logger
	}

	// Watcher is a single-use recursive file watcher.
	Watcher struct {
		cfg     Config
		base    string
		ignores []string
		fsw     *fsnotify.Watcher
		logger  *log.Logger
		started atomic.Bool
	}
)

// New validates the patterns and registers every directory below BaseDir
// that is not ignored.
func New(cfg Config) (*Watcher, error) {
	base := cfg.BaseDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", cfg.BaseDir, err)
	}

	for _, pat := range slices.Concat(cfg.Patterns, cfg.Ignore) {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid pattern %q", pat)
		}
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "watch"})
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{
		cfg:     cfg,
		base:    base,
		ignores: slices.Concat(defaultIgnores, cfg.Ignore),
		fsw:     fsw,
		logger:  logger,
	}
	if err := w.addTree(base); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is canceled, then waits for a running
// callback to return. It fails on watcher errors that cannot be recovered
// from, such as an exhausted inotify watch limit.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called twice")
	}
	defer w.fsw.Close() //nolint:errcheck // nothing to report on shutdown

	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		fire    <-chan time.Time
		busy    bool
		done    = make(chan struct{})
	)
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.cfg.Debounce)
		} else {
			timer.Reset(w.cfg.Debounce)
		}
		fire = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if busy {
				<-done
			}
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, ok := w.relevant(evt)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			arm()

		case <-fire:
			fire = nil
			if busy || len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			busy = true
			go func() {
				defer func() { done <- struct{}{} }()
				w.call(ctx, changed)
			}()

		case <-done:
			busy = false
			if len(pending) > 0 {
				arm()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalFsnotifyError(err) {
				if busy {
					<-done
				}
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

// relevant reports whether evt should schedule a callback and returns its
// path relative to the base directory. New directories are added to the
// watch as a side effect.
func (w *Watcher) relevant(evt fsnotify.Event) (string, bool) {
	rel, err := filepath.Rel(w.base, evt.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if w.ignored(rel) {
		return "", false
	}

	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addTree(evt.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "path", rel, "err", err)
			}
		}
	}

	if evt.Op == fsnotify.Chmod || !w.matches(rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) call(ctx context.Context, changed []string) {
	if w.cfg.OnChange == nil || ctx.Err() != nil {
		return
	}
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		w.logger.Error("change handler failed", "err", err)
	}
}

// addTree registers root and every directory below it. Unreadable
// directories below root are skipped with a warning.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.base, path)
		if relErr == nil && rel != "." && w.ignored(filepath.ToSlash(rel)+"/") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
	return err
}

func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matches(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
