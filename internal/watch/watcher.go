// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs resolution when unit sources change.
//
// A Watcher monitors the load path directories recursively, plus individual
// files such as project files and templates, and invokes a callback once the
// filesystem has been quiet for a debounce period. Events inside the window are
// coalesced so the callback sees the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// defaultIgnores are never reported: editor swap and backup files.
var defaultIgnores = []string{
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.#*",
}

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid watch config")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are directories watched recursively for unit files.
		Roots []string
		// Suffix selects unit files under Roots. Empty matches every file.
		Suffix string
		// Files are extra files whose changes trigger the callback.
		Files []string
		// Ignore are doublestar patterns, relative to a root, that never trigger.
		Ignore []string
		// IgnoreFiles are files that never trigger, such as the manifest itself.
		IgnoreFiles []string
		// Debounce is the quiet period before the callback fires.
		Debounce time.Duration
		// OnChange receives the sorted absolute paths that changed.
		OnChange func(ctx context.Context, changed []string) error
		// Logger receives watcher diagnostics.
		Logger *log.Logger
	}

	// Watcher monitors unit sources. Run must be called exactly once.
	Watcher struct {
		cfg         Config
		fsw         *fsnotify.Watcher
		roots       []string
		files       map[string]bool
		ignoreFiles map[string]bool
		ignores     []string
		debounce    time.Duration
		logger      *log.Logger
		started     atomic.Bool
	}
)

// Validate reports configuration errors.
func (c Config) Validate() error {
	var errs []error
	if len(c.Roots) == 0 && len(c.Files) == 0 {
		errs = append(errs, errors.New("nothing to watch"))
	}
	for _, pat := range c.Ignore {
		if !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Errorf("invalid ignore pattern %q", pat))
		}
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("negative debounce %s", c.Debounce))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// New validates cfg and registers every watched directory.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:         cfg,
		fsw:         fsw,
		files:       absSet(cfg.Files),
		ignoreFiles: absSet(cfg.IgnoreFiles),
		ignores:     append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce:    cfg.Debounce,
		logger:      cfg.Logger,
	}
	if w.debounce == 0 {
		w.debounce = defaultDebounce
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch: resolve %s: %w", root, err)
		}
		w.roots = append(w.roots, abs)
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			w.logger.Warn("close watcher after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is canceled. It returns nil on cancellation and
// an error when the watcher breaks. The callback never runs concurrently with
// itself; a fire while it is busy is postponed by one debounce period.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("resolution still running, postponing")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		w.logger.Info("change detected", "files", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("re-run failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !w.relevant(evt.Name) {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// relevant reports whether a change to path should trigger a re-run.
func (w *Watcher) relevant(path string) bool {
	path = filepath.Clean(path)
	if w.ignoreFiles[path] {
		return false
	}
	if w.files[path] {
		return true
	}
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		rel = filepath.ToSlash(rel)
		if hidden(rel) || w.isIgnored(rel) {
			return false
		}
		return w.cfg.Suffix == "" || strings.HasSuffix(rel, w.cfg.Suffix)
	}
	return false
}

// addDirectories registers every non-hidden directory under the roots and the
// parent directory of each extra file.
func (w *Watcher) addDirectories() error {
	for _, root := range w.roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == root {
					return walkErr
				}
				w.logger.Warn("skipping inaccessible path", "path", path, "err", walkErr)
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if rel, _ := filepath.Rel(root, path); rel != "." && hidden(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watch: add directory %q: %w", path, err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("watch: walk %s: %w", root, err)
		}
	}

	for file := range w.files {
		if err := w.fsw.Add(filepath.Dir(file)); err != nil {
			return fmt.Errorf("watch: add directory of %q: %w", file, err)
		}
	}
	return nil
}

// maybeAddDir extends recursive watching to directories created under a root.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") || hidden(filepath.ToSlash(rel)) {
			continue
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("add new directory", "path", path, "err", err)
		}
		return
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	for _, pat := range w.ignores {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func absSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			set[abs] = true
		}
	}
	return set
}
