package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for a burst of file events to
// settle before reloading.
const DefaultDebounce = 250 * time.Millisecond

type watchConfig struct {
	debounce time.Duration
	logger   *slog.Logger
}

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

// WithDebounce sets the reload debounce interval. Zero reloads on every
// event.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) { c.debounce = d }
}

// WithWatchLogger sets the logger used to report reloads.
func WithWatchLogger(l *slog.Logger) WatchOption {
	return func(c *watchConfig) { c.logger = l }
}

// LoadFile loads the category file at path into c.
func (c *Composer) LoadFile(path string) error {
	cats, err := LoadCategories(path)
	if err != nil {
		return err
	}
	return c.Replace(cats)
}

// Watch loads path into c and then reloads it whenever the file changes,
// until ctx is done. The parent directory is watched rather than the file
// so that editors which save by renaming a temporary file are picked up.
// A file that fails to load or validate is logged and the previous lists
// stay in use.
//
// Watch blocks. It returns an error if the initial load fails or the watcher
// cannot be set up, and ctx.Err() once ctx is done.
func Watch(ctx context.Context, path string, c *Composer, opts ...WatchOption) error {
	cfg := watchConfig{debounce: DefaultDebounce, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve categories path: %w", err)
	}
	if err := c.LoadFile(path); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	cfg.logger.InfoContext(ctx, "categories.watch.start", slog.String("path", path))

	reload := func() {
		if err := c.LoadFile(path); err != nil {
			cfg.logger.WarnContext(ctx, "categories.reload.fail", slog.String("path", path), slog.String("err", err.Error()))
			return
		}
		cfg.logger.InfoContext(ctx, "categories.reload.ok", slog.String("path", path))
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if cfg.debounce <= 0 {
				reload()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(cfg.debounce)
			} else {
				timer.Reset(cfg.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			cfg.logger.DebugContext(ctx, "categories.watch.error", slog.String("err", err.Error()))
		}
	}
}
