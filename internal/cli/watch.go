package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watchDebounce coalesces the burst of events editors emit for one save.
var watchDebounce = 200 * time.Millisecond

// fileWatcher reports changes to a fixed set of files. Parent directories
// are watched so files replaced by rename keep being tracked.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	delay    time.Duration
	onChange func()
	log      zerolog.Logger
}

func newFileWatcher(paths []string, delay time.Duration, log zerolog.Logger, onChange func()) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	fw := &fileWatcher{
		watcher:  w,
		files:    make(map[string]struct{}, len(paths)),
		delay:    delay,
		onChange: onChange,
		log:      log,
	}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		fw.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	return fw, nil
}

// Start blocks until ctx is cancelled, calling onChange once per settled
// burst of events on a tracked file.
func (fw *fileWatcher) Start(ctx context.Context) error {
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
			return nil
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return errors.New("watcher channel closed")
			}
			if !fw.tracks(event) {
				continue
			}
			fw.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("change detected")
			if timer == nil {
				timer = time.NewTimer(fw.delay)
			} else {
				timer.Reset(fw.delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			fw.onChange()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			fw.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (fw *fileWatcher) tracks(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	_, ok := fw.files[filepath.Clean(event.Name)]
	return ok
}

func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}

func reloadSettings(cfg *GenerateConfig) error {
	if cfg.reload == nil {
		return nil
	}
	next, err := cfg.reload()
	if err != nil {
		return err
	}
	cfg.Settings = next.Settings
	cfg.Output = next.Output
	return nil
}

func watchAndRegenerate(ctx context.Context, cfg *GenerateConfig, paths []string) error {
	log := cfg.Logger
	fw, err := newFileWatcher(paths, watchDebounce, log, func() {
		if err := reloadSettings(cfg); err != nil {
			log.Error().Err(err).Msg("settings reload failed")
			return
		}
		if err := generateOnce(ctx, cfg); err != nil {
			log.Error().Err(err).Msg("generation failed; waiting for changes")
		}
	})
	if err != nil {
		return err
	}
	defer fw.Close()

	log.Info().Strs("paths", paths).Msg("watching for changes")
	return fw.Start(ctx)
}
