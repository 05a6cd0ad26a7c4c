package prices

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads svc whenever the prices file at path is edited by hand. The
// directory is watched so that editors replacing the file are also seen. Watch
// blocks until ctx is done.
func Watch(ctx context.Context, path string, svc *Service, log *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed, err := svc.Reload(ctx)
			if err != nil {
				log.Warn("reload prices failed, keeping current catalog", zap.Error(err))
				continue
			}
			if changed {
				log.Info("prices reloaded from disk", zap.String("path", path))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("prices watcher error", zap.Error(err))
		}
	}
}
