package agent

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// storeFilePrefix matches the database file and its WAL.
const storeFilePrefix = "people.db"

// storeWatcher calls fire once writes to the store have been quiet for the
// debounce window.
type storeWatcher struct {
	w        *fsnotify.Watcher
	debounce time.Duration
	fire     func()
	logger   *slog.Logger
}

func newStoreWatcher(dir string, debounce time.Duration, fire func(), logger *slog.Logger) (*storeWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &storeWatcher{w: w, debounce: debounce, fire: fire, logger: logger}, nil
}

func (s *storeWatcher) run(ctx context.Context) error {
	defer s.w.Close()

	var (
		timer *time.Timer
		due   <-chan time.Time
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

		case ev, ok := <-s.w.Events:
			if !ok {
				return nil
			}
			if !isStoreWrite(ev) {
				continue
			}
			if s.debounce <= 0 {
				s.fire()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			due = timer.C

		case <-due:
			due = nil
			s.logger.Debug("agent: store changed")
			s.fire()

		case err, ok := <-s.w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("agent: watch error", "err", err)
		}
	}
}

func isStoreWrite(ev fsnotify.Event) bool {
	if !strings.HasPrefix(filepath.Base(ev.Name), storeFilePrefix) {
		return false
	}
	if strings.HasSuffix(ev.Name, "-shm") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
