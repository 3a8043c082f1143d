package rules

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// debounceWindow collapses the burst of write events most editors emit when
// saving a file into a single reload.
const debounceWindow = 250 * time.Millisecond

// Loader reads constraint rules from a JSON file and hot-reloads them when
// the file changes on disk. File-defined rules sit alongside rules managed
// through the API; operators keep baseline policy in version control and the
// loader picks up edits without a restart.
type Loader struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	rules []domain.ConstraintRule

	// onReload, when set, is called after every successful reload.
	onReload func([]domain.ConstraintRule)

	timer *time.Timer
}

// NewLoader creates a loader for the given rules file. The file may be
// missing, which loads as zero rules.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{
		path:   path,
		logger: logger,
	}
}

// OnReload registers a callback invoked with the fresh rule set after each
// successful reload. Must be called before Watch.
func (l *Loader) OnReload(fn func([]domain.ConstraintRule)) {
	l.onReload = fn
}

// Load reads and parses the rules file, replacing the current set.
// A malformed file leaves the previous rules in place.
func (l *Loader) Load() error {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		l.mu.Lock()
		l.rules = nil
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}

	var parsed []domain.ConstraintRule
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse rules file: %w", err)
	}

	for i, r := range parsed {
		if !r.Type.Valid() {
			return fmt.Errorf("rules file entry %d: unknown rule type %q", i, r.Type)
		}
		if len(r.Tags) == 0 {
			return fmt.Errorf("rules file entry %d: no tags listed", i)
		}
		if parsed[i].ID == "" {
			parsed[i].ID = fmt.Sprintf("file-rule-%d", i)
		}
	}

	l.mu.Lock()
	l.rules = parsed
	l.mu.Unlock()

	if l.logger != nil {
		l.logger.Info("loaded constraint rules", "path", l.path, "count", len(parsed))
	}
	if l.onReload != nil {
		l.onReload(parsed)
	}
	return nil
}

// Rules returns the current rule set.
func (l *Loader) Rules() []domain.ConstraintRule {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.ConstraintRule, len(l.rules))
	copy(out, l.rules)
	return out
}

// Watch blocks until the context is cancelled, reloading the rules file when
// it changes. The parent directory is watched rather than the file itself so
// atomic rename-into-place saves are seen.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(l.path)

	for {
		select {
		case <-ctx.Done():
			l.stopTimer()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			l.scheduleReload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if l.logger != nil {
				l.logger.Warn("rules watcher error", "error", err)
			}
		}
	}
}

// scheduleReload debounces a reload.
func (l *Loader) scheduleReload() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(debounceWindow, func() {
		if err := l.Load(); err != nil && l.logger != nil {
			l.logger.Warn("rules reload failed, keeping previous set", "error", err)
		}
	})
}

func (l *Loader) stopTimer() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		l.timer.Stop()
	}
}
