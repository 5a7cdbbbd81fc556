package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"sip-go/internal/sip"
)

// Importer records parsed entries. *sip.SipService satisfies it.
type Importer interface {
	BulkImport(userID string, entries []sip.ImportEntry, goal int64) (*sip.ImportResult, error)
}

// Watcher imports CSV exports dropped into a directory. Files are imported on
// every create or write; re-importing a file only yields duplicates.
type Watcher struct {
	importer Importer
	userID   string
	goal     int64
	logger   sip.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher watches dir and imports its CSV files for userID against goal.
func NewWatcher(dir string, importer Importer, userID string, goal int64, logger sip.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &Watcher{
		importer: importer,
		userID:   userID,
		goal:     goal,
		logger:   logger,
		watcher:  w,
	}, nil
}

// Watch processes events until ctx is done or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !isCSV(event.Name) {
				continue
			}
			w.logger.Debug("import file changed", "path", event.Name, "op", event.Op.String())
			if _, err := w.HandleFile(event.Name); err != nil {
				w.logger.Error("import failed", "path", event.Name, "error", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// HandleFile parses and imports one CSV file.
func (w *Watcher) HandleFile(path string) (*sip.ImportResult, error) {
	entries, err := ParseFile(path)
	if err != nil {
		return nil, err
	}

	result, err := w.importer.BulkImport(w.userID, entries, w.goal)
	if err != nil {
		return result, fmt.Errorf("importing %s: %w", path, err)
	}
	w.logger.Info("file imported", "path", path, "imported", result.Imported, "duplicates", result.Duplicates, "skipped", len(result.Skipped))
	return result, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}
