// Package watcher keeps the product catalog in sync with seed files on
// disk, using fsnotify with debouncing.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/bizflow/ai-svc/internal/catalog"
	"github.com/bizflow/ai-svc/internal/models"
)

const defaultDebounce = 400 * time.Millisecond

// Syncer upserts a tenant's product batch into the catalog.
type Syncer interface {
	Sync(ctx context.Context, ownerID string, products []models.ProductRecord) (int, error)
}

// Watcher watches a seed directory and syncs JSON catalog files into
// the product index when they appear or change.
type Watcher struct {
	dir         string
	syncer      Syncer
	logger      *zap.Logger
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
}

// NewWatcher creates a watcher over dir. The directory is created on
// Start if it does not exist.
func NewWatcher(dir string, syncer Syncer, logger *zap.Logger) *Watcher {
	return &Watcher{
		dir:         dir,
		syncer:      syncer,
		logger:      logger,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.mu.Unlock()
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()
	w.logger.Debug("seed watcher starting", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("seed watcher error", zap.Error(err))
			}
		}
	}
}

// handleEvent reacts to create and write events on seed files. Removes
// are ignored: the catalog is upsert-only, so a deleted seed file does
// not unsync its products.
func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if !isSeedFile(ev.Name) {
		return
	}
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		w.logger.Debug("seed watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
		w.debounceSync(ctx, ev.Name)
	case ev.Op.Has(fsnotify.Remove):
		w.cancelDebounce(ev.Name)
	}
}

func isSeedFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func (w *Watcher) debounceSync(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.syncFile(ctx, path)
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// syncFile loads one seed file and upserts its batch. Bad files are
// logged and skipped so one broken seed cannot stall the watcher.
func (w *Watcher) syncFile(ctx context.Context, path string) {
	req, err := catalog.LoadSeedFile(path)
	if err != nil {
		w.logger.Warn("skipping seed file", zap.String("path", path), zap.Error(err))
		return
	}
	count, err := w.syncer.Sync(ctx, req.OwnerID, req.Products)
	if err != nil {
		w.logger.Error("seed sync failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("seed file synced",
		zap.String("path", path),
		zap.String("owner_id", req.OwnerID),
		zap.Int("count", count))
}

// SyncExistingFiles syncs every seed file already present in the
// directory. Call it once after Start so files written while the
// service was down are picked up.
func (w *Watcher) SyncExistingFiles(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isSeedFile(e.Name()) {
			continue
		}
		w.syncFile(ctx, filepath.Join(w.dir, e.Name()))
	}
	return nil
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		for path, t := range w.debounceMap {
			t.Stop()
			delete(w.debounceMap, path)
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}
