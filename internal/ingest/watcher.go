package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long a dropped file must stay quiet before it is
// ingested. Editors and copies produce bursts of write events.
const watchDebounce = 500 * time.Millisecond

// Watcher ingests text files dropped into a directory as public
// documents owned by a fixed identity.
type Watcher struct {
	svc    *Service
	dir    string
	owner  string
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a drop-directory watcher.
func NewWatcher(svc *Service, dir, owner string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		svc:    svc,
		dir:    dir,
		owner:  owner,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Run watches the drop directory until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watch_started", slog.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.cancelTimers()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				w.schedule(ctx, ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

// schedule (re)arms the debounce timer for a path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(watchDebounce)
		return
	}
	w.timers[path] = time.AfterFunc(watchDebounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.ingestPath(ctx, path)
	})
}

func (w *Watcher) ingestPath(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("watch_read_failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	doc, err := w.svc.IngestText(ctx, filepath.Base(path), w.owner, string(data), false)
	if err != nil {
		w.logger.Warn("watch_ingest_failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	w.logger.Info("watch_ingested",
		slog.String("path", path),
		slog.String("doc_id", doc.ID))
}

func (w *Watcher) cancelTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}
