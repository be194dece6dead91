package pipeline

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// Watcher holds the active pipeline definition and reloads it when the
// definition file changes on disk. A reload that fails validation keeps the
// previous definition active.
type Watcher struct {
	path    string
	mu      sync.RWMutex
	current *model.Pipeline
	fsw     *fsnotify.Watcher
}

// NewWatcher loads the pipeline file and prepares a filesystem watch on its
// parent directory (editors replace files, so watching the file inode
// directly misses rewrites).
func NewWatcher(path string) (*Watcher, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, goerr.Wrap(err, "failed to watch pipeline directory", goerr.V("path", path))
	}

	return &Watcher{
		path:    path,
		current: p,
		fsw:     fsw,
	}, nil
}

// Pipeline returns the currently active definition
func (w *Watcher) Pipeline() *model.Pipeline {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start runs the reload loop until the context is cancelled
func (w *Watcher) Start(ctx context.Context) {
	logger := ctxlog.From(ctx)

	defer func() {
		if err := w.fsw.Close(); err != nil {
			logger.Warn("failed to close fsnotify watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Error("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	logger := ctxlog.From(ctx)

	p, err := Load(w.path)
	if err != nil {
		logger.Error("pipeline reload failed, keeping previous definition",
			"path", w.path,
			"error", err,
		)
		return
	}

	w.mu.Lock()
	w.current = p
	w.mu.Unlock()

	logger.Info("pipeline definition reloaded",
		"path", w.path,
		"name", p.Name,
		"matrix_versions", len(p.Matrix.Python),
	)
}
