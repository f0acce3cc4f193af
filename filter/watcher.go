package filter

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/alonana/harmetrics/core"
	"github.com/fsnotify/fsnotify"
)

// Source hands out the filter to apply to the next exchange.
type Source interface {
	Current() *Filter
}

// Watcher reloads a policy file whenever it changes. A reload that fails to parse keeps
// the previous filter in place.
type Watcher struct {
	path      string
	current   atomic.Pointer[Filter]
	watcher   *fsnotify.Watcher
	waitGroup sync.WaitGroup
	OnReload  func(*Filter)
}

func NewWatcher(path string) (*Watcher, error) {
	policy, err := LoadPolicyFile(path)
	if err != nil {
		return nil, err
	}

	w := Watcher{path: filepath.Clean(path)}
	w.current.Store(New(policy))
	return &w, nil
}

func (w *Watcher) Current() *Filter {
	return w.current.Load()
}

func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy watcher failed: %w", err)
	}

	// editors replace files on save, so watch the directory rather than the file
	err = watcher.Add(filepath.Dir(w.path))
	if err != nil {
		watcher.Close()
		return fmt.Errorf("watch %v failed: %w", w.path, err)
	}

	w.watcher = watcher
	w.waitGroup.Add(1)
	go w.watch()
	return nil
}

func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	w.watcher.Close()
	w.waitGroup.Wait()
	w.watcher = nil
}

func (w *Watcher) watch() {
	defer w.waitGroup.Done()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			core.Warn("policy watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	policy, err := LoadPolicyFile(w.path)
	if err != nil {
		core.Warn("reload policy failed, keeping previous policy: %v", err)
		return
	}

	f := New(policy)
	w.current.Store(f)
	core.Info("policy reloaded from %v, %v redacted fields", w.path, len(policy.Fields))
	if w.OnReload != nil {
		w.OnReload(f)
	}
}
