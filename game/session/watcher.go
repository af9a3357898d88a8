package session

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/track-editor/pkg/logger"
)

const watchDebounce = 100 * time.Millisecond

// Watcher drops in-memory sessions whose files disappear from the sessions directory
type Watcher struct {
	watcher     *fsnotify.Watcher
	manager     *Manager
	persistence SessionPersistence
	log         *logrus.Entry

	// Pruned receives the ID of every session dropped from memory; sends never block
	Pruned chan string

	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching dir, which must hold the files of persistence
func NewWatcher(dir string, manager *Manager, persistence SessionPersistence) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:     fw,
		manager:     manager,
		persistence: persistence,
		log:         logger.WithComponent("session-watcher").WithField("dir", dir),
		Pruned:      make(chan string, 16),
		closeCh:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.Pruned)

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			id, ok := SessionIDFromFile(event.Name)
			if !ok {
				continue
			}
			now := time.Now()
			if t, ok := last[id]; ok && now.Sub(t) < watchDebounce {
				continue
			}
			last[id] = now
			w.prune(id)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watch error")
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) prune(id string) {
	// a rewrite in the other encoding also removes a file
	if w.persistence.Exists(id) {
		return
	}
	if err := w.manager.DeleteFromMemory(id); err != nil {
		return
	}
	w.log.WithField("session_id", id).Info("pruned session from memory (file deleted)")
	select {
	case w.Pruned <- id:
	default:
	}
}

// PruneOrphans removes in-memory sessions that no longer exist in persistence.
// It is the polling fallback for stores without files to watch.
func PruneOrphans(manager *Manager, persistence SessionPersistence) int {
	if persistence == nil {
		return 0
	}

	pruned := 0
	for _, session := range manager.List() {
		if persistence.Exists(session.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(session.ID); err == nil {
			pruned++
		}
	}
	return pruned
}
