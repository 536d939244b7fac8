package server

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceTime = 100 * time.Millisecond

// startWatcher monitors the git directory and schedules a re-import shortly
// after changes settle, instead of waiting for the next poll tick.
func (s *Server) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	s.cacheMu.RLock()
	gitDir := s.cached.gitDir
	s.cacheMu.RUnlock()

	for _, dir := range []string{gitDir, filepath.Join(gitDir, "refs", "heads"), filepath.Join(gitDir, "objects", "pack")} {
		if err := watcher.Add(dir); err != nil && dir == gitDir {
			watcher.Close()
			return err
		}
	}

	s.wg.Add(1)
	go s.watchLoop(watcher)

	log.Println("watching git directory for changes")
	return nil
}

func (s *Server) watchLoop(watcher *fsnotify.Watcher) {
	defer s.wg.Done()
	defer watcher.Close()

	var debounceTimer *time.Timer

	for {
		select {
		case <-s.ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if shouldIgnoreEvent(event) {
				continue
			}

			log.Printf("change detected: %s", filepath.Base(event.Name))

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceTime, s.requestRefresh)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

// requestRefresh nudges the poll loop without blocking; a refresh already
// pending covers this one too.
func (s *Server) requestRefresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return true
	}
	if strings.HasSuffix(base, ".lock") {
		return true
	}
	if strings.Contains(filepath.ToSlash(event.Name), "/logs/") {
		return true
	}
	if base == "config" {
		return true
	}

	return false
}
