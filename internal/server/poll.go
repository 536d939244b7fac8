package server

import (
	"encoding/json"
	"log"
	"time"

	"github.com/kvisser/repograph/internal/graph"
)

// pollLoop re-imports the repository on a timer and whenever the watcher
// reports a change. A failed import keeps the previous snapshot.
func (s *Server) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollPeriod)
	defer ticker.Stop()

	log.Printf("repository polling started (period = %s)", s.pollPeriod)

	for {
		select {
		case <-s.ctx.Done():
			log.Println("repository polling stopped")
			return
		case <-ticker.C:
		case <-s.refresh:
		}

		if err := s.reimport(); err != nil {
			log.Printf("error refreshing graph: %v", err)
		}
	}
}

// reimport builds a fresh snapshot and broadcasts it when it differs from
// the cached one.
func (s *Server) reimport() error {
	g, err := graph.Import(s.repoPath)
	if err != nil {
		return err
	}

	s.cacheMu.RLock()
	changed := !graphEqual(s.cached.graph, g)
	s.cacheMu.RUnlock()
	if !changed {
		return nil
	}

	s.cacheMu.Lock()
	s.cached.graph = g
	s.cacheMu.Unlock()

	s.broadcastUpdate(MessageTypeGraph, g)
	log.Printf("graph changed, broadcasting update (%d commits)", g.Metrics.CommitCount)
	return nil
}

// graphEqual compares snapshots through their JSON encoding, which is
// deterministic for these types (map keys are sorted).
func graphEqual(a, b *graph.Graph) bool {
	if a == nil || b == nil {
		return a == b
	}

	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aJSON) == string(bJSON)
}
