// Package server exposes a repository's commit graph over HTTP and pushes
// fresh snapshots to WebSocket clients whenever the repository changes.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kvisser/repograph/internal/gitcore"
	"github.com/kvisser/repograph/internal/graph"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Local visualization tool; the graph carries nothing secret
		// beyond what the repository itself holds.
		return true
	},
}

type MessageType string

const (
	MessageTypeRepo  MessageType = "repo"
	MessageTypeGraph MessageType = "graph"
)

type UpdateMessage struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

// Server caches the latest graph snapshot and keeps connected clients
// current. Imports are whole-snapshot: every refresh rebuilds the graph from
// a fresh store.
type Server struct {
	repoPath   string
	addr       string
	pollPeriod time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cacheMu sync.RWMutex
	cached  struct {
		name   string
		gitDir string
		graph  *graph.Graph
	}

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool
	broadcast chan UpdateMessage
	refresh   chan struct{}
}

func New(repoPath, addr string, pollPeriod time.Duration) *Server {
	return &Server{
		repoPath:   repoPath,
		addr:       addr,
		pollPeriod: pollPeriod,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan UpdateMessage, 256),
		refresh:    make(chan struct{}, 1),
	}
}

// Start performs the initial import and serves until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	store, err := gitcore.NewDirStore(s.repoPath)
	if err != nil {
		return err
	}
	s.cacheMu.Lock()
	s.cached.name = store.Name()
	s.cached.gitDir = store.GitDir()
	s.cacheMu.Unlock()

	if err := s.reimport(); err != nil {
		return err
	}

	if err := s.startWatcher(); err != nil {
		log.Printf("filesystem watcher unavailable, relying on polling: %v", err)
	}

	s.wg.Add(2)
	go s.handleBroadcast()
	go s.pollLoop()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/repo", s.handleRepo)
	mux.HandleFunc("/api/graph", s.handleGraph)
	mux.HandleFunc("/api/ws", s.handleWebSocket)

	httpServer := &http.Server{Addr: s.addr, Handler: mux}
	go func() {
		<-s.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	err = httpServer.ListenAndServe()
	s.cancel()
	s.wg.Wait()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleRepo serves repository metadata. Used for initial page load and
// debugging.
func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	s.cacheMu.RLock()
	response := map[string]string{
		"name":   s.cached.name,
		"gitDir": s.cached.gitDir,
	}
	s.cacheMu.RUnlock()

	writeJSON(w, response)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.cacheMu.RLock()
	g := s.cached.graph
	s.cacheMu.RUnlock()

	writeJSON(w, g)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// The conn takes only one writer at a time, so the initial snapshot goes
	// out before the broadcast goroutine can see this client.
	s.sendInitialState(conn)

	s.clientsMu.Lock()
	s.clients[conn] = true
	total := len(s.clients)
	s.clientsMu.Unlock()
	log.Printf("websocket client connected, total %d", total)

	// Block until the client goes away; once registered, all writes happen
	// on the broadcast goroutine.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, conn)
	total = len(s.clients)
	s.clientsMu.Unlock()
	log.Printf("websocket client disconnected, total %d", total)
}

func (s *Server) sendInitialState(conn *websocket.Conn) {
	s.cacheMu.RLock()
	messages := []UpdateMessage{
		{Type: MessageTypeRepo, Data: map[string]string{"name": s.cached.name, "gitDir": s.cached.gitDir}},
		{Type: MessageTypeGraph, Data: s.cached.graph},
	}
	s.cacheMu.RUnlock()

	for _, msg := range messages {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("error sending initial state: %v", err)
			return
		}
	}
}

func (s *Server) handleBroadcast() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.broadcast:
			s.clientsMu.Lock()
			for client := range s.clients {
				if err := client.WriteJSON(msg); err != nil {
					log.Printf("error broadcasting to client: %v", err)
					delete(s.clients, client)
					client.Close()
				}
			}
			s.clientsMu.Unlock()
		}
	}
}

func (s *Server) broadcastUpdate(msgType MessageType, data any) {
	select {
	case s.broadcast <- UpdateMessage{Type: msgType, Data: data}:
	default:
		log.Println("broadcast channel full, dropping message")
	}
}
