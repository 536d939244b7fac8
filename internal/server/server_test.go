package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvisser/repograph/internal/gitcore"
	"github.com/kvisser/repograph/internal/graph"
)

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		name   string
		event  fsnotify.Event
		ignore bool
	}{
		{"ref write", fsnotify.Event{Name: "/repo/.git/refs/heads/main", Op: fsnotify.Write}, false},
		{"new pack", fsnotify.Event{Name: "/repo/.git/objects/pack/pack-ab.idx", Op: fsnotify.Create}, false},
		{"lockfile", fsnotify.Event{Name: "/repo/.git/HEAD.lock", Op: fsnotify.Create}, true},
		{"reflog", fsnotify.Event{Name: "/repo/.git/logs/HEAD", Op: fsnotify.Write}, true},
		{"config touch", fsnotify.Event{Name: "/repo/.git/config", Op: fsnotify.Write}, true},
		{"chmod only", fsnotify.Event{Name: "/repo/.git/refs/heads/main", Op: fsnotify.Chmod}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ignore, shouldIgnoreEvent(tt.event))
		})
	}
}

func TestGraphEqual(t *testing.T) {
	a := &graph.Graph{
		DefaultHead: "tip",
		TopoOrder:   []gitcore.Hash{"root", "tip"},
		Metrics:     graph.Metrics{CommitCount: 2},
	}
	b := &graph.Graph{
		DefaultHead: "tip",
		TopoOrder:   []gitcore.Hash{"root", "tip"},
		Metrics:     graph.Metrics{CommitCount: 2},
	}

	assert.True(t, graphEqual(nil, nil))
	assert.False(t, graphEqual(a, nil))
	assert.False(t, graphEqual(nil, b))
	assert.True(t, graphEqual(a, b))

	b.Metrics.CommitCount = 3
	assert.False(t, graphEqual(a, b))
}

func TestBroadcastUpdateNeverBlocks(t *testing.T) {
	s := New("/tmp/repo", ":0", time.Second)

	for i := 0; i < cap(s.broadcast)+10; i++ {
		s.broadcastUpdate(MessageTypeGraph, nil)
	}
	assert.Equal(t, cap(s.broadcast), len(s.broadcast))
}

func TestRequestRefreshCoalesces(t *testing.T) {
	s := New("/tmp/repo", ":0", time.Second)

	s.requestRefresh()
	s.requestRefresh()
	s.requestRefresh()
	assert.Equal(t, 1, len(s.refresh), "pending refreshes must coalesce")
}

func TestHandleRepo(t *testing.T) {
	s := New("/tmp/repo", ":0", time.Second)
	s.cached.name = "repo"
	s.cached.gitDir = "/tmp/repo/.git"

	rec := httptest.NewRecorder()
	s.handleRepo(rec, httptest.NewRequest("GET", "/api/repo", nil))

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "repo", body["name"])
	assert.Equal(t, "/tmp/repo/.git", body["gitDir"])
}

func TestWebSocketInitialStateThenBroadcast(t *testing.T) {
	s := New("/tmp/repo", ":0", time.Second)
	s.cached.name = "repo"
	s.cached.gitDir = "/tmp/repo/.git"
	s.cached.graph = &graph.Graph{DefaultHead: "tip", Metrics: graph.Metrics{CommitCount: 1}}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	defer s.cancel()
	s.wg.Add(1)
	go s.handleBroadcast()

	srv := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The snapshot arrives before the client joins the broadcast set, so
	// these two messages always come first and in order.
	var first, second UpdateMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, MessageTypeRepo, first.Type)
	assert.Equal(t, MessageTypeGraph, second.Type)

	require.Eventually(t, func() bool {
		s.clientsMu.RLock()
		defer s.clientsMu.RUnlock()
		return len(s.clients) == 1
	}, time.Second, 10*time.Millisecond, "client must register after the initial send")

	s.broadcastUpdate(MessageTypeGraph, map[string]int{"commitCount": 2})

	var update UpdateMessage
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, MessageTypeGraph, update.Type)
}

func TestHandleGraph(t *testing.T) {
	s := New("/tmp/repo", ":0", time.Second)
	s.cached.graph = &graph.Graph{
		DefaultHead: "tip",
		TopoOrder:   []gitcore.Hash{"tip"},
		Lanes:       map[gitcore.Hash]int{"tip": 0},
		Metrics:     graph.Metrics{CommitCount: 1, AuthorCount: 1},
	}

	rec := httptest.NewRecorder()
	s.handleGraph(rec, httptest.NewRequest("GET", "/api/graph", nil))

	require.Equal(t, 200, rec.Code)

	var body graph.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, gitcore.Hash("tip"), body.DefaultHead)
	assert.Equal(t, 1, body.Metrics.CommitCount)
}
