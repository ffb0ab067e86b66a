package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/starfederation/datastar-go/datastar"
)

// handleEvents streams tree-version changes as datastar signal patches. A
// browser embedding the workspace reloads its view whenever treeVersion moves.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workspaceId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	if _, err := s.store.GetWorkspace(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	sse := datastar.NewSSE(w, r)
	hub := s.bc.hubFor(id)
	_ = sse.MarshalAndPatchSignals(map[string]any{"treeVersion": hub.currentVersion()})

	ch, cancel := hub.subscribe()
	defer cancel()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			_ = sse.MarshalAndPatchSignals(map[string]any{"treeVersion": hub.currentVersion()})
		}
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		// Basic same-origin check; good enough for localhost usage.
		host := strings.TrimSpace(r.Host)
		return strings.Contains(origin, "://"+host)
	},
}

// handleWS is the TUI refresh feed: one text frame per tree-version change,
// carrying the new version. Clients treat any frame as "reload the tree".
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workspaceId")
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	if _, err := s.store.GetWorkspace(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	hub := s.bc.hubFor(id)
	ch, cancel := hub.subscribe()
	defer cancel()

	// Drain the read side so client close frames are noticed.
	readClosed := make(chan struct{})
	go func() {
		defer close(readClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-readClosed:
			return
		case <-keepAlive.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			v := strconv.FormatUint(hub.currentVersion(), 10)
			if err := conn.WriteMessage(websocket.TextMessage, []byte(v)); err != nil {
				return
			}
		}
	}
}
