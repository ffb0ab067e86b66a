package server

import "sync"

// refreshHub fans a change signal out to every subscriber of one workspace.
// Sends never block: a slow consumer misses intermediate signals, which is
// fine because subscribers reload the whole tree on any signal.
type refreshHub struct {
	mu      sync.Mutex
	subs    map[chan struct{}]struct{}
	version uint64
}

func newRefreshHub() *refreshHub {
	return &refreshHub{subs: map[chan struct{}]struct{}{}}
}

func (h *refreshHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *refreshHub) bump() uint64 {
	h.mu.Lock()
	h.version++
	v := h.version
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
	return v
}

func (h *refreshHub) currentVersion() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}

// refreshBroadcaster holds one hub per workspace. Every mutating handler bumps
// the workspace's version, which drives both the SSE stream and the websocket
// refresh feed.
type refreshBroadcaster struct {
	mu   sync.Mutex
	hubs map[int64]*refreshHub
}

func newRefreshBroadcaster() *refreshBroadcaster {
	return &refreshBroadcaster{hubs: map[int64]*refreshHub{}}
}

func (b *refreshBroadcaster) hubFor(workspaceID int64) *refreshHub {
	b.mu.Lock()
	h := b.hubs[workspaceID]
	if h == nil {
		h = newRefreshHub()
		b.hubs[workspaceID] = h
	}
	b.mu.Unlock()
	return h
}

func (b *refreshBroadcaster) bump(workspaceID int64) uint64 {
	return b.hubFor(workspaceID).bump()
}
