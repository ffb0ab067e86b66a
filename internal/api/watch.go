package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// WatchRefresh subscribes to the server's refresh feed for one workspace and
// sends a signal whenever the workspace's tree version changes. The caller
// reloads the full tree on each signal; the feed carries no payload beyond
// the version counter.
//
// The connection is re-dialed with a small backoff until ctx is cancelled, so
// a server restart does not kill the watcher. The returned channel closes
// when ctx is done.
func (c *Client) WatchRefresh(ctx context.Context, workspaceID int64) <-chan struct{} {
	signals := make(chan struct{}, 1)
	go func() {
		defer close(signals)
		for {
			if err := c.watchOnce(ctx, workspaceID, signals); err != nil {
				c.log.Debug().Int64("workspace", workspaceID).Err(err).Msg("refresh feed dropped")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}()
	return signals
}

func (c *Client) watchOnce(ctx context.Context, workspaceID int64, signals chan<- struct{}) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/workspaces/" + strconv.FormatInt(workspaceID, 10) + "/ws"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		// Coalesce: one pending signal is enough to trigger a reload.
		select {
		case signals <- struct{}{}:
		default:
		}
	}
}
