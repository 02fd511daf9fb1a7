package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// liveHub fans envelopes from console feeds out to browser watchers. The
// hub never parses the envelopes, it just relays the bytes.
//
// Watcher channels are only sent to and closed while holding mu, which is
// what makes dropping a slow watcher mid-broadcast safe.
type liveHub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	watchers map[*watcher]struct{}
}

type watcher struct {
	out chan []byte
}

func newLiveHub(logger *log.Logger) *liveHub {
	return &liveHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			// Feeds come from console processes and watchers from the
			// embedded UI, which may be proxied; origin checks add nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		watchers: make(map[*watcher]struct{}),
	}
}

// handleFeed accepts a console's websocket and broadcasts everything it
// sends until it disconnects.
func (h *liveHub) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("feed upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	h.logger.Info("feed connected", "remote", r.RemoteAddr)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Info("feed closed", "remote", r.RemoteAddr)
			} else {
				h.logger.Debug("feed read failed", "remote", r.RemoteAddr, "err", err)
			}
			return
		}
		h.broadcast(msg)
	}
}

// handleWatch registers a browser and streams broadcast envelopes to it.
func (h *liveHub) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("watch upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	wt := &watcher{out: make(chan []byte, 64)}
	h.mu.Lock()
	h.watchers[wt] = struct{}{}
	n := len(h.watchers)
	h.mu.Unlock()
	h.logger.Info("watcher connected", "remote", r.RemoteAddr, "watchers", n)

	// Reads only serve to notice the browser going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(wt)
				return
			}
		}
	}()

	for msg := range wt.out {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(wt)
			break
		}
	}
	h.logger.Debug("watcher gone", "remote", r.RemoteAddr)
}

func (h *liveHub) drop(w *watcher) {
	h.mu.Lock()
	if _, ok := h.watchers[w]; ok {
		delete(h.watchers, w)
		close(w.out)
	}
	h.mu.Unlock()
}

func (h *liveHub) broadcast(msg []byte) {
	h.mu.Lock()
	for w := range h.watchers {
		select {
		case w.out <- msg:
		default:
			// Watcher cannot keep up; cut it loose rather than stall
			// everyone else.
			delete(h.watchers, w)
			close(w.out)
		}
	}
	h.mu.Unlock()
}
