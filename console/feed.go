package main

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"battleship-guru/game"
)

// Envelope wraps every message on the live feed websocket.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// boardEvent mirrors the game state after each reported shot.
type boardEvent struct {
	GameID  string      `json:"game_id"`
	Turn    int         `json:"turn"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Mode    string      `json:"mode"`
	Board   string      `json:"board"`
	Ships   []int       `json:"ships"`
	Pending *game.Point `json:"pending,omitempty"`
}

type gameOverEvent struct {
	GameID string `json:"game_id"`
	Shots  int    `json:"shots"`
}

// feedClient streams advisor events to the viewer's live feed endpoint.
// Sends never block the TUI: events queue into a small buffer and are
// dropped when the viewer cannot keep up. A nil client swallows everything,
// so call sites do not need to guard on the feed being configured.
type feedClient struct {
	url    string
	logger *log.Logger
	out    chan Envelope
	done   chan struct{}
}

func newFeedClient(url string, logger *log.Logger) *feedClient {
	f := &feedClient{
		url:    url,
		logger: logger,
		out:    make(chan Envelope, 64),
		done:   make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *feedClient) Send(typ string, v any) {
	if f == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		f.logger.Debug("feed encode failed", "type", typ, "err", err)
		return
	}
	select {
	case f.out <- Envelope{Type: typ, Data: b}:
	default:
	}
}

func (f *feedClient) Close() {
	if f == nil {
		return
	}
	close(f.done)
}

// run owns the connection: dial with backoff, forward queued events, redial
// whenever a write fails.
func (f *feedClient) run() {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	var conn *websocket.Conn
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	backoff := time.Second
	for {
		if conn == nil {
			c, _, err := dialer.Dial(f.url, nil)
			if err != nil {
				f.logger.Debug("feed dial failed", "url", f.url, "err", err)
				select {
				case <-time.After(backoff):
				case <-f.done:
					return
				}
				if backoff < 30*time.Second {
					backoff *= 2
				}
				continue
			}
			conn = c
			backoff = time.Second
			f.logger.Debug("feed connected", "url", f.url)
		}

		select {
		case env := <-f.out:
			if err := conn.WriteJSON(env); err != nil {
				f.logger.Debug("feed write failed", "err", err)
				conn.Close()
				conn = nil
			}
		case <-f.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteMessage(websocket.CloseMessage, msg)
			return
		}
	}
}
