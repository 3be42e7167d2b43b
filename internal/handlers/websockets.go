package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"garage_door/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMsgSize      = 1 << 10
	defaultInterval = 1 * time.Second
	maxInterval     = 30 * time.Second
)

// wsMessage is one frame of the status stream.
type wsMessage struct {
	Type string        `json:"type"`
	Data models.Status `json:"data"`
}

// The mobile client connects without an Origin header; browsers must come
// from the same host.
var upgrader = websocket.Upgrader{
	CheckOrigin: sameOriginOrNone,
}

func sameOriginOrNone(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// wsConnect sends the current status, then a new frame whenever the door
// state or the settings change. ?interval= sets how often that is checked.
func (h *Handler) wsConnect(c *gin.Context) {
	interval := parseInterval(c.Query("interval"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.drain(conn, done)

	check := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		check.Stop()
		ping.Stop()
	}()

	last := h.services.Status()
	if err := writeStatus(conn, last); err != nil {
		h.wsClosed("ws_write_failed", err)
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.wsClosed("ws_ping_failed", err)
				return
			}
		case <-check.C:
			cur := h.services.Status()
			if cur.Snapshot == last.Snapshot && cur.Settings == last.Settings {
				continue
			}
			if err := writeStatus(conn, cur); err != nil {
				h.wsClosed("ws_write_failed", err)
				return
			}
			last = cur
		}
	}
}

// parseInterval accepts a Go duration ("2s") or plain milliseconds ("1500").
func parseInterval(s string) time.Duration {
	if s == "" {
		return defaultInterval
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		ms, convErr := strconv.Atoi(s)
		if convErr != nil {
			return defaultInterval
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d <= 0 || d > maxInterval {
		return defaultInterval
	}
	return d
}

// drain reads and discards client frames so control frames are handled.
func (h *Handler) drain(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.wsClosed("ws_read_closed", err)
			return
		}
	}
}

func (h *Handler) wsClosed(event string, err error) {
	h.log.Infow(event, "err", err)
}

func writeStatus(conn *websocket.Conn, st models.Status) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsMessage{Type: "status", Data: st})
}
