package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamBuffer = 8
	writeWait    = 5 * time.Second
	pongWait     = 30 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

type streamHandler struct {
	src      FrameSource
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func newStreamHandler(src FrameSource, log *slog.Logger) *streamHandler {
	return &streamHandler{
		src: src,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// viewers are served from other origins in development
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP pushes the latest frame, then every new one, until the viewer
// goes away. Frames the viewer is too slow for are skipped.
func (h *streamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("dashboard: websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	frames, unsubscribe := h.src.Subscribe(streamBuffer)
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if f, ok := h.src.Latest(); ok {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(f); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	h.log.Debug("dashboard: viewer connected", "remote", r.RemoteAddr)
	defer h.log.Debug("dashboard: viewer disconnected", "remote", r.RemoteAddr)

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
