// Package server exposes the running simulation over a websocket: clients
// receive each telemetry window and may send parameter updates back.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/windfield/app"
	"github.com/pthm-cable/windfield/telemetry"
)

const writeTimeout = 2 * time.Second

// Sink receives parameter updates decoded from clients.
type Sink interface {
	Submit(app.ParamUpdate)
}

// Message is the envelope sent to clients.
type Message struct {
	Type  string                 `json:"type"` // "stats" or "error"
	Stats *telemetry.WindowStats `json:"stats,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// Hub tracks connected clients and fans stats out to them.
type Hub struct {
	log      *slog.Logger
	sink     Sink
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewHub creates a hub forwarding client updates to sink.
func NewHub(sink Sink, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log:  logger,
		sink: sink,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Handler returns a mux serving the websocket at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	return mux
}

// ServeHTTP upgrades the request and reads updates until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = connMu
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()
	h.log.Info("client connected", "remote", r.RemoteAddr)

	for {
		var u app.ParamUpdate
		if err := conn.ReadJSON(&u); err != nil {
			if isDecodeError(err) {
				h.send(conn, connMu, Message{Type: "error", Error: err.Error()})
				continue
			}
			h.log.Info("client disconnected", "remote", r.RemoteAddr, "error", err)
			return
		}
		if h.sink != nil {
			h.sink.Submit(u)
		}
	}
}

// isDecodeError reports whether err came from decoding a message body rather
// than from the connection.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Broadcast sends one stats window to every client. Clients that fail the
// write are dropped.
func (h *Hub) Broadcast(stats telemetry.WindowStats) {
	msg := Message{Type: "stats", Stats: &stats}

	h.mu.RLock()
	var failed []*websocket.Conn
	for conn, connMu := range h.clients {
		if err := h.send(conn, connMu, msg); err != nil {
			failed = append(failed, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range failed {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}
}

func (h *Hub) send(conn *websocket.Conn, connMu *sync.Mutex, msg Message) error {
	connMu.Lock()
	defer connMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ListenAndServe serves the hub on addr until ctx is cancelled.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	h.log.Info("websocket server listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
