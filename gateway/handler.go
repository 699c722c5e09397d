package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"chat-hub/contract"
	"chat-hub/observability"
	"chat-hub/runtime"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to websocket connections and runs one read
// loop per connection.
type Handler struct {
	dispatcher  *Dispatcher
	registry    contract.IRegistry
	stats       *observability.Stats
	log         *slog.Logger
	upgrader    websocket.Upgrader
	authTimeout time.Duration
	bufferSize  int
}

func NewHandler(dispatcher *Dispatcher, registry contract.IRegistry,
	stats *observability.Stats, log *slog.Logger,
	authTimeout time.Duration, bufferSize int) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		registry:   registry,
		stats:      stats,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		authTimeout: authTimeout,
		bufferSize:  bufferSize,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	connID := uuid.NewString()
	conn := NewConn(connID, ws, h.bufferSize, h.log)
	session := runtime.NewSession(connID, h.authTimeout, func() {
		h.log.Info("authentication deadline reached, closing connection", "conn_id", connID)
		conn.Close()
	})
	h.stats.SessionStarted()
	h.log.Debug("connection opened", "conn_id", connID, "remote", r.RemoteAddr)

	go conn.WritePump()
	h.readLoop(session, conn)

	// Disconnect cancels only subscriptions; in-flight mutations the
	// connection started still run to completion in their own goroutines.
	session.Disconnect()
	h.registry.DropConnection(connID)
	conn.Close()
	h.stats.SessionEnded()
	h.log.Debug("connection closed", "conn_id", connID)
}

func (h *Handler) readLoop(session *runtime.Session, conn *Conn) {
	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("read failed", "conn_id", conn.ID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			conn.Emit("error", map[string]string{"reason": "malformed envelope"})
			continue
		}
		h.dispatcher.Handle(session, conn, env)
	}
}
