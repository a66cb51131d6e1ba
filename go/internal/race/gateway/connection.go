package gateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nkirchner/typerush/go/internal/race"
)

// MessageSink receives inbound frames and disconnect signals from the
// transport.
type MessageSink interface {
	HandleMessage(conn *Connection, raw []byte)
	HandleDisconnect(conn *Connection)
}

// ConnectionConfig holds tunables for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns the default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// ConnectionManager owns every live WebSocket connection and implements the
// engine's Broadcaster contract. Sends are non-blocking: a client whose send
// buffer fills up is dropped rather than allowed to stall a room broadcast.
type ConnectionManager struct {
	mu       sync.RWMutex
	conns    map[uuid.UUID]*Connection
	upgrader websocket.Upgrader
	config   ConnectionConfig
	sink     MessageSink
}

// Connection is a single client's WebSocket session.
type Connection struct {
	ID     uuid.UUID
	UserID *uuid.UUID // optional identity for stats recording

	conn    *websocket.Conn
	send    chan []byte
	manager *ConnectionManager

	// done is closed exactly once when the connection shuts down. The send
	// channel itself is never closed: broadcasts can race a disconnect, and
	// a send on a closed channel would panic the process.
	done        chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time
}

// close tears the connection down at most once. Closing done stops the
// write pump and turns any in-flight trySend into a no-op; closing the
// socket unblocks the read pump.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// NewConnectionManager creates a manager with the given configuration.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		conns: make(map[uuid.UUID]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

func (cm *ConnectionManager) setSink(sink MessageSink) { cm.sink = sink }

// Upgrade promotes an HTTP request to a WebSocket session and starts its
// read and write pumps. The optional user_id query parameter carries the
// caller's identity for the stats boundary; in production this would come
// from the session cookie.
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request) error {
	var userID *uuid.UUID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid user_id: %w", err)
		}
		userID = &id
	}

	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade connection: %w", err)
	}

	conn := &Connection{
		ID:          uuid.New(),
		UserID:      userID,
		conn:        ws,
		send:        make(chan []byte, 64),
		done:        make(chan struct{}),
		manager:     cm,
		connectedAt: time.Now(),
	}

	cm.mu.Lock()
	cm.conns[conn.ID] = conn
	total := len(cm.conns)
	cm.mu.Unlock()

	go conn.writePump()
	go conn.readPump()

	log.Info().
		Str("conn", conn.ID.String()).
		Int("total_connections", total).
		Msg("WebSocket connection established")

	return nil
}

// ConnectionCount reports the number of live connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.conns)
}

// PublishState implements race.Broadcaster. It never blocks: slow clients
// are disconnected instead.
func (cm *ConnectionManager) PublishState(conns []uuid.UUID, state race.RoomState) {
	msg, err := newStateMessage(state)
	if err != nil {
		log.Error().Err(err).Str("room", state.RoomID).Msg("failed to marshal room state")
		return
	}

	cm.mu.RLock()
	targets := make([]*Connection, 0, len(conns))
	for _, id := range conns {
		if c, ok := cm.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	cm.mu.RUnlock()

	for _, c := range targets {
		c.trySend(msg)
	}
}

// SendError implements race.Broadcaster, delivering a room-scoped error to
// one requester.
func (cm *ConnectionManager) SendError(connID uuid.UUID, message string) {
	msg, err := newErrorMessage(message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal room error")
		return
	}

	cm.mu.RLock()
	c, ok := cm.conns[connID]
	cm.mu.RUnlock()
	if ok {
		c.trySend(msg)
	}
}

func (cm *ConnectionManager) unregister(conn *Connection) {
	cm.mu.Lock()
	delete(cm.conns, conn.ID)
	cm.mu.Unlock()
}

// trySend queues a message without blocking. Sends to a closed connection
// are dropped. A full buffer means the client cannot keep up with room
// broadcasts, so the connection is dropped; its read pump then surfaces the
// disconnect to the engine.
func (c *Connection) trySend(msg []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- msg:
	default:
		log.Warn().
			Str("conn", c.ID.String()).
			Msg("send buffer full, closing connection")
		c.manager.unregister(c)
		c.close()
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().
					Err(err).
					Str("conn", c.ID.String()).
					Msg("failed to write message")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.manager.unregister(c)
		c.close()
		if c.manager.sink != nil {
			c.manager.sink.HandleDisconnect(c)
		}
		log.Info().Str("conn", c.ID.String()).Msg("connection closed")
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("conn", c.ID.String()).
					Msg("unexpected WebSocket close")
			}
			return
		}
		if c.manager.sink != nil {
			c.manager.sink.HandleMessage(c, message)
		}
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}
