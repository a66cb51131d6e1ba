package race

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks which room, if any, each connection currently belongs to.
// It is owned by the engine rather than the transport so membership lifecycle
// does not depend on the websocket object model.
type Registry struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]string
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[uuid.UUID]string)}
}

// Bind associates a connection with a room code, replacing any previous
// association.
func (r *Registry) Bind(connID uuid.UUID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[connID] = code
}

// Unbind drops a connection's room association.
func (r *Registry) Unbind(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, connID)
}

// RoomCode returns the room the connection belongs to, if any.
func (r *Registry) RoomCode(connID uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.rooms[connID]
	return code, ok
}
