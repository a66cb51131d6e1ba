package race

import (
	"math/rand"
	"sync"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Store owns every live room, keyed by room code. It is the only resource
// shared across rooms, so all access is serialized through its mutex.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	rng   *rand.Rand
}

// NewStore creates an empty room store.
func NewStore() *Store {
	return newStoreWithRand(newRand())
}

func newStoreWithRand(rng *rand.Rand) *Store {
	return &Store{
		rooms: make(map[string]*Room),
		rng:   rng,
	}
}

// CreateRoom allocates a fresh unique code and a waiting room. init, when
// non-nil, runs on the room before it is inserted, so no lookup can ever
// observe a room without its creator. Codes are never reserved ahead of use:
// generation and the uniqueness check happen under the same critical
// section, so two near-simultaneous creations cannot collide.
func (s *Store) CreateRoom(init func(*Room)) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.generateCodeLocked()
	room := newRoom(code)
	if init != nil {
		init(room)
	}
	s.rooms[code] = room
	return room
}

func (s *Store) generateCodeLocked() string {
	buf := make([]byte, codeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[s.rng.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := s.rooms[code]; !taken {
			return code
		}
	}
}

// Get looks up a live room by code.
func (s *Store) Get(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

// Remove deletes a room. Its code may be reissued afterwards.
func (s *Store) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

// Len reports the number of live rooms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
