package services

import "sync"

// SessionDirectory tracks the single non-terminal game session per room.
// It is process-local state owned by the GameService; storage remains the
// source of truth across restarts, so lookups fall back to the database
// when a room has no entry here.
type SessionDirectory struct {
	mu     sync.Mutex
	active map[uint]uint // room id -> session id
}

func NewSessionDirectory() *SessionDirectory {
	return &SessionDirectory{active: make(map[uint]uint)}
}

// Active returns the registered non-terminal session for the room, if any.
func (d *SessionDirectory) Active(roomID uint) (uint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.active[roomID]
	return id, ok
}

// Register records the room's active session. It refuses a second
// registration while one is held.
func (d *SessionDirectory) Register(roomID, sessionID uint) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.active[roomID]; ok {
		return false
	}
	d.active[roomID] = sessionID
	return true
}

// Unregister drops the entry, but only if it still points at the given
// session; a newer session registered after a finish is left alone.
func (d *SessionDirectory) Unregister(roomID, sessionID uint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active[roomID] == sessionID {
		delete(d.active, roomID)
	}
}
