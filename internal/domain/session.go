package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one live authenticated connection.
// The transport drains Events; everything else only enqueues.
type Session struct {
	ID          string
	Identity    Identity
	ConnectedAt time.Time

	mu     sync.RWMutex
	roomID string
	closed bool
	events chan Event
}

func NewSession(identity Identity, buffer int) *Session {
	if buffer <= 0 {
		buffer = 16
	}
	return &Session{
		ID:          uuid.New().String(),
		Identity:    identity,
		ConnectedAt: time.Now().UTC(),
		events:      make(chan Event, buffer),
	}
}

// RoomID reports the meeting the session currently occupies.
func (s *Session) RoomID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID, s.roomID != ""
}

// SetRoom binds the session to roomID and returns the previous binding.
func (s *Session) SetRoom(roomID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.roomID
	s.roomID = roomID
	return prev
}

// ClearRoom unbinds the session. Only the first of concurrent callers gets ok=true.
func (s *Session) ClearRoom() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.roomID
	s.roomID = ""
	return prev, prev != ""
}

// ClearRoomIf unbinds the session only while it is still bound to roomID.
func (s *Session) ClearRoomIf(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roomID == "" || s.roomID != roomID {
		return false
	}
	s.roomID = ""
	return true
}

// Enqueue never blocks. It returns false when the session is closed or its queue is full.
func (s *Session) Enqueue(event Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.events <- event:
		return true
	default:
		return false
	}
}

func (s *Session) Events() <-chan Event {
	return s.events
}

// Close is terminal and idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
