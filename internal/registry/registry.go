// Package registry keeps the live presence of identities per meeting.
// It is a cache only: nothing here is persisted and it starts empty on every boot.
package registry

import (
	"maps"
	"slices"
	"sync"
)

type set map[string]struct{}

// Registry maps a room to the set of identity ids currently present in it.
// A room with no members is never kept. All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]set
}

func New() *Registry {
	return &Registry{rooms: make(map[string]set)}
}

// Add inserts identityID into roomID, creating the room on first use.
// It reports whether the call changed state.
func (r *Registry) Add(roomID, identityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(set)
		r.rooms[roomID] = members
	}
	if _, present := members[identityID]; present {
		return false
	}
	members[identityID] = struct{}{}
	return true
}

// Remove deletes identityID from roomID and drops the room once it is empty.
func (r *Registry) Remove(roomID, identityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, present := members[identityID]; !present {
		return false
	}
	delete(members, identityID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
	return true
}

// Clear drops the whole room and returns the identities it held.
func (r *Registry) Clear(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	delete(r.rooms, roomID)
	return slices.Sorted(maps.Keys(members))
}

// Members returns a sorted snapshot, empty when the room does not exist.
func (r *Registry) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return []string{}
	}
	return slices.Sorted(maps.Keys(members))
}

func (r *Registry) Contains(roomID, identityID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomID][identityID]
	return ok
}

func (r *Registry) Count(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

func (r *Registry) ActiveRooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.rooms))
}
