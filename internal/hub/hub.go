// Package hub routes outbound events to addressable groups of sessions.
//
// Two kinds of groups exist: the meeting-wide broadcast group and one group per
// identity, used for targeted delivery to every connection of that identity.
package hub

import (
	"log/slog"
	"sync"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

const (
	meetingPrefix = "meeting:"
	userPrefix    = "user:"
)

func MeetingGroup(meetingID string) string { return meetingPrefix + meetingID }

func UserGroup(identityID string) string { return userPrefix + identityID }

type Hub struct {
	log         *slog.Logger
	mu          sync.RWMutex
	groups      map[string]map[string]*domain.Session
	memberships map[string]map[string]struct{}
}

func New(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:         log,
		groups:      make(map[string]map[string]*domain.Session),
		memberships: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Join(group string, sess *domain.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*domain.Session)
		h.groups[group] = members
	}
	members[sess.ID] = sess

	joined, ok := h.memberships[sess.ID]
	if !ok {
		joined = make(map[string]struct{})
		h.memberships[sess.ID] = joined
	}
	joined[group] = struct{}{}
}

func (h *Hub) Leave(group string, sess *domain.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(group, sess.ID)
}

// Drop detaches the session from every group it belongs to.
func (h *Hub) Drop(sess *domain.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for group := range h.memberships[sess.ID] {
		h.leaveLocked(group, sess.ID)
	}
	delete(h.memberships, sess.ID)
}

func (h *Hub) Sessions(group string) []*domain.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*domain.Session, 0, len(h.groups[group]))
	for _, sess := range h.groups[group] {
		out = append(out, sess)
	}
	return out
}

// SessionsOf returns the sessions of identityID attached to group.
func (h *Hub) SessionsOf(group, identityID string) []*domain.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*domain.Session
	for _, sess := range h.groups[group] {
		if sess.Identity.ID == identityID {
			out = append(out, sess)
		}
	}
	return out
}

// HasIdentity reports whether another session of identityID is still attached to group.
func (h *Hub) HasIdentity(group, identityID, exceptSessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sess := range h.groups[group] {
		if id != exceptSessionID && sess.Identity.ID == identityID {
			return true
		}
	}
	return false
}

func (h *Hub) Contains(group string, sess *domain.Session) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.groups[group][sess.ID]
	return ok
}

// Broadcast enqueues evt to every session of group except exceptSessionID
// and returns how many sessions accepted it. Slow sessions lose the event.
func (h *Hub) Broadcast(group string, evt domain.Event, exceptSessionID string) int {
	h.mu.RLock()
	targets := make([]*domain.Session, 0, len(h.groups[group]))
	for id, sess := range h.groups[group] {
		if id == exceptSessionID {
			continue
		}
		targets = append(targets, sess)
	}
	h.mu.RUnlock()

	return h.deliver(group, targets, evt)
}

// BroadcastExceptIdentity skips every session of identityID.
func (h *Hub) BroadcastExceptIdentity(group string, evt domain.Event, identityID string) int {
	h.mu.RLock()
	targets := make([]*domain.Session, 0, len(h.groups[group]))
	for _, sess := range h.groups[group] {
		if sess.Identity.ID == identityID {
			continue
		}
		targets = append(targets, sess)
	}
	h.mu.RUnlock()

	return h.deliver(group, targets, evt)
}

// deliver runs outside the lock. Closed sessions are skipped silently; a full
// queue is logged as a drop.
func (h *Hub) deliver(group string, targets []*domain.Session, evt domain.Event) int {
	delivered := 0
	for _, sess := range targets {
		if sess.Enqueue(evt) {
			delivered++
			continue
		}
		if sess.Closed() {
			continue
		}
		h.log.Debug("dropping event",
			slog.String("group", group),
			slog.String("session_id", sess.ID),
			slog.String("type", evt.Type),
		)
	}
	return delivered
}

func (h *Hub) leaveLocked(group, sessionID string) {
	if members, ok := h.groups[group]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	if joined, ok := h.memberships[sessionID]; ok {
		delete(joined, group)
		if len(joined) == 0 {
			delete(h.memberships, sessionID)
		}
	}
}
