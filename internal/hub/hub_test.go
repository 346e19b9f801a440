package hub

import (
	"testing"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/handlers/slogdiscard"
	"github.com/stretchr/testify/require"
)

func newSession(id string) *domain.Session {
	return domain.NewSession(domain.Identity{ID: id, Name: id}, 8)
}

func TestHub_Broadcast_ExcludesSender(t *testing.T) {
	req := require.New(t)
	h := New(slogdiscard.NewDiscardLogger())
	alice, bob := newSession("alice"), newSession("bob")
	group := MeetingGroup("m-1")

	h.Join(group, alice)
	h.Join(group, bob)

	delivered := h.Broadcast(group, domain.Event{Type: "ping"}, alice.ID)

	req.Equal(1, delivered)
	req.Len(bob.Events(), 1)
	req.Len(alice.Events(), 0)
}

func TestHub_Drop_RemovesAllMemberships(t *testing.T) {
	req := require.New(t)
	h := New(slogdiscard.NewDiscardLogger())
	alice := newSession("alice")

	h.Join(MeetingGroup("m-1"), alice)
	h.Join(UserGroup("alice"), alice)
	req.True(h.Contains(UserGroup("alice"), alice))

	h.Drop(alice)

	req.False(h.Contains(MeetingGroup("m-1"), alice))
	req.False(h.Contains(UserGroup("alice"), alice))
	req.Empty(h.Sessions(MeetingGroup("m-1")))
	req.Equal(0, h.Broadcast(UserGroup("alice"), domain.Event{Type: "ping"}, ""))
}

func TestHub_SessionsOf_And_HasIdentity(t *testing.T) {
	req := require.New(t)
	h := New(slogdiscard.NewDiscardLogger())
	group := MeetingGroup("m-1")
	first, second, bob := newSession("alice"), newSession("alice"), newSession("bob")

	h.Join(group, first)
	h.Join(group, second)
	h.Join(group, bob)

	req.Len(h.SessionsOf(group, "alice"), 2)
	req.True(h.HasIdentity(group, "alice", first.ID))

	h.Leave(group, second)
	req.False(h.HasIdentity(group, "alice", first.ID))
	req.Len(h.SessionsOf(group, "alice"), 1)
}

func TestHub_BroadcastExceptIdentity(t *testing.T) {
	req := require.New(t)
	h := New(slogdiscard.NewDiscardLogger())
	group := MeetingGroup("m-1")
	first, second, bob := newSession("alice"), newSession("alice"), newSession("bob")
	h.Join(group, first)
	h.Join(group, second)
	h.Join(group, bob)

	req.Equal(1, h.BroadcastExceptIdentity(group, domain.Event{Type: "ping"}, "alice"))
	req.Len(first.Events(), 0)
	req.Len(second.Events(), 0)
	req.Len(bob.Events(), 1)
}

func TestHub_Broadcast_SkipsClosedSession(t *testing.T) {
	req := require.New(t)
	h := New(slogdiscard.NewDiscardLogger())
	group := MeetingGroup("m-1")
	alice, bob := newSession("alice"), newSession("bob")
	h.Join(group, alice)
	h.Join(group, bob)

	bob.Close()

	req.Equal(1, h.Broadcast(group, domain.Event{Type: "ping"}, ""))
}
