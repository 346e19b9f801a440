package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Add_CreatesRoomOnce(t *testing.T) {
	req := require.New(t)
	reg := New()

	// Given no room exists
	req.Empty(reg.ActiveRooms())
	req.Equal(0, reg.Count("m-1"))
	req.Equal([]string{}, reg.Members("m-1"))

	// When the same identity is added twice
	req.True(reg.Add("m-1", "alice"))
	req.False(reg.Add("m-1", "alice"))

	// Then the room holds one member
	req.Equal(1, reg.Count("m-1"))
	req.Equal([]string{"alice"}, reg.Members("m-1"))
	req.True(reg.Contains("m-1", "alice"))
	req.Equal([]string{"m-1"}, reg.ActiveRooms())
}

func TestRegistry_Remove_DropsEmptyRoom(t *testing.T) {
	req := require.New(t)
	reg := New()
	reg.Add("m-1", "alice")
	reg.Add("m-1", "bob")

	req.True(reg.Remove("m-1", "alice"))
	req.False(reg.Remove("m-1", "alice"))
	req.Equal([]string{"bob"}, reg.Members("m-1"))

	req.True(reg.Remove("m-1", "bob"))
	req.NotContains(reg.ActiveRooms(), "m-1")
	req.Equal(0, reg.Count("m-1"))
	req.False(reg.Remove("unknown", "bob"))
}

func TestRegistry_Clear(t *testing.T) {
	req := require.New(t)
	reg := New()
	reg.Add("m-1", "bob")
	reg.Add("m-1", "alice")
	reg.Add("m-2", "carol")

	req.Equal([]string{"alice", "bob"}, reg.Clear("m-1"))
	req.Nil(reg.Clear("m-1"))
	req.Equal([]string{"m-2"}, reg.ActiveRooms())
}

func TestRegistry_CountMatchesMembers_AnySequence(t *testing.T) {
	req := require.New(t)
	reg := New()
	ops := []struct {
		add  bool
		room string
		id   string
	}{
		{true, "m-1", "a"}, {true, "m-1", "b"}, {true, "m-2", "a"}, {false, "m-1", "a"},
		{true, "m-1", "b"}, {false, "m-2", "a"}, {false, "m-1", "c"}, {false, "m-1", "b"},
	}

	for _, op := range ops {
		if op.add {
			reg.Add(op.room, op.id)
		} else {
			reg.Remove(op.room, op.id)
		}
		for _, room := range []string{"m-1", "m-2"} {
			req.Equal(len(reg.Members(room)), reg.Count(room))
			if reg.Count(room) == 0 {
				req.NotContains(reg.ActiveRooms(), room)
			}
		}
	}
	req.Empty(reg.ActiveRooms())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	req := require.New(t)
	reg := New()
	const workers = 32

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i)
			for j := 0; j < 100; j++ {
				reg.Add("m-1", id)
				_ = reg.Members("m-1")
				_ = reg.Contains("m-1", id)
				reg.Remove("m-1", id)
			}
			reg.Add("m-1", id)
		}(i)
	}
	wg.Wait()

	req.Equal(workers, reg.Count("m-1"))
	req.Len(reg.Members("m-1"), workers)
}
