package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickaroot/music-room/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	fail   bool
}

func (f *fakeConn) TrySend(data Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("buffer full")
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func member(id domain.UserID, name string) (MemberSession, *fakeConn) {
	conn := &fakeConn{}
	return NewMemberSession(&domain.User{ID: id, Username: name}, conn), conn
}

func TestAddMemberIdempotent(t *testing.T) {
	room := NewRoomService(1)
	ms, _ := member(1, "alice")

	room.AddMember("sid-1", ms)
	room.AddMember("sid-1", ms)
	assert.Equal(t, 1, room.MemberCount())
}

func TestBroadcastExcludesInitiator(t *testing.T) {
	room := NewRoomService(1)
	alice, aliceConn := member(1, "alice")
	bob, bobConn := member(2, "bob")
	room.AddMember("sid-a", alice)
	room.AddMember("sid-b", bob)

	res := room.Broadcast(Frame(`{"event":"playlist.changed"}`), "sid-a")
	assert.Equal(t, 1, res.SentTo)
	assert.Zero(t, aliceConn.count())
	assert.Equal(t, 1, bobConn.count())
}

func TestBroadcastToAll(t *testing.T) {
	room := NewRoomService(1)
	alice, aliceConn := member(1, "alice")
	bob, bobConn := member(2, "bob")
	room.AddMember("sid-a", alice)
	room.AddMember("sid-b", bob)

	res := room.Broadcast(Frame(`{}`), "")
	assert.Equal(t, 2, res.SentTo)
	assert.Equal(t, 1, aliceConn.count())
	assert.Equal(t, 1, bobConn.count())
}

func TestBroadcastDropsUnreachable(t *testing.T) {
	room := NewRoomService(1)
	alice, _ := member(1, "alice")
	stuck := &fakeConn{fail: true}
	bob := NewMemberSession(&domain.User{ID: 2, Username: "bob"}, stuck)
	room.AddMember("sid-a", alice)
	room.AddMember("sid-b", bob)

	res := room.Broadcast(Frame(`{}`), "")
	assert.Equal(t, 1, res.SentTo)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, domain.UserID(2), res.Dropped[0].User().ID)
}

func TestSendToMissingMember(t *testing.T) {
	room := NewRoomService(1)
	assert.False(t, room.Send("sid-x", Frame(`{}`)))
}

func TestBroadcastEmptyRoom(t *testing.T) {
	room := NewRoomService(1)
	res := room.Broadcast(Frame(`{}`), "")
	assert.Zero(t, res.SentTo)
	assert.Empty(t, res.Dropped)
}

func TestRoomManagerGetOrCreate(t *testing.T) {
	m := NewRoomManager()
	a := m.GetOrCreate(1)
	b := m.GetOrCreate(1)
	assert.Same(t, a, b)

	c := m.GetOrCreate(2)
	assert.NotSame(t, a, c)

	infos := m.List()
	assert.Len(t, infos, 2)

	m.StopRoom(1)
	_, ok := m.Get(1)
	assert.False(t, ok)
}

func TestCamelToDot(t *testing.T) {
	cases := map[string]string{
		"PlaylistChanged": "playlist.changed",
		"EventChanged":    "event.changed",
		"SessionChanged":  "session.changed",
		"Error":           "error",
	}
	for in, want := range cases {
		assert.Equal(t, want, CamelToDot(in))
	}
}
