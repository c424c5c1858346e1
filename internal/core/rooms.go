package core

import (
	"sync"

	"github.com/nickaroot/music-room/internal/domain"
)

type RoomInfo struct {
	EventID     domain.EventID `json:"event_id"`
	MemberCount int            `json:"member_count"`
}

// RoomManager maps event ids to live rooms. Rooms are created lazily on
// first join and carry no persistent state.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.EventID]RoomService
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.EventID]RoomService)}
}

func (m *RoomManager) GetOrCreate(eventID domain.EventID) RoomService {
	m.mu.RLock()
	room, ok := m.rooms[eventID]
	m.mu.RUnlock()
	if ok {
		return room
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok = m.rooms[eventID]; ok {
		return room
	}
	room = NewRoomService(eventID)
	m.rooms[eventID] = room
	return room
}

func (m *RoomManager) Get(eventID domain.EventID) (RoomService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[eventID]
	return room, ok
}

func (m *RoomManager) List() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, RoomInfo{EventID: id, MemberCount: r.MemberCount()})
	}
	return out
}

func (m *RoomManager) StopRoom(eventID domain.EventID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, eventID)
}
