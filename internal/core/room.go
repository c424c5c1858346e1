package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nickaroot/music-room/internal/domain"
)

// PublishResult reports delivery stats/backpressure to the dispatcher.
type PublishResult struct {
	SentTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only membership view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
}

// RoomService is the fan-out unit for one event. It owns the membership
// set but never touches adapter-owned transport resources.
type RoomService interface {
	EventID() domain.EventID
	MemberCount() int
	MembersSnapshot() []MemberDTO

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID)
	// Broadcast sends data to every member except exclude (empty means
	// none). Unreachable connections are dropped silently; broadcasting
	// to zero members is valid.
	Broadcast(data Frame, exclude SessionID) PublishResult
	// Send sends data to a single member connection, if still joined.
	Send(sid SessionID, data Frame) bool
}

// roomImpl is a threadsafe in-memory room.
type roomImpl struct {
	eventID domain.EventID
	mu      sync.RWMutex
	bySID   map[SessionID]MemberSession
}

func NewRoomService(eventID domain.EventID) RoomService {
	return &roomImpl{
		eventID: eventID,
		bySID:   make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) EventID() domain.EventID { return r.eventID }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

// AddMember is idempotent per connection.
func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[sid] = ms
	log.Info().Str("module", "core.room").Int64("event", int64(r.eventID)).Str("sid", string(sid)).Int64("user", int64(ms.User().ID)).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bySID, sid)
	log.Info().Str("module", "core.room").Int64("event", int64(r.eventID)).Str("sid", string(sid)).Msg("member removed")
}

func (r *roomImpl) Broadcast(data Frame, exclude SessionID) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, m := range r.bySID {
		if sid == exclude {
			continue
		}
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Int64("event", int64(r.eventID)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) Send(sid SessionID, data Frame) bool {
	r.mu.RLock()
	m, ok := r.bySID[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return m.Signal().TrySend(data) == nil
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.bySID))
	for _, ms := range r.bySID {
		u := ms.User()
		out = append(out, MemberDTO{ID: u.ID, Username: u.Username})
	}
	return out
}
