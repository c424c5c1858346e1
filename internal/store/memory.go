package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nickaroot/music-room/internal/domain"
)

// MemoryStore is a threadsafe in-process Store. Every Get returns a copy,
// every Save stores a copy, so callers never alias store-owned records.
// State is rebuilt from zero on process restart.
type MemoryStore struct {
	mu sync.RWMutex

	users          map[domain.UserID]domain.User
	events         map[domain.EventID]domain.Event
	eventAccess    map[domain.EventID]map[domain.UserID]domain.EventAccess
	playlists      map[domain.PlaylistID]domain.Playlist
	playlistTracks map[domain.PlaylistID][]domain.PlaylistTrack
	playlistAccess map[domain.PlaylistID]map[domain.UserID]bool
	artists        map[domain.ArtistID]domain.Artist
	tracks         map[domain.TrackID]domain.Track
	trackFiles     map[domain.TrackID][]domain.TrackFile
	sessions       map[domain.PlayerSessionID]domain.PlayerSession
	sessionTracks  map[domain.SessionTrackID]domain.SessionTrack

	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:          make(map[domain.UserID]domain.User),
		events:         make(map[domain.EventID]domain.Event),
		eventAccess:    make(map[domain.EventID]map[domain.UserID]domain.EventAccess),
		playlists:      make(map[domain.PlaylistID]domain.Playlist),
		playlistTracks: make(map[domain.PlaylistID][]domain.PlaylistTrack),
		playlistAccess: make(map[domain.PlaylistID]map[domain.UserID]bool),
		artists:        make(map[domain.ArtistID]domain.Artist),
		tracks:         make(map[domain.TrackID]domain.Track),
		trackFiles:     make(map[domain.TrackID][]domain.TrackFile),
		sessions:       make(map[domain.PlayerSessionID]domain.PlayerSession),
		sessionTracks:  make(map[domain.SessionTrackID]domain.SessionTrack),
	}
}

// nextIDLocked hands out process-wide unique ids. Callers hold mu.
func (s *MemoryStore) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

// ---- users ----

func (s *MemoryStore) GetUser(id domain.UserID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (s *MemoryStore) SaveUser(u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = domain.UserID(s.nextIDLocked())
	}
	s.users[u.ID] = *u
	return nil
}

// ---- events ----

func (s *MemoryStore) GetEvent(id domain.EventID) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", id, domain.ErrNotFound)
	}
	if e.PlayerSessionID != nil {
		sid := *e.PlayerSessionID
		e.PlayerSessionID = &sid
	}
	return &e, nil
}

func (s *MemoryStore) SaveEvent(e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = domain.EventID(s.nextIDLocked())
	}
	cp := *e
	if e.PlayerSessionID != nil {
		sid := *e.PlayerSessionID
		cp.PlayerSessionID = &sid
	}
	s.events[e.ID] = cp
	return nil
}

func (s *MemoryStore) GetEventAccess(eventID domain.EventID, userID domain.UserID) (*domain.EventAccess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.eventAccess[eventID][userID]
	if !ok {
		return nil, fmt.Errorf("event %d access for user %d: %w", eventID, userID, domain.ErrNotFound)
	}
	return &a, nil
}

func (s *MemoryStore) ListEventAccess(eventID domain.EventID) ([]domain.EventAccess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]domain.EventAccess, 0, len(s.eventAccess[eventID]))
	for _, a := range s.eventAccess[eventID] {
		rows = append(rows, a)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows, nil
}

func (s *MemoryStore) SaveEventAccess(a *domain.EventAccess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.eventAccess[a.EventID]
	if !ok {
		byUser = make(map[domain.UserID]domain.EventAccess)
		s.eventAccess[a.EventID] = byUser
	}
	byUser[a.UserID] = *a
	return nil
}

func (s *MemoryStore) DeleteEventAccess(eventID domain.EventID, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.eventAccess[eventID][userID]; !ok {
		return fmt.Errorf("event %d access for user %d: %w", eventID, userID, domain.ErrNotFound)
	}
	delete(s.eventAccess[eventID], userID)
	return nil
}

// ---- playlists ----

func (s *MemoryStore) GetPlaylist(id domain.PlaylistID) (*domain.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.playlists[id]
	if !ok {
		return nil, fmt.Errorf("playlist %d: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *MemoryStore) SavePlaylist(p *domain.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = domain.PlaylistID(s.nextIDLocked())
	}
	s.playlists[p.ID] = *p
	return nil
}

func (s *MemoryStore) ListPlaylistTracks(id domain.PlaylistID) ([]domain.PlaylistTrack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]domain.PlaylistTrack, len(s.playlistTracks[id]))
	copy(rows, s.playlistTracks[id])
	// Stable keeps insertion order for equal Order values.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Order < rows[j].Order })
	return rows, nil
}

func (s *MemoryStore) SavePlaylistTrack(t domain.PlaylistTrack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.playlistTracks[t.PlaylistID]
	for i, row := range rows {
		if row.TrackID == t.TrackID {
			rows[i] = t
			return nil
		}
	}
	s.playlistTracks[t.PlaylistID] = append(rows, t)
	return nil
}

func (s *MemoryStore) DeletePlaylistTrack(playlistID domain.PlaylistID, trackID domain.TrackID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.playlistTracks[playlistID]
	for i, row := range rows {
		if row.TrackID == trackID {
			s.playlistTracks[playlistID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("playlist %d track %d: %w", playlistID, trackID, domain.ErrNotFound)
}

func (s *MemoryStore) SavePlaylistAccess(a domain.PlaylistAccess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.playlistAccess[a.PlaylistID]
	if !ok {
		byUser = make(map[domain.UserID]bool)
		s.playlistAccess[a.PlaylistID] = byUser
	}
	byUser[a.UserID] = true
	return nil
}

func (s *MemoryStore) HasPlaylistAccess(playlistID domain.PlaylistID, userID domain.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playlistAccess[playlistID][userID], nil
}

// ---- tracks ----

func (s *MemoryStore) GetTrack(id domain.TrackID) (*domain.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tracks[id]
	if !ok {
		return nil, fmt.Errorf("track %d: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

func (s *MemoryStore) SaveTrack(t *domain.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = domain.TrackID(s.nextIDLocked())
	}
	s.tracks[t.ID] = *t
	return nil
}

func (s *MemoryStore) GetArtist(id domain.ArtistID) (*domain.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artists[id]
	if !ok {
		return nil, fmt.Errorf("artist %d: %w", id, domain.ErrNotFound)
	}
	return &a, nil
}

func (s *MemoryStore) SaveArtist(a *domain.Artist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = domain.ArtistID(s.nextIDLocked())
	}
	s.artists[a.ID] = *a
	return nil
}

func (s *MemoryStore) ListTrackFiles(trackID domain.TrackID) ([]domain.TrackFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]domain.TrackFile, len(s.trackFiles[trackID]))
	copy(rows, s.trackFiles[trackID])
	return rows, nil
}

func (s *MemoryStore) SaveTrackFile(f *domain.TrackFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == 0 {
		f.ID = domain.TrackFileID(s.nextIDLocked())
	}
	rows := s.trackFiles[f.TrackID]
	for i, row := range rows {
		if row.ID == f.ID {
			rows[i] = *f
			return nil
		}
	}
	s.trackFiles[f.TrackID] = append(rows, *f)
	return nil
}

// ---- player sessions ----

func copySession(src domain.PlayerSession) domain.PlayerSession {
	cp := src
	cp.TrackQueue = make([]domain.SessionTrackID, len(src.TrackQueue))
	copy(cp.TrackQueue, src.TrackQueue)
	return cp
}

func copySessionTrack(src domain.SessionTrack) domain.SessionTrack {
	cp := src
	cp.Votes = make(map[domain.UserID]bool, len(src.Votes))
	for uid := range src.Votes {
		cp.Votes[uid] = true
	}
	return cp
}

func (s *MemoryStore) GetSession(id domain.PlayerSessionID) (*domain.PlayerSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("player session %d: %w", id, domain.ErrNotFound)
	}
	cp := copySession(sess)
	return &cp, nil
}

func (s *MemoryStore) SaveSession(sess *domain.PlayerSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == 0 {
		sess.ID = domain.PlayerSessionID(s.nextIDLocked())
	}
	s.sessions[sess.ID] = copySession(*sess)
	return nil
}

func (s *MemoryStore) DeleteSession(id domain.PlayerSessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) ListSessionsByAuthor(author domain.UserID) ([]domain.PlayerSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PlayerSession
	for _, sess := range s.sessions {
		if sess.AuthorID == author {
			out = append(out, copySession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetSessionTrack(id domain.SessionTrackID) (*domain.SessionTrack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.sessionTracks[id]
	if !ok {
		return nil, fmt.Errorf("session track %d: %w", id, domain.ErrNotFound)
	}
	cp := copySessionTrack(t)
	return &cp, nil
}

func (s *MemoryStore) SaveSessionTrack(t *domain.SessionTrack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = domain.SessionTrackID(s.nextIDLocked())
	}
	if t.Votes == nil {
		t.Votes = make(map[domain.UserID]bool)
	}
	s.sessionTracks[t.ID] = copySessionTrack(*t)
	return nil
}

func (s *MemoryStore) DeleteSessionTrack(id domain.SessionTrackID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessionTracks, id)
	return nil
}
