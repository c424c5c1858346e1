// Package store is the Domain Store boundary: CRUD over the music-room
// records, assumed transactional per single-entity write. Services depend
// on the interfaces below; MemoryStore is the in-process implementation.
package store

import "github.com/nickaroot/music-room/internal/domain"

type UserStore interface {
	GetUser(id domain.UserID) (*domain.User, error)
	SaveUser(u *domain.User) error
}

type EventStore interface {
	GetEvent(id domain.EventID) (*domain.Event, error)
	SaveEvent(e *domain.Event) error
	GetEventAccess(eventID domain.EventID, userID domain.UserID) (*domain.EventAccess, error)
	ListEventAccess(eventID domain.EventID) ([]domain.EventAccess, error)
	SaveEventAccess(a *domain.EventAccess) error
	DeleteEventAccess(eventID domain.EventID, userID domain.UserID) error
}

type PlaylistStore interface {
	GetPlaylist(id domain.PlaylistID) (*domain.Playlist, error)
	SavePlaylist(p *domain.Playlist) error
	// ListPlaylistTracks returns rows ordered by Order asc, insertion as tie-break.
	ListPlaylistTracks(id domain.PlaylistID) ([]domain.PlaylistTrack, error)
	SavePlaylistTrack(t domain.PlaylistTrack) error
	DeletePlaylistTrack(playlistID domain.PlaylistID, trackID domain.TrackID) error
	SavePlaylistAccess(a domain.PlaylistAccess) error
	HasPlaylistAccess(playlistID domain.PlaylistID, userID domain.UserID) (bool, error)
}

type TrackStore interface {
	GetTrack(id domain.TrackID) (*domain.Track, error)
	SaveTrack(t *domain.Track) error
	GetArtist(id domain.ArtistID) (*domain.Artist, error)
	SaveArtist(a *domain.Artist) error
	ListTrackFiles(trackID domain.TrackID) ([]domain.TrackFile, error)
	SaveTrackFile(f *domain.TrackFile) error
}

type PlayerStore interface {
	GetSession(id domain.PlayerSessionID) (*domain.PlayerSession, error)
	SaveSession(s *domain.PlayerSession) error
	DeleteSession(id domain.PlayerSessionID) error
	ListSessionsByAuthor(author domain.UserID) ([]domain.PlayerSession, error)
	GetSessionTrack(id domain.SessionTrackID) (*domain.SessionTrack, error)
	SaveSessionTrack(t *domain.SessionTrack) error
	DeleteSessionTrack(id domain.SessionTrackID) error
}

// Store aggregates every record family one process owns.
type Store interface {
	UserStore
	EventStore
	PlaylistStore
	TrackStore
	PlayerStore
}
