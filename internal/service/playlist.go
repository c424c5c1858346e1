package service

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/store"
)

type PlaylistService struct {
	store store.Store
	locks *store.KeyedLocks
}

func NewPlaylistService(st store.Store, locks *store.KeyedLocks) *PlaylistService {
	return &PlaylistService{store: st, locks: locks}
}

func (s *PlaylistService) Create(name string, author domain.UserID, typ domain.PlaylistType, accessType domain.AccessType) (*domain.Playlist, error) {
	if _, err := s.store.GetUser(author); err != nil {
		return nil, err
	}
	playlist := &domain.Playlist{
		Name:       name,
		Type:       typ,
		AccessType: accessType,
		AuthorID:   author,
	}
	if err := s.store.SavePlaylist(playlist); err != nil {
		return nil, err
	}
	log.Info().Str("module", "service.playlist").Int64("playlist", int64(playlist.ID)).Msg("playlist created")
	return playlist, nil
}

// GrantAccess lets the author share a playlist with another user.
// Granting twice is a no-op.
func (s *PlaylistService) GrantAccess(id domain.PlaylistID, granter, userID domain.UserID) error {
	unlock := s.locks.Lock(store.Key("playlist", int64(id)))
	defer unlock()

	playlist, err := s.store.GetPlaylist(id)
	if err != nil {
		return err
	}
	if playlist.AuthorID != granter {
		return fmt.Errorf("user %d is not the playlist author: %w", granter, domain.ErrAccessDenied)
	}
	if _, err := s.store.GetUser(userID); err != nil {
		return err
	}
	granted, err := s.store.HasPlaylistAccess(id, userID)
	if err != nil {
		return err
	}
	if granted {
		return nil
	}
	if err := s.store.SavePlaylistAccess(domain.PlaylistAccess{PlaylistID: id, UserID: userID}); err != nil {
		return err
	}
	log.Info().Str("module", "service.playlist").Int64("playlist", int64(id)).Int64("user", int64(userID)).Msg("playlist shared")
	return nil
}

// CanEdit reports whether the user is the author or holds an access grant.
func (s *PlaylistService) CanEdit(id domain.PlaylistID, userID domain.UserID) (bool, error) {
	playlist, err := s.store.GetPlaylist(id)
	if err != nil {
		return false, err
	}
	if playlist.AuthorID == userID {
		return true, nil
	}
	return s.store.HasPlaylistAccess(id, userID)
}

// AddTrack appends the track at the end of the current ordering.
// Adding a track already present is a conflict and leaves the list unchanged.
func (s *PlaylistService) AddTrack(id domain.PlaylistID, trackID domain.TrackID) (*PlaylistView, error) {
	unlock := s.locks.Lock(store.Key("playlist", int64(id)))
	defer unlock()

	if _, err := s.store.GetPlaylist(id); err != nil {
		return nil, err
	}
	if _, err := s.store.GetTrack(trackID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListPlaylistTracks(id)
	if err != nil {
		return nil, err
	}
	order := 0
	for _, row := range rows {
		if row.TrackID == trackID {
			return nil, fmt.Errorf("track %d already in playlist %d: %w", trackID, id, domain.ErrConflict)
		}
		if row.Order >= order {
			order = row.Order + 1
		}
	}
	row := domain.PlaylistTrack{PlaylistID: id, TrackID: trackID, Order: order}
	if err := s.store.SavePlaylistTrack(row); err != nil {
		return nil, err
	}
	log.Info().Str("module", "service.playlist").Int64("playlist", int64(id)).Int64("track", int64(trackID)).Int("order", order).Msg("track added")
	return s.viewLocked(id)
}

// RemoveTrack deletes the matching row; absent track is a not-found error.
func (s *PlaylistService) RemoveTrack(id domain.PlaylistID, trackID domain.TrackID) (*PlaylistView, error) {
	unlock := s.locks.Lock(store.Key("playlist", int64(id)))
	defer unlock()

	if _, err := s.store.GetPlaylist(id); err != nil {
		return nil, err
	}
	if err := s.store.DeletePlaylistTrack(id, trackID); err != nil {
		return nil, err
	}
	log.Info().Str("module", "service.playlist").Int64("playlist", int64(id)).Int64("track", int64(trackID)).Msg("track removed")
	return s.viewLocked(id)
}

// View returns the playlist plus its ordered tracks for serialization.
func (s *PlaylistService) View(id domain.PlaylistID) (*PlaylistView, error) {
	return s.viewLocked(id)
}

func (s *PlaylistService) viewLocked(id domain.PlaylistID) (*PlaylistView, error) {
	playlist, err := s.store.GetPlaylist(id)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListPlaylistTracks(id)
	if err != nil {
		return nil, err
	}
	view := &PlaylistView{Playlist: *playlist, Tracks: make([]PlaylistTrackView, 0, len(rows))}
	for _, row := range rows {
		tv, err := s.trackView(row.TrackID)
		if err != nil {
			return nil, err
		}
		view.Tracks = append(view.Tracks, PlaylistTrackView{Track: tv, Order: row.Order})
	}
	return view, nil
}

func (s *PlaylistService) trackView(id domain.TrackID) (TrackView, error) {
	track, err := s.store.GetTrack(id)
	if err != nil {
		return TrackView{}, err
	}
	tv := TrackView{ID: track.ID, Name: track.Name}
	if artist, err := s.store.GetArtist(track.ArtistID); err == nil {
		tv.Artist = artist.Name
	}
	return tv, nil
}
