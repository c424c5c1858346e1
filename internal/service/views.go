package service

import "github.com/nickaroot/music-room/internal/domain"

// Denormalized views returned by services and serialized into response
// payloads. The realtime and REST surfaces share these shapes.

type TrackView struct {
	ID     domain.TrackID `json:"id"`
	Name   string         `json:"name"`
	Artist string         `json:"artist,omitempty"`
}

type PlaylistTrackView struct {
	Track TrackView `json:"track"`
	Order int       `json:"order"`
}

type PlaylistView struct {
	Playlist domain.Playlist     `json:"playlist"`
	Tracks   []PlaylistTrackView `json:"tracks"`
}

type EventView struct {
	Event       domain.Event         `json:"event"`
	AccessUsers []domain.EventAccess `json:"access_users"`
}

type SessionTrackView struct {
	ID         domain.SessionTrackID `json:"id"`
	State      domain.TrackState     `json:"state"`
	Track      TrackView             `json:"track"`
	VotesCount int                   `json:"votes_count"`
	Progress   float64               `json:"progress"`
	Order      int                   `json:"order"`
}

type SessionView struct {
	ID         domain.PlayerSessionID `json:"id"`
	PlaylistID domain.PlaylistID      `json:"playlist_id"`
	AuthorID   domain.UserID          `json:"author_id"`
	Mode       domain.PlayerMode      `json:"mode"`
	// TrackQueue is ordered for presentation: votes desc, order asc.
	TrackQueue []SessionTrackView `json:"track_queue"`
}
