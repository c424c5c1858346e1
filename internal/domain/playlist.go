package domain

type PlaylistID int64

type PlaylistType string

const (
	PlaylistDefault   PlaylistType = "default"   // default playlist, e.g. favourites
	PlaylistCustom    PlaylistType = "custom"    // custom playlist, created by user
	PlaylistTemporary PlaylistType = "temporary" // system playlist, not shown in API lists
)

type Playlist struct {
	ID         PlaylistID   `json:"id"`
	Name       string       `json:"name"`
	Type       PlaylistType `json:"type"`
	AccessType AccessType   `json:"access_type"`
	AuthorID   UserID       `json:"author_id"`
}

// PlaylistTrack defines playlist ordering; Order is a dense or sparse
// integer, ties broken by insertion.
type PlaylistTrack struct {
	PlaylistID PlaylistID `json:"playlist_id"`
	TrackID    TrackID    `json:"track_id"`
	Order      int        `json:"order"`
}

// PlaylistAccess grants membership to a private playlist.
type PlaylistAccess struct {
	UserID     UserID     `json:"user_id"`
	PlaylistID PlaylistID `json:"playlist_id"`
}
