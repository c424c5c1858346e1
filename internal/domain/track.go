package domain

type (
	ArtistID    int64
	TrackID     int64
	TrackFileID int64
)

type Artist struct {
	ID   ArtistID `json:"id"`
	Name string   `json:"name"`
}

type Track struct {
	ID       TrackID  `json:"id"`
	Name     string   `json:"name"`
	ArtistID ArtistID `json:"artist_id"`
}

type TrackExtension string

const (
	ExtensionMP3  TrackExtension = "mp3"
	ExtensionFLAC TrackExtension = "flac"
)

// TrackFile carries extension and duration. Both are populated by the
// external transcoding pipeline and are read-only here.
type TrackFile struct {
	ID        TrackFileID    `json:"id"`
	TrackID   TrackID        `json:"track_id"`
	Extension TrackExtension `json:"extension"`
	Duration  float64        `json:"duration"` // seconds
}
