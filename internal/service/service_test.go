package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/store"
)

// fixture seeds a memory store with two users, one artist and three
// tracks (10s, 20s, 0s/unknown duration) on one playlist.
type fixture struct {
	store     *store.MemoryStore
	users     *UserService
	events    *EventService
	playlists *PlaylistService
	players   *PlayerService

	alice    *domain.User
	bob      *domain.User
	playlist *domain.Playlist
	tracks   []*domain.Track
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	locks := store.NewKeyedLocks()

	f := &fixture{
		store:     st,
		users:     NewUserService(st),
		events:    NewEventService(st, locks),
		playlists: NewPlaylistService(st, locks),
		players:   NewPlayerService(st, locks),
	}

	var err error
	f.alice, err = f.users.Create("alice")
	require.NoError(t, err)
	f.bob, err = f.users.Create("bob")
	require.NoError(t, err)

	artist := &domain.Artist{Name: "Daft Punk"}
	require.NoError(t, st.SaveArtist(artist))

	durations := []float64{10, 20, 0}
	names := []string{"One More Time", "Aerodynamic", "Digital Love"}
	for i, name := range names {
		track := &domain.Track{Name: name, ArtistID: artist.ID}
		require.NoError(t, st.SaveTrack(track))
		if durations[i] > 0 {
			file := &domain.TrackFile{TrackID: track.ID, Extension: domain.ExtensionMP3, Duration: durations[i]}
			require.NoError(t, st.SaveTrackFile(file))
		}
		f.tracks = append(f.tracks, track)
	}

	f.playlist, err = f.playlists.Create("Discovery", f.alice.ID, domain.PlaylistCustom, domain.AccessPublic)
	require.NoError(t, err)
	for _, track := range f.tracks {
		_, err = f.playlists.AddTrack(f.playlist.ID, track.ID)
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) newSession(t *testing.T, mode domain.PlayerMode) *domain.PlayerSession {
	t.Helper()
	sess, err := f.players.CreateSession(f.playlist.ID, f.alice.ID, mode)
	require.NoError(t, err)
	return sess
}
