package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickaroot/music-room/internal/domain"
)

func TestAddTrackAppendsAtTail(t *testing.T) {
	f := newFixture(t)
	view, err := f.playlists.View(f.playlist.ID)
	require.NoError(t, err)
	require.Len(t, view.Tracks, 3)
	for i, pt := range view.Tracks {
		assert.Equal(t, i, pt.Order)
		assert.Equal(t, f.tracks[i].ID, pt.Track.ID)
	}
}

func TestAddTrackConflictLeavesListUnchanged(t *testing.T) {
	f := newFixture(t)

	_, err := f.playlists.AddTrack(f.playlist.ID, f.tracks[0].ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	view, err := f.playlists.View(f.playlist.ID)
	require.NoError(t, err)
	assert.Len(t, view.Tracks, 3)
}

func TestAddTrackUnknownTrack(t *testing.T) {
	f := newFixture(t)
	_, err := f.playlists.AddTrack(f.playlist.ID, domain.TrackID(404))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveTrackKeepsRemainingOrder(t *testing.T) {
	f := newFixture(t)

	view, err := f.playlists.RemoveTrack(f.playlist.ID, f.tracks[1].ID)
	require.NoError(t, err)
	require.Len(t, view.Tracks, 2)
	assert.Equal(t, f.tracks[0].ID, view.Tracks[0].Track.ID)
	assert.Equal(t, f.tracks[2].ID, view.Tracks[1].Track.ID)
}

func TestRemoveTrackNotInPlaylist(t *testing.T) {
	f := newFixture(t)

	_, err := f.playlists.RemoveTrack(f.playlist.ID, f.tracks[1].ID)
	require.NoError(t, err)
	_, err = f.playlists.RemoveTrack(f.playlist.ID, f.tracks[1].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReAddRemovedTrackGoesToTail(t *testing.T) {
	f := newFixture(t)

	_, err := f.playlists.RemoveTrack(f.playlist.ID, f.tracks[0].ID)
	require.NoError(t, err)
	view, err := f.playlists.AddTrack(f.playlist.ID, f.tracks[0].ID)
	require.NoError(t, err)

	require.Len(t, view.Tracks, 3)
	last := view.Tracks[len(view.Tracks)-1]
	assert.Equal(t, f.tracks[0].ID, last.Track.ID)
	assert.Equal(t, 3, last.Order, "new order is max existing + 1")
}

func TestUserCreateBundlesFavourites(t *testing.T) {
	f := newFixture(t)
	user, err := f.users.Create("carol")
	require.NoError(t, err)

	// The default playlist is created in the same call, not lazily.
	found := false
	for id := int64(1); id < 100; id++ {
		pl, err := f.store.GetPlaylist(domain.PlaylistID(id))
		if err != nil {
			continue
		}
		if pl.AuthorID == user.ID && pl.Type == domain.PlaylistDefault {
			found = true
			assert.Equal(t, "Favourites", pl.Name)
			assert.Equal(t, domain.AccessPrivate, pl.AccessType)
		}
	}
	assert.True(t, found)
}

func TestUserCreateRejectsBadUsername(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Create("")
	assert.Error(t, err)

	long := make([]byte, domain.MaxUsernameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.users.Create(string(long))
	assert.Error(t, err)
}

func TestGrantAccessAuthorOnlyAndIdempotent(t *testing.T) {
	f := newFixture(t)

	err := f.playlists.GrantAccess(f.playlist.ID, f.bob.ID, f.bob.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	ok, err := f.playlists.CanEdit(f.playlist.ID, f.bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.playlists.GrantAccess(f.playlist.ID, f.alice.ID, f.bob.ID))
	require.NoError(t, f.playlists.GrantAccess(f.playlist.ID, f.alice.ID, f.bob.ID))

	ok, err = f.playlists.CanEdit(f.playlist.ID, f.bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.playlists.CanEdit(f.playlist.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantAccessUnknownUser(t *testing.T) {
	f := newFixture(t)
	err := f.playlists.GrantAccess(f.playlist.ID, f.alice.ID, domain.UserID(999))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
