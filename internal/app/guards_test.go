package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/store"
)

func seedGuardEvent(t *testing.T, accessType domain.AccessType) (*store.MemoryStore, *Guards, *domain.Event) {
	t.Helper()
	st := store.NewMemoryStore()
	event := &domain.Event{Name: "party", AuthorID: 1, AccessType: accessType}
	require.NoError(t, st.SaveEvent(event))
	return st, NewGuards(st), event
}

func grant(t *testing.T, st *store.MemoryStore, event *domain.Event, userID domain.UserID, mode domain.AccessMode) {
	t.Helper()
	require.NoError(t, st.SaveEventAccess(&domain.EventAccess{UserID: userID, EventID: event.ID, AccessMode: mode}))
}

func TestGuardsMatrix(t *testing.T) {
	tests := []struct {
		name       string
		accessType domain.AccessType
		userID     domain.UserID
		mode       domain.AccessMode // empty means no access row
		accessed   bool
		staff      bool
		admin      bool
	}{
		{name: "author passes everything", accessType: domain.AccessPrivate, userID: 1, accessed: true, staff: true, admin: true},
		{name: "stranger on private event", accessType: domain.AccessPrivate, userID: 9},
		{name: "stranger on public event", accessType: domain.AccessPublic, userID: 9, accessed: true},
		{name: "guest", accessType: domain.AccessPrivate, userID: 2, mode: domain.AccessModeGuest, accessed: true},
		{name: "moderator", accessType: domain.AccessPrivate, userID: 3, mode: domain.AccessModeModerator, accessed: true, staff: true},
		{name: "administrator", accessType: domain.AccessPrivate, userID: 4, mode: domain.AccessModeAdministrator, accessed: true, staff: true, admin: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, guards, event := seedGuardEvent(t, tt.accessType)
			if tt.mode != "" {
				grant(t, st, event, tt.userID, tt.mode)
			}

			check := func(want bool, err error) {
				if want {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, domain.ErrAccessDenied)
				}
			}
			check(tt.accessed, guards.OnlyForAccessed(tt.userID, event))
			check(tt.staff, guards.OnlyForStaff(tt.userID, event))
			check(tt.admin, guards.OnlyForAdministrator(tt.userID, event))
		})
	}
}

func TestGuestOnPublicEventIsNotStaff(t *testing.T) {
	_, guards, event := seedGuardEvent(t, domain.AccessPublic)
	assert.NoError(t, guards.OnlyForAccessed(9, event))
	assert.ErrorIs(t, guards.OnlyForStaff(9, event), domain.ErrAccessDenied)
	assert.ErrorIs(t, guards.OnlyForAdministrator(9, event), domain.ErrAccessDenied)
}
