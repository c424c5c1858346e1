package app

import (
	"errors"
	"fmt"

	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/store"
)

// Guard checks the acting user against a resolved event. Guards compose
// left-to-right; the first failure short-circuits with an access error
// before any mutation runs.
type Guard func(userID domain.UserID, event *domain.Event) error

// Guards resolves EventAccess rows for guard evaluation. The event's
// author passes every guard implicitly.
type Guards struct {
	store store.EventStore
}

func NewGuards(st store.EventStore) *Guards {
	return &Guards{store: st}
}

func (g *Guards) accessMode(userID domain.UserID, event *domain.Event) (domain.AccessMode, bool, error) {
	access, err := g.store.GetEventAccess(event.ID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return access.AccessMode, true, nil
}

// OnlyForAccessed: the author, any invited user, or anyone when the event
// is public.
func (g *Guards) OnlyForAccessed(userID domain.UserID, event *domain.Event) error {
	if event.AuthorID == userID || event.AccessType == domain.AccessPublic {
		return nil
	}
	if _, ok, err := g.accessMode(userID, event); err != nil {
		return err
	} else if ok {
		return nil
	}
	return fmt.Errorf("user %d has no access to event %d: %w", userID, event.ID, domain.ErrAccessDenied)
}

// OnlyForStaff: the author, moderators and administrators.
func (g *Guards) OnlyForStaff(userID domain.UserID, event *domain.Event) error {
	if event.AuthorID == userID {
		return nil
	}
	mode, ok, err := g.accessMode(userID, event)
	if err != nil {
		return err
	}
	if ok && (mode == domain.AccessModeModerator || mode == domain.AccessModeAdministrator) {
		return nil
	}
	return fmt.Errorf("user %d is not staff of event %d: %w", userID, event.ID, domain.ErrAccessDenied)
}

// OnlyForAdministrator: the author and administrators.
func (g *Guards) OnlyForAdministrator(userID domain.UserID, event *domain.Event) error {
	if event.AuthorID == userID {
		return nil
	}
	mode, ok, err := g.accessMode(userID, event)
	if err != nil {
		return err
	}
	if ok && mode == domain.AccessModeAdministrator {
		return nil
	}
	return fmt.Errorf("user %d is not an administrator of event %d: %w", userID, event.ID, domain.ErrAccessDenied)
}
