// Package service orchestrates Domain Store writes that implement one
// mutation each and returns the resulting denormalized views. Every
// mutation serializes on its entity key, so concurrent mutations to
// different entities proceed in parallel.
package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/store"
)

type EventService struct {
	store store.Store
	locks *store.KeyedLocks
}

func NewEventService(st store.Store, locks *store.KeyedLocks) *EventService {
	return &EventService{store: st, locks: locks}
}

// EventChange is a partial update; nil fields are left untouched.
type EventChange struct {
	Name       *string
	AccessType *domain.AccessType
}

func (s *EventService) Get(id domain.EventID) (*domain.Event, error) {
	return s.store.GetEvent(id)
}

func (s *EventService) View(id domain.EventID) (*EventView, error) {
	event, err := s.store.GetEvent(id)
	if err != nil {
		return nil, err
	}
	access, err := s.store.ListEventAccess(id)
	if err != nil {
		return nil, err
	}
	return &EventView{Event: *event, AccessUsers: access}, nil
}

func (s *EventService) Create(name string, author domain.UserID, accessType domain.AccessType, start, end time.Time) (*domain.Event, error) {
	if !accessType.Valid() {
		return nil, fmt.Errorf("access type %q: %w", accessType, domain.ErrValidation)
	}
	if _, err := s.store.GetUser(author); err != nil {
		return nil, err
	}
	event := &domain.Event{
		Name:       name,
		AuthorID:   author,
		AccessType: accessType,
		StartDate:  start,
		EndDate:    end,
	}
	if err := s.store.SaveEvent(event); err != nil {
		return nil, err
	}
	log.Info().Str("module", "service.event").Int64("event", int64(event.ID)).Msg("event created")
	return event, nil
}

func (s *EventService) Change(id domain.EventID, change EventChange) (*domain.Event, error) {
	unlock := s.locks.Lock(store.Key("event", int64(id)))
	defer unlock()

	event, err := s.store.GetEvent(id)
	if err != nil {
		return nil, err
	}
	if change.Name != nil {
		event.Name = *change.Name
	}
	if change.AccessType != nil {
		if !change.AccessType.Valid() {
			return nil, fmt.Errorf("access type %q: %w", *change.AccessType, domain.ErrValidation)
		}
		event.AccessType = *change.AccessType
	}
	if err := s.store.SaveEvent(event); err != nil {
		return nil, err
	}
	log.Info().Str("module", "service.event").Int64("event", int64(id)).Msg("event changed")
	return event, nil
}

// InviteUser creates an EventAccess row with mode guest if none exists.
// Idempotent: inviting an already invited user keeps their current mode.
func (s *EventService) InviteUser(id domain.EventID, userID domain.UserID) error {
	unlock := s.locks.Lock(store.Key("event", int64(id)))
	defer unlock()

	if _, err := s.store.GetEvent(id); err != nil {
		return err
	}
	if _, err := s.store.GetUser(userID); err != nil {
		return err
	}
	if _, err := s.store.GetEventAccess(id, userID); err == nil {
		return nil
	}
	access := &domain.EventAccess{UserID: userID, EventID: id, AccessMode: domain.AccessModeGuest}
	if err := s.store.SaveEventAccess(access); err != nil {
		return err
	}
	log.Info().Str("module", "service.event").Int64("event", int64(id)).Int64("user", int64(userID)).Msg("user invited")
	return nil
}

// RevokeUser deletes the EventAccess row if present.
func (s *EventService) RevokeUser(id domain.EventID, userID domain.UserID) error {
	unlock := s.locks.Lock(store.Key("event", int64(id)))
	defer unlock()

	if _, err := s.store.GetEvent(id); err != nil {
		return err
	}
	if _, err := s.store.GetUser(userID); err != nil {
		return err
	}
	if err := s.store.DeleteEventAccess(id, userID); err != nil {
		return err
	}
	log.Info().Str("module", "service.event").Int64("event", int64(id)).Int64("user", int64(userID)).Msg("user revoked")
	return nil
}

// ChangeUserAccessMode upserts the user's access mode on the event.
func (s *EventService) ChangeUserAccessMode(id domain.EventID, userID domain.UserID, mode domain.AccessMode) error {
	if !mode.Valid() {
		return fmt.Errorf("access mode %q: %w", mode, domain.ErrValidation)
	}

	unlock := s.locks.Lock(store.Key("event", int64(id)))
	defer unlock()

	if _, err := s.store.GetEvent(id); err != nil {
		return err
	}
	if _, err := s.store.GetUser(userID); err != nil {
		return err
	}
	access := &domain.EventAccess{UserID: userID, EventID: id, AccessMode: mode}
	if err := s.store.SaveEventAccess(access); err != nil {
		return err
	}
	log.Info().Str("module", "service.event").Int64("event", int64(id)).Int64("user", int64(userID)).Str("mode", string(mode)).Msg("access mode changed")
	return nil
}

// SetPlayerSession attaches a player session to the event, replacing any
// prior reference; at most one non-nil session per event at a time.
func (s *EventService) SetPlayerSession(id domain.EventID, sessionID domain.PlayerSessionID) error {
	unlock := s.locks.Lock(store.Key("event", int64(id)))
	defer unlock()

	event, err := s.store.GetEvent(id)
	if err != nil {
		return err
	}
	event.PlayerSessionID = &sessionID
	return s.store.SaveEvent(event)
}
