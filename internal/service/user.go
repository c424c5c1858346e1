package service

import (
	"github.com/rs/zerolog/log"

	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/store"
)

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// Create registers a user and, as an explicit synchronous step, their
// private default "Favourites" playlist.
func (s *UserService) Create(username string) (*domain.User, error) {
	user, err := domain.NewUser(username)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveUser(user); err != nil {
		return nil, err
	}
	favourites := &domain.Playlist{
		Name:       "Favourites",
		Type:       domain.PlaylistDefault,
		AccessType: domain.AccessPrivate,
		AuthorID:   user.ID,
	}
	if err := s.store.SavePlaylist(favourites); err != nil {
		return nil, err
	}
	log.Info().Str("module", "service.user").Int64("user", int64(user.ID)).Msg("user created with default playlist")
	return user, nil
}

func (s *UserService) Get(id domain.UserID) (*domain.User, error) {
	return s.store.GetUser(id)
}
