package services

import (
	"chat-hub/domain"
	apperrors "chat-hub/errors"
	"chat-hub/repositories"

	"github.com/samber/lo"
)

// IDirectoryService is the read-only view over persisted users and channels.
// It owns no state and never mutates anything.
type IDirectoryService interface {
	GetUser(id string) (domain.Profile, error)
	GetChannel(id string) (domain.ChannelView, error)
	GetAllChannels() ([]domain.ChannelView, error)
}

type DirectoryService struct {
	users    repositories.IUserRepository
	channels repositories.IChannelRepository
}

func NewDirectoryService(users repositories.IUserRepository,
	channels repositories.IChannelRepository) IDirectoryService {
	return &DirectoryService{users: users, channels: channels}
}

func (s *DirectoryService) GetUser(id string) (domain.Profile, error) {
	user, err := s.users.GetUser(id)
	if err != nil {
		return domain.Profile{}, err
	}
	return user.Profile(), nil
}

// GetChannel treats a tombstoned channel as a miss: dead channels are never
// returned as live data.
func (s *DirectoryService) GetChannel(id string) (domain.ChannelView, error) {
	channel, err := s.channels.GetChannel(id)
	if err != nil {
		return domain.ChannelView{}, err
	}
	if !channel.Alive {
		return domain.ChannelView{}, apperrors.NotFoundf("channel %s", id)
	}
	return channel.View(), nil
}

// GetAllChannels lists discoverable channels: alive and public, ordered by
// name ascending.
func (s *DirectoryService) GetAllChannels() ([]domain.ChannelView, error) {
	channels, err := s.channels.GetAllChannels()
	if err != nil {
		return nil, err
	}
	public := lo.Filter(channels, func(c domain.Channel, _ int) bool {
		return c.Public
	})
	return lo.Map(public, func(c domain.Channel, _ int) domain.ChannelView {
		return c.View()
	}), nil
}
