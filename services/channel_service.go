package services

import (
	"log/slog"
	"time"

	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	apperrors "chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/runtime"

	"github.com/google/uuid"
)

type IChannelService interface {
	CreateChannel(ownerID, name, description string, public bool) (domain.ChannelView, error)
	DeleteChannel(callerID, channelID string) error
}

// ChannelService owns the Active → Deleted lifecycle. Deletion is terminal
// and cascades membership cleanup to every current member.
type ChannelService struct {
	users       repositories.IUserRepository
	channels    repositories.IChannelRepository
	memberships repositories.IMembershipRepository
	registry    contract.IRegistry
	locks       *runtime.EntityLocks
	rules       auth.Rules
	log         *slog.Logger
}

func NewChannelService(users repositories.IUserRepository,
	channels repositories.IChannelRepository,
	memberships repositories.IMembershipRepository, registry contract.IRegistry,
	locks *runtime.EntityLocks, rules auth.Rules, log *slog.Logger) IChannelService {
	return &ChannelService{
		users:       users,
		channels:    channels,
		memberships: memberships,
		registry:    registry,
		locks:       locks,
		rules:       rules,
		log:         log,
	}
}

// CreateChannel creates an Active channel with the caller as owner and sole
// member, then announces it on the catalog room and the owner's own room.
func (s *ChannelService) CreateChannel(ownerID, name, description string, public bool) (domain.ChannelView, error) {
	if err := s.rules.ValidateChannelName(name); err != nil {
		return domain.ChannelView{}, err
	}
	if err := s.rules.ValidateDescription(description); err != nil {
		return domain.ChannelView{}, err
	}

	unlock := s.locks.Lock(ownerID)
	defer unlock()

	owner, err := s.users.GetUser(ownerID)
	if err != nil {
		return domain.ChannelView{}, err
	}

	channel := domain.Channel{
		ID:          uuid.NewString(),
		Owner:       ownerID,
		Name:        name,
		Description: description,
		Public:      public,
		Members:     domain.NewIDSet(ownerID),
		Banned:      domain.NewIDSet(),
		Officers:    domain.NewIDSet(),
		Alive:       true,
		CreatedAt:   time.Now().UTC(),
	}
	owner.Channels.Add(channel.ID)
	// Both records land in one transaction: a failure applies neither side.
	if err := s.memberships.SaveUserAndChannel(owner, channel); err != nil {
		return domain.ChannelView{}, err
	}

	s.registry.Broadcast(domain.CatalogRoom, event.ChannelUpdated{Channel: channel.View()})
	s.registry.Broadcast(domain.UserRoom(ownerID), event.UserUpdated{Profile: owner.Profile()})
	return channel.View(), nil
}

// DeleteChannel tombstones the channel, then removes it from every current
// member's channel set. The tombstone is persisted before the cascade, so a
// join racing the delete observes the dead channel and fails; no member can
// slip in after the snapshot below is taken.
func (s *ChannelService) DeleteChannel(callerID, channelID string) error {
	unlock := s.locks.Lock(channelID)
	channel, err := s.channels.GetChannel(channelID)
	if err != nil {
		unlock()
		return err
	}
	if !channel.Alive {
		unlock()
		return apperrors.ErrChannelTombstoned
	}
	if channel.Owner != callerID {
		unlock()
		return apperrors.Permissionf("only the owner can delete channel %s", channelID)
	}

	channel.Alive = false
	if err := s.channels.SaveChannel(channel); err != nil {
		unlock()
		return err
	}
	members := channel.Members.Values()
	unlock()

	for _, memberID := range members {
		if err := s.removeFromUser(memberID, channelID); err != nil {
			s.log.Error("cascade cleanup failed for member",
				"channel_id", channelID, "user_id", memberID, "error", err)
		}
	}

	evt := event.ChannelUpdated{Channel: channel.View()}
	s.registry.Broadcast(domain.ChannelRoom(channelID), evt)
	s.registry.Broadcast(domain.CatalogRoom, evt)
	return nil
}

func (s *ChannelService) removeFromUser(userID, channelID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.users.GetUser(userID)
	if err != nil {
		return err
	}
	if !user.Channels.Remove(channelID) {
		return nil
	}
	if err := s.users.SaveUser(user); err != nil {
		return err
	}
	s.registry.Broadcast(domain.UserRoom(userID), event.UserUpdated{Profile: user.Profile()})
	return nil
}
