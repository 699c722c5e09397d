package services

import (
	"log/slog"

	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	apperrors "chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/runtime"
)

type IMembershipService interface {
	JoinChannel(userID, channelID string) error
	LeaveChannel(userID, channelID string) error
	EditSelf(userID string, avatar, handle *string) (domain.Profile, error)
	EditChannel(callerID, channelID string, avatar, description, name *string) error
}

// MembershipService serializes every user/channel mutation behind per-entity
// locks, spanning the whole read-modify-write-broadcast sequence. The
// bidirectional invariant (channel in user's set ⟺ user in channel's set)
// holds outside the locked section.
type MembershipService struct {
	users       repositories.IUserRepository
	channels    repositories.IChannelRepository
	memberships repositories.IMembershipRepository
	registry    contract.IRegistry
	locks       *runtime.EntityLocks
	rules       auth.Rules
	log         *slog.Logger
}

func NewMembershipService(users repositories.IUserRepository,
	channels repositories.IChannelRepository,
	memberships repositories.IMembershipRepository, registry contract.IRegistry,
	locks *runtime.EntityLocks, rules auth.Rules, log *slog.Logger) IMembershipService {
	return &MembershipService{
		users:       users,
		channels:    channels,
		memberships: memberships,
		registry:    registry,
		locks:       locks,
		rules:       rules,
		log:         log,
	}
}

// JoinChannel adds the caller to the channel and the channel to the caller,
// as one serialized unit. Joining twice leaves both sets unchanged and is
// not an error.
func (s *MembershipService) JoinChannel(userID, channelID string) error {
	unlock := s.locks.Lock(userID, channelID)
	defer unlock()

	channel, err := s.channels.GetChannel(channelID)
	if err != nil {
		return err
	}
	if !channel.Alive {
		return apperrors.ErrChannelTombstoned
	}
	if channel.Banned.Has(userID) {
		return apperrors.Permissionf("banned from channel %s", channelID)
	}

	user, err := s.users.GetUser(userID)
	if err != nil {
		return err
	}

	channel.Members.Add(userID)
	user.Channels.Add(channelID)

	// Both records land in one transaction: a failure applies neither side.
	if err := s.memberships.SaveUserAndChannel(user, channel); err != nil {
		return err
	}

	s.registry.Broadcast(domain.UserRoom(userID), event.UserUpdated{Profile: user.Profile()})
	s.broadcastChannel(channel)
	return nil
}

// LeaveChannel removes membership from both sides. The owner can never
// leave; leaving twice reports non-membership without touching state.
func (s *MembershipService) LeaveChannel(userID, channelID string) error {
	unlock := s.locks.Lock(userID, channelID)
	defer unlock()

	channel, err := s.channels.GetChannel(channelID)
	if err != nil {
		return err
	}
	if !channel.Alive {
		return apperrors.NotFoundf("channel %s", channelID)
	}
	if channel.Owner == userID {
		return apperrors.ErrOwnerCannotLeave
	}

	user, err := s.users.GetUser(userID)
	if err != nil {
		return err
	}

	removedFromChannel := channel.Members.Remove(userID)
	removedFromUser := user.Channels.Remove(channelID)
	if !removedFromChannel && !removedFromUser {
		return apperrors.NotFoundf("not a member of channel %s", channelID)
	}

	if err := s.memberships.SaveUserAndChannel(user, channel); err != nil {
		return err
	}

	s.registry.Broadcast(domain.UserRoom(userID), event.UserUpdated{Profile: user.Profile()})
	s.broadcastChannel(channel)
	return nil
}

// EditSelf applies only the fields that pass validation; invalid fields are
// dropped, not fatal. The updated profile goes to the caller's own room.
func (s *MembershipService) EditSelf(userID string, avatar, handle *string) (domain.Profile, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.users.GetUser(userID)
	if err != nil {
		return domain.Profile{}, err
	}

	if avatar != nil {
		if err := s.rules.ValidateAvatar(*avatar); err != nil {
			s.log.Debug("dropping invalid avatar", "user_id", userID, "error", err)
		} else {
			user.Avatar = *avatar
		}
	}
	if handle != nil {
		if err := s.rules.ValidateHandle(*handle); err != nil {
			s.log.Debug("dropping invalid handle", "user_id", userID, "error", err)
		} else {
			user.Handle = *handle
		}
	}

	if err := s.users.SaveUser(user); err != nil {
		return domain.Profile{}, err
	}

	s.registry.Broadcast(domain.UserRoom(userID), event.UserUpdated{Profile: user.Profile()})
	return user.Profile(), nil
}

// EditChannel is owner-gated; a non-owner gets an explicit permission error
// rather than a silent drop. Invalid fields are dropped like in EditSelf.
func (s *MembershipService) EditChannel(callerID, channelID string, avatar, description, name *string) error {
	unlock := s.locks.Lock(channelID)
	defer unlock()

	channel, err := s.channels.GetChannel(channelID)
	if err != nil {
		return err
	}
	if !channel.Alive {
		return apperrors.ErrChannelTombstoned
	}
	if channel.Owner != callerID {
		return apperrors.Permissionf("only the owner can edit channel %s", channelID)
	}

	if avatar != nil {
		if err := s.rules.ValidateAvatar(*avatar); err != nil {
			s.log.Debug("dropping invalid channel avatar", "channel_id", channelID, "error", err)
		} else {
			channel.Avatar = *avatar
		}
	}
	if description != nil {
		if err := s.rules.ValidateDescription(*description); err != nil {
			s.log.Debug("dropping invalid description", "channel_id", channelID, "error", err)
		} else {
			channel.Description = *description
		}
	}
	if name != nil {
		if err := s.rules.ValidateChannelName(*name); err != nil {
			s.log.Debug("dropping invalid channel name", "channel_id", channelID, "error", err)
		} else {
			channel.Name = *name
		}
	}

	if err := s.channels.SaveChannel(channel); err != nil {
		return err
	}

	s.broadcastChannel(channel)
	return nil
}

func (s *MembershipService) broadcastChannel(channel domain.Channel) {
	evt := event.ChannelUpdated{Channel: channel.View()}
	s.registry.Broadcast(domain.ChannelRoom(channel.ID), evt)
	s.registry.Broadcast(domain.CatalogRoom, evt)
}
