package services

import (
	"strings"
	"testing"

	"chat-hub/domain"
	apperrors "chat-hub/errors"

	"github.com/stretchr/testify/require"
)

func TestChannelService_Create_Makes_Owner_Sole_Member(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	catalogSink := f.subscribe("conn-any", domain.CatalogRoom)

	view, err := f.channelSvc.CreateChannel(alice, "general", "the main channel", true)
	req.NoError(err)
	req.Equal(alice, view.Owner)
	req.Equal([]string{alice}, view.Members)
	req.True(view.Alive)

	userHas, channelHas := f.membershipState(t, alice, view.ID)
	req.True(userHas)
	req.True(channelHas)

	// Creation is announced on the catalog
	req.Equal([]string{"addChannel"}, catalogSink.names())
}

func TestChannelService_Create_Validates_Name(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")

	_, err := f.channelSvc.CreateChannel(alice, "", "", true)
	req.ErrorIs(err, apperrors.ErrValidation)

	_, err = f.channelSvc.CreateChannel(alice, strings.Repeat("n", 65), "", true)
	req.ErrorIs(err, apperrors.ErrValidation)
}

func TestChannelService_Delete_Tombstones_And_Cascades(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	clara := f.register(t, "clara")
	channelID := f.createChannel(t, alice, "doomed")
	req.NoError(f.membership.JoinChannel(bob, channelID))
	req.NoError(f.membership.JoinChannel(clara, channelID))

	req.NoError(f.channelSvc.DeleteChannel(alice, channelID))

	// The record survives as a tombstone
	channel, err := f.channels.GetChannel(channelID)
	req.NoError(err)
	req.False(channel.Alive)

	// Every member's channel set is cleaned up
	for _, userID := range []string{alice, bob, clara} {
		user, err := f.users.GetUser(userID)
		req.NoError(err)
		req.False(user.Channels.Has(channelID))
	}
}

func TestChannelService_Delete_Is_Owner_Gated(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	channelID := f.createChannel(t, alice, "general")
	req.NoError(f.membership.JoinChannel(bob, channelID))

	err := f.channelSvc.DeleteChannel(bob, channelID)
	req.ErrorIs(err, apperrors.ErrPermission)

	channel, err := f.channels.GetChannel(channelID)
	req.NoError(err)
	req.True(channel.Alive)
}

func TestChannelService_Delete_Twice_Reports_Tombstone(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "doomed")
	req.NoError(f.channelSvc.DeleteChannel(alice, channelID))

	err := f.channelSvc.DeleteChannel(alice, channelID)
	req.ErrorIs(err, apperrors.ErrChannelTombstoned)
}

func TestChannelService_Delete_Announces_To_Channel_And_Catalog(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "doomed")

	channelSink := f.subscribe("conn-member", domain.ChannelRoom(channelID))
	catalogSink := f.subscribe("conn-any", domain.CatalogRoom)

	req.NoError(f.channelSvc.DeleteChannel(alice, channelID))

	req.Equal([]string{"addChannel"}, channelSink.names())
	req.Equal([]string{"addChannel"}, catalogSink.names())
}

func TestDirectoryService_Tombstoned_Channel_Is_Invisible(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "doomed")
	req.NoError(f.channelSvc.DeleteChannel(alice, channelID))

	_, err := f.directory.GetChannel(channelID)
	req.ErrorIs(err, apperrors.ErrNotFound)

	channels, err := f.directory.GetAllChannels()
	req.NoError(err)
	req.Empty(channels)
}

func TestDirectoryService_GetAllChannels_Lists_Public_Only(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")

	_, err := f.channelSvc.CreateChannel(alice, "public", "", true)
	req.NoError(err)
	_, err = f.channelSvc.CreateChannel(alice, "hidden", "", false)
	req.NoError(err)

	channels, err := f.directory.GetAllChannels()
	req.NoError(err)
	req.Len(channels, 1)
	req.Equal("public", channels[0].Name)
}

func TestDirectoryService_GetUser_Returns_Profile_Without_Secret(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")

	profile, err := f.directory.GetUser(alice)
	req.NoError(err)
	req.Equal("alice", profile.Username)

	_, err = f.directory.GetUser("nobody")
	req.ErrorIs(err, apperrors.ErrNotFound)
}
