package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"chat-hub/domain"
	apperrors "chat-hub/errors"
	"chat-hub/mocks"
	"chat-hub/runtime"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMembershipService_Join_Updates_Both_Sides(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	channelID := f.createChannel(t, alice, "general")

	userSink := f.subscribe("conn-bob", domain.UserRoom(bob))
	catalogSink := f.subscribe("conn-any", domain.CatalogRoom)

	req.NoError(f.membership.JoinChannel(bob, channelID))

	userHas, channelHas := f.membershipState(t, bob, channelID)
	req.True(userHas)
	req.True(channelHas)

	req.Equal([]string{"addUser"}, userSink.names())
	req.Equal([]string{"addChannel"}, catalogSink.names())
}

func TestMembershipService_Join_Failed_Write_Applies_Neither_Side(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mocks.NewMockIUserRepository(ctrl)
	channels := mocks.NewMockIChannelRepository(ctrl)
	memberships := mocks.NewMockIMembershipRepository(ctrl)
	registry := mocks.NewMockIRegistry(ctrl)

	channel := domain.Channel{
		ID:       "chan-1",
		Owner:    "alice",
		Name:     "general",
		Members:  domain.NewIDSet("alice"),
		Banned:   domain.NewIDSet(),
		Officers: domain.NewIDSet(),
		Alive:    true,
	}
	user := domain.User{ID: "bob", Username: "bob", Channels: domain.NewIDSet(), Alive: true}

	channels.EXPECT().GetChannel("chan-1").Return(channel, nil)
	users.EXPECT().GetUser("bob").Return(user, nil)
	memberships.EXPECT().
		SaveUserAndChannel(gomock.Any(), gomock.Any()).
		Return(apperrors.Storagef(errors.New("disk full"), "save user bob and channel chan-1"))

	// One write carries both sides; nothing else is persisted or announced.
	users.EXPECT().SaveUser(gomock.Any()).Times(0)
	channels.EXPECT().SaveChannel(gomock.Any()).Times(0)
	registry.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Times(0)

	svc := NewMembershipService(users, channels, memberships, registry,
		runtime.NewEntityLocks(), testRules(), slog.Default())

	err := svc.JoinChannel("bob", "chan-1")
	req.ErrorIs(err, apperrors.ErrStorage)
}

func TestMembershipService_Join_Twice_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	channelID := f.createChannel(t, alice, "general")

	req.NoError(f.membership.JoinChannel(bob, channelID))
	req.NoError(f.membership.JoinChannel(bob, channelID))

	channel, err := f.channels.GetChannel(channelID)
	req.NoError(err)
	req.Len(channel.Members.Values(), 2) // alice + bob, no duplicate
}

func TestMembershipService_Join_Unknown_Channel(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	bob := f.register(t, "bob")

	err := f.membership.JoinChannel(bob, "nowhere")
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestMembershipService_Join_Tombstoned_Channel(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	channelID := f.createChannel(t, alice, "doomed")
	req.NoError(f.channelSvc.DeleteChannel(alice, channelID))

	err := f.membership.JoinChannel(bob, channelID)
	req.ErrorIs(err, apperrors.ErrChannelTombstoned)

	userHas, channelHas := f.membershipState(t, bob, channelID)
	req.False(userHas)
	req.False(channelHas)
}

func TestMembershipService_Join_When_Banned(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	channelID := f.createChannel(t, alice, "general")

	channel, err := f.channels.GetChannel(channelID)
	req.NoError(err)
	channel.Banned.Add(bob)
	req.NoError(f.channels.SaveChannel(channel))

	err = f.membership.JoinChannel(bob, channelID)
	req.ErrorIs(err, apperrors.ErrPermission)
}

func TestMembershipService_Concurrent_Joins_Lose_No_Member(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "busy")

	const joiners = 20
	ids := make([]string, joiners)
	for i := range ids {
		ids[i] = f.register(t, fmt.Sprintf("user%d", i))
	}

	var wg sync.WaitGroup
	for _, userID := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			req.NoError(f.membership.JoinChannel(id, channelID))
		}(userID)
	}
	wg.Wait()

	channel, err := f.channels.GetChannel(channelID)
	req.NoError(err)
	req.Len(channel.Members.Values(), joiners+1)
	for _, userID := range ids {
		userHas, channelHas := f.membershipState(t, userID, channelID)
		req.True(userHas)
		req.True(channelHas)
	}
}

func TestMembershipService_Leave_Updates_Both_Sides(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	channelID := f.createChannel(t, alice, "general")
	req.NoError(f.membership.JoinChannel(bob, channelID))

	req.NoError(f.membership.LeaveChannel(bob, channelID))

	userHas, channelHas := f.membershipState(t, bob, channelID)
	req.False(userHas)
	req.False(channelHas)
}

func TestMembershipService_Owner_Cannot_Leave(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "general")

	err := f.membership.LeaveChannel(alice, channelID)
	req.ErrorIs(err, apperrors.ErrOwnerCannotLeave)

	// Ownership implies membership, before and after
	userHas, channelHas := f.membershipState(t, alice, channelID)
	req.True(userHas)
	req.True(channelHas)
}

func TestMembershipService_Leave_Twice_Reports_NonMembership(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	channelID := f.createChannel(t, alice, "general")
	req.NoError(f.membership.JoinChannel(bob, channelID))
	req.NoError(f.membership.LeaveChannel(bob, channelID))

	err := f.membership.LeaveChannel(bob, channelID)
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestMembershipService_EditSelf_Drops_Invalid_Fields(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")

	avatar := "https://cdn.example.com/alice.png"
	badHandle := ""
	profile, err := f.membership.EditSelf(alice, &avatar, &badHandle)
	req.NoError(err)

	// The valid field applies, the invalid one is silently dropped
	req.Equal(avatar, profile.Avatar)
	req.Equal("alice", profile.Handle)
}

func TestMembershipService_EditSelf_Broadcasts_Profile(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	sink := f.subscribe("conn-alice", domain.UserRoom(alice))

	handle := "Alice A."
	_, err := f.membership.EditSelf(alice, nil, &handle)
	req.NoError(err)

	req.Equal([]string{"addUser"}, sink.names())
}

func TestMembershipService_EditChannel_Is_Owner_Gated(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	channelID := f.createChannel(t, alice, "general")
	req.NoError(f.membership.JoinChannel(bob, channelID))

	name := "hijacked"
	err := f.membership.EditChannel(bob, channelID, nil, nil, &name)
	req.ErrorIs(err, apperrors.ErrPermission)

	desc := "the main channel"
	req.NoError(f.membership.EditChannel(alice, channelID, nil, &desc, nil))

	channel, err := f.channels.GetChannel(channelID)
	req.NoError(err)
	req.Equal("general", channel.Name)
	req.Equal("the main channel", channel.Description)
}
