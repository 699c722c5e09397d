package services

import (
	"fmt"
	"testing"

	"chat-hub/domain"
	apperrors "chat-hub/errors"

	"github.com/stretchr/testify/require"
)

func TestMessageService_Create_Stores_And_Broadcasts(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "general")
	sink := f.subscribe("conn-member", domain.ChannelRoom(channelID))

	view, err := f.messageSvc.CreateMessage(alice, channelID, "hello there", "")
	req.NoError(err)
	req.Equal("hello there", view.Text)
	req.Equal(alice, view.Author)
	req.True(view.Alive)

	req.Equal([]string{"newMessage"}, sink.names())

	window, err := f.messageSvc.GetMessages(channelID, 0, "")
	req.NoError(err)
	req.Len(window, 1)
	req.Equal(view.ID, window[0].ID)
}

func TestMessageService_Create_Rejects_Empty_Text(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "general")

	_, err := f.messageSvc.CreateMessage(alice, channelID, "", "")
	req.ErrorIs(err, apperrors.ErrValidation)
}

func TestMessageService_Create_On_Tombstoned_Channel(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "doomed")
	req.NoError(f.channelSvc.DeleteChannel(alice, channelID))

	_, err := f.messageSvc.CreateMessage(alice, channelID, "anyone here?", "")
	req.ErrorIs(err, apperrors.ErrChannelTombstoned)
}

func TestMessageService_Create_On_Unknown_Channel(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")

	_, err := f.messageSvc.CreateMessage(alice, "nowhere", "hello?", "")
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestMessageService_GetMessages_Paginates_Both_Ways(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "general")

	for i := 1; i <= 25; i++ {
		_, err := f.messageSvc.CreateMessage(alice, channelID, fmt.Sprintf("message %d", i), "")
		req.NoError(err)
	}

	// Tail window: the 10 newest, oldest first
	tail, err := f.messageSvc.GetMessages(channelID, 0, "")
	req.NoError(err)
	req.Len(tail, 10)
	req.Equal("message 16", tail[0].Text)
	req.Equal("message 25", tail[9].Text)

	// Backwards from the tail's first entry
	older, err := f.messageSvc.GetMessages(channelID, -1, tail[0].ID)
	req.NoError(err)
	req.Len(older, 10)
	req.Equal("message 6", older[0].Text)
	req.Equal("message 15", older[9].Text)

	// Forwards again from the older window's last entry
	newer, err := f.messageSvc.GetMessages(channelID, 1, older[9].ID)
	req.NoError(err)
	req.Len(newer, 10)
	req.Equal("message 16", newer[0].Text)
	req.Equal("message 25", newer[9].Text)
}

func TestMessageService_GetMessages_Requires_Cursor_When_Paging(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "general")

	_, err := f.messageSvc.GetMessages(channelID, -1, "")
	req.ErrorIs(err, apperrors.ErrValidation)

	_, err = f.messageSvc.GetMessages(channelID, 1, "")
	req.ErrorIs(err, apperrors.ErrValidation)
}

func TestMessageService_GetMessages_Unknown_Cursor(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.register(t, "alice")
	channelID := f.createChannel(t, alice, "general")

	_, err := f.messageSvc.GetMessages(channelID, -1, "no-such-message")
	req.ErrorIs(err, apperrors.ErrNotFound)
}
