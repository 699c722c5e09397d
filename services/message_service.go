package services

import (
	"log/slog"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	apperrors "chat-hub/errors"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/runtime"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageService interface {
	CreateMessage(authorID, channelID, text, file string) (domain.MessageView, error)
	GetMessages(channelID string, mode int, cursor string) ([]domain.MessageView, error)
}

// MessageService appends to per-channel logs and reads them through a
// constant-size cursor window. Appends are serialized per channel so the
// stored order is the arrival order.
type MessageService struct {
	channels repositories.IChannelRepository
	messages repositories.IMessageRepository
	registry contract.IRegistry
	locks    *runtime.EntityLocks
	stats    *observability.Stats
	log      *slog.Logger
}

func NewMessageService(channels repositories.IChannelRepository,
	messages repositories.IMessageRepository, registry contract.IRegistry,
	locks *runtime.EntityLocks, stats *observability.Stats, log *slog.Logger) IMessageService {
	return &MessageService{
		channels: channels,
		messages: messages,
		registry: registry,
		locks:    locks,
		stats:    stats,
		log:      log,
	}
}

// CreateMessage appends a message to the channel's log and broadcasts it to
// the channel room as a single new-message event.
func (s *MessageService) CreateMessage(authorID, channelID, text, file string) (domain.MessageView, error) {
	if text == "" {
		return domain.MessageView{}, apperrors.Validationf("message text is required")
	}

	unlock := s.locks.Lock(channelID)
	defer unlock()

	channel, err := s.channels.GetChannel(channelID)
	if err != nil {
		return domain.MessageView{}, err
	}
	if !channel.Alive {
		return domain.MessageView{}, apperrors.ErrChannelTombstoned
	}

	message := domain.Message{
		ID:        uuid.New(),
		ChannelID: channelID,
		Author:    authorID,
		Text:      text,
		File:      file,
		At:        time.Now().UTC(),
		Alive:     true,
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return domain.MessageView{}, err
	}
	s.stats.MessageStored()

	view := message.View()
	s.registry.Broadcast(domain.ChannelRoom(channelID), event.MessagePosted{Message: view})
	return view, nil
}

// GetMessages reads one pagination window, always returned oldest-first:
// mode 0 anchors at the tail, mode < 0 strictly before the cursor, mode > 0
// strictly after it. Only the window is ever read, never the full log.
func (s *MessageService) GetMessages(channelID string, mode int, cursor string) ([]domain.MessageView, error) {
	var (
		messages []domain.Message
		err      error
	)
	switch {
	case mode == 0:
		messages, err = s.messages.GetLatest(channelID)
	case cursor == "":
		return nil, apperrors.Validationf("cursor is required when mode is not 0")
	case mode < 0:
		messages, err = s.messages.GetBefore(channelID, cursor)
	default:
		messages, err = s.messages.GetAfter(channelID, cursor)
	}
	if err != nil {
		return nil, err
	}

	return lo.Map(messages, func(m domain.Message, _ int) domain.MessageView {
		return m.View()
	}), nil
}
