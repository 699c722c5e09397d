//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-hub/domain"
	apperrors "chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetLatest(channelID string) ([]domain.Message, error)
	GetBefore(channelID, messageID string) ([]domain.Message, error)
	GetAfter(channelID, messageID string) ([]domain.Message, error)
}

type MessageRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limit int) IMessageRepository {
	return &MessageRepository{db: db, log: log, limit: limit}
}

// messageKey orders a channel's log by insertion time. The 19-digit zero
// padding keeps lexicographical order equal to chronological order, and the
// message id disambiguates two messages landing on the same nanosecond.
func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.ChannelID, m.At.UnixNano(), m.ID))
}

func messagePrefix(channelID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", channelID))
}

// refKey maps a message id to its position in the log, so a pagination
// cursor resolves in one lookup instead of a scan.
func refKey(messageID string) []byte { return []byte("msgref:" + messageID) }

// StoreMessage appends a message to its channel's log and writes the cursor
// index entry in the same transaction.
func (r *MessageRepository) StoreMessage(message domain.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return apperrors.Storagef(err, "encode message %s", message.ID)
	}
	key := messageKey(message)
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(refKey(message.ID.String()), key); err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return apperrors.Storagef(err, "store message %s", message.ID)
	}
	return nil
}

// GetLatest returns the newest window of the channel's log, oldest first.
func (r *MessageRepository) GetLatest(channelID string) ([]domain.Message, error) {
	prefix := messagePrefix(channelID)
	// Seek past every real key: padded timestamps never exceed 19 nines.
	seek := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
	return r.collectReverse(prefix, seek, nil)
}

// GetBefore returns the window strictly preceding the cursor, oldest first.
func (r *MessageRepository) GetBefore(channelID, messageID string) ([]domain.Message, error) {
	cursorKey, err := r.resolveCursor(channelID, messageID)
	if err != nil {
		return nil, err
	}
	return r.collectReverse(messagePrefix(channelID), cursorKey, cursorKey)
}

// GetAfter returns the window strictly following the cursor, oldest first.
func (r *MessageRepository) GetAfter(channelID, messageID string) ([]domain.Message, error) {
	cursorKey, err := r.resolveCursor(channelID, messageID)
	if err != nil {
		return nil, err
	}

	prefix := messagePrefix(channelID)
	var messages []domain.Message
	err = r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		it.Seek(cursorKey)
		if it.ValidForPrefix(prefix) && bytes.Equal(it.Item().Key(), cursorKey) {
			it.Next()
		}
		for ; it.ValidForPrefix(prefix) && len(messages) < r.limit; it.Next() {
			message, err := decodeMessage(it.Item())
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Storagef(err, "scan messages after %s", messageID)
	}
	return messages, nil
}

// collectReverse walks backwards from seek, optionally skipping the cursor
// key itself, and returns up to limit messages flipped into ascending order.
func (r *MessageRepository) collectReverse(prefix, seek, skip []byte) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		it.Seek(seek)
		if skip != nil && it.ValidForPrefix(prefix) && bytes.Equal(it.Item().Key(), skip) {
			it.Next()
		}
		for ; it.ValidForPrefix(prefix) && len(messages) < r.limit; it.Next() {
			message, err := decodeMessage(it.Item())
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Storagef(err, "scan messages")
	}

	// Reverse iteration produced newest-first; callers want oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// resolveCursor turns a message id into its log key and checks it belongs to
// the requested channel.
func (r *MessageRepository) resolveCursor(channelID, messageID string) ([]byte, error) {
	var key []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(refKey(messageID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			key = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, apperrors.NotFoundf("message %s", messageID)
	}
	if err != nil {
		return nil, apperrors.Storagef(err, "resolve cursor %s", messageID)
	}
	if !bytes.HasPrefix(key, messagePrefix(channelID)) {
		return nil, apperrors.NotFoundf("message %s in channel %s", messageID, channelID)
	}
	return key, nil
}

func decodeMessage(item *badger.Item) (domain.Message, error) {
	var message domain.Message
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &message)
	})
	return message, err
}
