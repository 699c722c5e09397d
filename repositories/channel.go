//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"sort"

	"chat-hub/domain"
	apperrors "chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
)

type IChannelRepository interface {
	CreateChannel(channel domain.Channel) error
	GetChannel(id string) (domain.Channel, error)
	SaveChannel(channel domain.Channel) error
	GetAllChannels() ([]domain.Channel, error)
}

type ChannelRepository struct {
	db *badger.DB
}

func NewChannelRepository(db *badger.DB) IChannelRepository {
	return &ChannelRepository{db: db}
}

func channelKey(id string) []byte { return []byte("chan:" + id) }

func (r *ChannelRepository) CreateChannel(channel domain.Channel) error {
	return r.put(channel, "create")
}

func (r *ChannelRepository) SaveChannel(channel domain.Channel) error {
	return r.put(channel, "save")
}

func (r *ChannelRepository) put(channel domain.Channel, op string) error {
	data, err := json.Marshal(channel)
	if err != nil {
		return apperrors.Storagef(err, "encode channel %s", channel.ID)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(channelKey(channel.ID), data)
	})
	if err != nil {
		return apperrors.Storagef(err, "%s channel %s", op, channel.ID)
	}
	return nil
}

// GetChannel returns the raw record, tombstoned or not. Tombstone filtering
// is a service concern: lifecycle cleanup still needs to load dead channels.
func (r *ChannelRepository) GetChannel(id string) (domain.Channel, error) {
	var channel domain.Channel
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(channelKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &channel)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Channel{}, apperrors.NotFoundf("channel %s", id)
	}
	if err != nil {
		return domain.Channel{}, apperrors.Storagef(err, "get channel %s", id)
	}
	return channel, nil
}

// GetAllChannels scans the channel prefix and returns live channels sorted
// by name ascending. Channel counts stay small compared to message logs, so
// a full prefix scan here is acceptable where one over messages would not be.
func (r *ChannelRepository) GetAllChannels() ([]domain.Channel, error) {
	var channels []domain.Channel
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("chan:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var channel domain.Channel
				if err := json.Unmarshal(val, &channel); err != nil {
					return err
				}
				if channel.Alive {
					channels = append(channels, channel)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Storagef(err, "scan channels")
	}

	sort.Slice(channels, func(i, j int) bool {
		return channels[i].Name < channels[j].Name
	})
	return channels, nil
}
