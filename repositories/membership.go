//go:generate go run go.uber.org/mock/mockgen -source=membership.go -destination=../mocks/mock_membership_repository.go -package=mocks
package repositories

import (
	"encoding/json"

	"chat-hub/domain"
	apperrors "chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
)

// IMembershipRepository persists the two sides of a membership change as
// one write. Join, leave and channel creation all mutate a user record and
// a channel record together; writing them in a single transaction means a
// failure leaves neither side applied, never one.
type IMembershipRepository interface {
	SaveUserAndChannel(user domain.User, channel domain.Channel) error
}

type MembershipRepository struct {
	db *badger.DB
}

func NewMembershipRepository(db *badger.DB) IMembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) SaveUserAndChannel(user domain.User, channel domain.Channel) error {
	userData, err := json.Marshal(user)
	if err != nil {
		return apperrors.Storagef(err, "encode user %s", user.ID)
	}
	channelData, err := json.Marshal(channel)
	if err != nil {
		return apperrors.Storagef(err, "encode channel %s", channel.ID)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(userKey(user.ID), userData); err != nil {
			return err
		}
		return txn.Set(channelKey(channel.ID), channelData)
	})
	if err != nil {
		return apperrors.Storagef(err, "save user %s and channel %s", user.ID, channel.ID)
	}
	return nil
}
