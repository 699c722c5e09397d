//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"

	"chat-hub/domain"
	apperrors "chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	CreateUser(user domain.User) error
	GetUser(id string) (domain.User, error)
	GetUserByUsername(username string) (domain.User, error)
	SaveUser(user domain.User) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

func userKey(id string) []byte       { return []byte("user:" + id) }
func usernameKey(name string) []byte { return []byte("uname:" + name) }

// CreateUser persists a new user and its unique username index entry in one
// transaction. Usernames are immutable, so the index is written once here
// and never touched by SaveUser.
func (r *UserRepository) CreateUser(user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return apperrors.Storagef(err, "encode user %s", user.ID)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(usernameKey(user.Username)); err == nil {
			return apperrors.ErrUsernameTaken
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(usernameKey(user.Username), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), data)
	})
	if err != nil && !apperrors.Is(err, apperrors.ErrUsernameTaken) {
		return apperrors.Storagef(err, "create user %s", user.ID)
	}
	return err
}

func (r *UserRepository) GetUser(id string) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, apperrors.NotFoundf("user %s", id)
	}
	if err != nil {
		return domain.User{}, apperrors.Storagef(err, "get user %s", id)
	}
	return user, nil
}

// GetUserByUsername resolves the username index and loads the record.
func (r *UserRepository) GetUserByUsername(username string) (domain.User, error) {
	var id string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, apperrors.NotFoundf("username %s", username)
	}
	if err != nil {
		return domain.User{}, apperrors.Storagef(err, "resolve username %s", username)
	}
	return r.GetUser(id)
}

func (r *UserRepository) SaveUser(user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return apperrors.Storagef(err, "encode user %s", user.ID)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), data)
	})
	if err != nil {
		return apperrors.Storagef(err, "save user %s", user.ID)
	}
	return nil
}
