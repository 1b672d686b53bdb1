package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/tidwall/buntdb"
)

// BuntStorage implements core.UserStorage using BuntDB documents keyed
// by chat id.
type BuntStorage struct {
	db *buntdb.DB
}

// FromMemory creates an in-memory storage. Nothing survives a restart.
func FromMemory() (core.UserStorage, error) {
	return NewBuntStorage(":memory:")
}

// FromFile creates a file-based storage
func FromFile(file string) (core.UserStorage, error) {
	return NewBuntStorage(file)
}

// NewBuntStorage creates a new BuntDB storage instance
func NewBuntStorage(sourceFile string) (core.UserStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex("created_index", "*", buntdb.IndexJSON("created_at"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntStorage{db: db}, nil
}

func userKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// Save stores a user, replacing any previous version.
func (b *BuntStorage) Save(user *core.User) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		content, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}

		_, _, err = tx.Set(userKey(user.ChatID), string(content), nil)
		if err != nil {
			return fmt.Errorf("failed to store user: %w", err)
		}

		return nil
	})
}

// Get retrieves one user. Returns core.ErrUserNotFound for unknown ids.
func (b *BuntStorage) Get(chatID int64) (*core.User, error) {
	var user core.User

	err := b.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(userKey(chatID))
		if err != nil {
			if errors.Is(err, buntdb.ErrNotFound) {
				return core.ErrUserNotFound
			}
			return err
		}

		return json.Unmarshal([]byte(value), &user)
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// All retrieves every known user in registration order.
func (b *BuntStorage) All() ([]*core.User, error) {
	users := make([]*core.User, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		var iterErr error
		err := tx.Ascend("created_index", func(_, value string) bool {
			var user core.User
			if err := json.Unmarshal([]byte(value), &user); err != nil {
				iterErr = fmt.Errorf("failed to unmarshal user: %w", err)
				return false
			}

			users = append(users, &user)
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to iterate over users: %w", err)
		}

		return iterErr
	})
	if err != nil {
		return nil, err
	}

	return users, nil
}

// Close closes the database connection
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
