// Package profile stores the diary profile snapshots used to decorate
// matched payloads: nickname, title, current emotion summary, and recent
// emotion statistics. The diary API writes them at save time; this service
// only reads them at connect time.
package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"moodmatch/domain"
)

const keyPrefix = "profile:"

type Store struct {
	db  *badger.DB
	log *slog.Logger
}

func NewStore(db *badger.DB, log *slog.Logger) Store {
	return Store{db: db, log: log}
}

func key(userID string) []byte {
	return []byte(keyPrefix + userID)
}

// Put upserts a profile snapshot. Values are stored as JSON: the snapshot
// already travels as JSON on the wire, so one codec serves both.
func (s Store) Put(snapshot domain.ProfileSnapshot) error {
	if snapshot.UserID == "" {
		return fmt.Errorf("profile snapshot has no user id")
	}
	bytes, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(snapshot.UserID), bytes)
	})
}

// Fetch returns the stored snapshot for a user. The boolean is false when
// the user has never saved a diary profile; callers fall back to a guest
// snapshot in that case.
func (s Store) Fetch(userID string) (domain.ProfileSnapshot, bool, error) {
	var snapshot domain.ProfileSnapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(userID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &snapshot)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.ProfileSnapshot{}, false, nil
	}
	if err != nil {
		return domain.ProfileSnapshot{}, false, err
	}
	return snapshot, true, nil
}

// ForEach iterates all stored snapshots, oldest key first. Used by the
// inspection tool; not on any hot path.
func (s Store) ForEach(fn func(domain.ProfileSnapshot) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var snapshot domain.ProfileSnapshot
				if err := json.Unmarshal(value, &snapshot); err != nil {
					s.log.Warn("Skipping undecodable profile entry",
						"key", string(it.Item().Key()), "error", err)
					return nil
				}
				return fn(snapshot)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
