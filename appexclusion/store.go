// Package appexclusion disables drag scrolling while a user-listed
// application is frontmost.
package appexclusion

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/text/cases"
)

var (
	ErrEmptyID     = errors.New("appexclusion: empty bundle id")
	ErrUnsupported = errors.New("appexclusion: frontmost application lookup not supported on this platform")
)

var keyPrefix = []byte("app/")

// Entry is one excluded application.
type Entry struct {
	BundleID string
	Name     string
}

// Store persists the excluded bundle IDs. IDs are case-folded, so
// "com.Apple.Safari" and "com.apple.safari" are the same entry.
type Store struct {
	db *badger.DB
}

// DefaultDir returns the on-disk location of the store.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "dragscroll", "exclusions"), nil
}

// Open opens (or creates) the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return OpenWith(badger.DefaultOptions(dir))
}

// OpenWith opens the store with explicit badger options.
func OpenWith(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open exclusion store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Fold normalizes a bundle ID for storage and comparison.
func Fold(id string) string {
	return cases.Fold().String(strings.TrimSpace(id))
}

func key(folded string) []byte {
	return append(append([]byte(nil), keyPrefix...), folded...)
}

// Add records id with a display name. Adding an existing ID updates its name.
func (s *Store) Add(id, name string) error {
	folded := Fold(id)
	if folded == "" {
		return ErrEmptyID
	}
	if name == "" {
		name = strings.TrimSpace(id)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(folded), []byte(name))
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", folded, err)
	}
	return nil
}

// Remove deletes id. Removing an absent ID is not an error.
func (s *Store) Remove(id string) error {
	folded := Fold(id)
	if folded == "" {
		return ErrEmptyID
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(folded))
	})
	if err != nil {
		return fmt.Errorf("remove %s: %w", folded, err)
	}
	return nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	if err := s.db.DropPrefix(keyPrefix); err != nil {
		return fmt.Errorf("clear exclusions: %w", err)
	}
	return nil
}

// Contains reports whether id is excluded.
func (s *Store) Contains(id string) (bool, error) {
	folded := Fold(id)
	if folded == "" {
		return false, nil
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(folded))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("lookup %s: %w", folded, err)
	}
}

// List returns all entries sorted by bundle ID.
func (s *Store) List() ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			item := it.Item()
			id := strings.TrimPrefix(string(item.Key()), string(keyPrefix))
			if err := item.Value(func(v []byte) error {
				out = append(out, Entry{BundleID: id, Name: string(v)})
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list exclusions: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BundleID < out[j].BundleID })
	return out, nil
}
