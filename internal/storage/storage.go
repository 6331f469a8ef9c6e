// Package storage provides persistent storage for user preferences and the
// journal of past searches.
package storage

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Storage keys
const (
	keyPreferences = "preferences"
	recordPrefix   = "record/"
)

// recordTimeLayout sorts lexically in time order.
const recordTimeLayout = "20060102T150405.000000000"

// Preferences stores user settings
type Preferences struct {
	DefaultDepth int       `json:"default_depth"`
	LogLevel     string    `json:"log_level"`
	LastUsed     time.Time `json:"last_used"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		DefaultDepth: 4,
		LogLevel:     "info",
		LastUsed:     time.Now(),
	}
}

// Record is one journaled search result. The journal is a history for the
// user; searches never read it back.
type Record struct {
	ID       uuid.UUID     `json:"id"`
	Source   string        `json:"source"` // "chess", "toy", "tree"
	Position string        `json:"position"`
	Depth    int           `json:"depth"`
	Score    int           `json:"score"`
	Move     string        `json:"move"` // empty when no move was found
	Nodes    uint64        `json:"nodes"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
}

func (r *Record) key() []byte {
	return []byte(recordPrefix + r.At.UTC().Format(recordTimeLayout) + "/" + r.ID.String())
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) the database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open database in %s", dir)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastUsed = time.Now()

	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPreferences))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Use defaults
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, prefs)
		})
	})

	return prefs, err
}

// SaveRecord journals a search result. ID and At are filled in when unset.
func (s *Storage) SaveRecord(r *Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(r.key(), data)
	})
}

// History returns up to n records, newest first.
func (s *Storage) History(n int) ([]Record, error) {
	var out []Record
	if n <= 0 {
		return out, nil
	}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key of the prefix.
		seek := append([]byte(recordPrefix), 0xFF)
		for it.Seek(seek); it.Valid() && len(out) < n; it.Next() {
			var r Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})

	return out, err
}
