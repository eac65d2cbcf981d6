// Package session keeps the client's credential and user profile between runs
// and tells observers when the authentication state changes.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"movietracker/watchlist"

	bolt "go.etcd.io/bbolt"
)

// Keys written by the browser client. Kept identical so both share a vocabulary.
const (
	KeyAuthToken   = "authToken"
	KeyCurrentUser = "currentUser"
)

var bucketSession = []byte("session")

var ErrEmptyToken = errors.New("session: empty token")

type Event struct {
	Authenticated bool
	User          *watchlist.User
}

type Observer func(Event)

// Store persists the session in a bbolt file, or only in memory when opened
// without a path.
type Store struct {
	db *bolt.DB

	mu    sync.RWMutex
	token string
	user  *watchlist.User

	obsMu     sync.Mutex
	nextObsID int
	observers map[int]Observer
}

func Open(path string) (*Store, error) {
	s := &Store{observers: make(map[int]Observer)}
	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	s.db = db

	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores token and user in one transaction. Observers are notified after
// the commit, so a reader in the callback sees the new state.
func (s *Store) Save(token string, user watchlist.User) error {
	if token == "" {
		return ErrEmptyToken
	}

	if s.db != nil {
		rawUser, err := json.Marshal(user)
		if err != nil {
			return err
		}
		err = s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketSession)
			if err := b.Put([]byte(KeyAuthToken), []byte(token)); err != nil {
				return err
			}
			return b.Put([]byte(KeyCurrentUser), rawUser)
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	seen := user
	s.notify(Event{Authenticated: true, User: &seen})
	return nil
}

// Clear removes both keys and notifies observers.
func (s *Store) Clear() error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketSession)
			if err := b.Delete([]byte(KeyAuthToken)); err != nil {
				return err
			}
			return b.Delete([]byte(KeyCurrentUser))
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	s.notify(Event{Authenticated: false})
	return nil
}

// Token returns the stored credential. Its presence is the only
// authentication signal.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// User returns the stored profile, or nil.
func (s *Store) User() *watchlist.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

// notify calls observers in subscription order outside the lock.
func (s *Store) notify(e Event) {
	s.obsMu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Observer, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (s *Store) load() error {
	var token, rawUser []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if v := b.Get([]byte(KeyAuthToken)); v != nil {
			token = append([]byte(nil), v...)
		}
		if v := b.Get([]byte(KeyCurrentUser)); v != nil {
			rawUser = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.token = string(token)
	if len(rawUser) > 0 {
		var u watchlist.User
		if err := json.Unmarshal(rawUser, &u); err == nil {
			s.user = &u
		}
	}
	return nil
}
