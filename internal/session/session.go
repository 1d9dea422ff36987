package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dori/tasktrackr/internal/model"
	"github.com/gofrs/flock"
)

// Slot keys of the session file
const (
	TokenKey     = "tasktrackr_token"
	UserKey      = "tasktrackr_user"
	bundlePrefix = "tasktrackr_data_"
	sessionFile  = "session.json"
	sessionLock  = "session.lock"
)

// BundleKey returns the slot holding a user's cached rows
func BundleKey(userID string) string {
	return bundlePrefix + userID
}

// Bundle is the per-user slot: cached rows plus the last active board
type Bundle struct {
	Tasks       []model.Task  `json:"tasks"`
	Boards      []model.Board `json:"boards"`
	ActiveBoard string        `json:"activeBoard,omitempty"`
}

// Store is a JSON key/value file shared by every process using the data directory
type Store struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

// Open returns the store kept in dataDir
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{
		path: filepath.Join(dataDir, sessionFile),
		lock: flock.New(filepath.Join(dataDir, sessionLock)),
	}, nil
}

// Path returns the location of the session file
func (s *Store) Path() string {
	return s.path
}

// Get decodes the value stored under key into v; ok is false when the slot is empty
func (s *Store) Get(key string, v any) (bool, error) {
	var raw json.RawMessage
	err := s.withLock(false, func(slots map[string]json.RawMessage) bool {
		raw = slots[key]
		return false
	})
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode slot %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key
func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode slot %s: %w", key, err)
	}
	return s.withLock(true, func(slots map[string]json.RawMessage) bool {
		slots[key] = raw
		return true
	})
}

// Delete removes the given keys
func (s *Store) Delete(keys ...string) error {
	return s.withLock(true, func(slots map[string]json.RawMessage) bool {
		changed := false
		for _, k := range keys {
			if _, ok := slots[k]; ok {
				delete(slots, k)
				changed = true
			}
		}
		return changed
	})
}

// SaveSession writes the token and user slots
func (s *Store) SaveSession(sess model.Session) error {
	token, err := json.Marshal(sess.AccessToken)
	if err != nil {
		return err
	}
	user, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	return s.withLock(true, func(slots map[string]json.RawMessage) bool {
		slots[TokenKey] = token
		slots[UserKey] = user
		return true
	})
}

// LoadSession returns the stored token and user. Missing or malformed slots
// report ok=false rather than an error.
func (s *Store) LoadSession() (token string, user *model.User, ok bool) {
	var rawToken, rawUser json.RawMessage
	err := s.withLock(false, func(slots map[string]json.RawMessage) bool {
		rawToken, rawUser = slots[TokenKey], slots[UserKey]
		return false
	})
	if err != nil || rawToken == nil || rawUser == nil {
		return "", nil, false
	}

	if err := json.Unmarshal(rawToken, &token); err != nil || token == "" {
		return "", nil, false
	}
	var u model.User
	if err := json.Unmarshal(rawUser, &u); err != nil || u.ID == "" {
		return "", nil, false
	}
	return token, &u, true
}

// ClearSession removes the token and user slots
func (s *Store) ClearSession() error {
	return s.Delete(TokenKey, UserKey)
}

// LoadBundle returns the user's bundle; an absent or unreadable slot yields an empty bundle
func (s *Store) LoadBundle(userID string) Bundle {
	var b Bundle
	if ok, err := s.Get(BundleKey(userID), &b); err != nil || !ok {
		return Bundle{}
	}
	return b
}

// UpdateBundle applies fn to the user's bundle and writes it back atomically
func (s *Store) UpdateBundle(userID string, fn func(*Bundle)) error {
	key := BundleKey(userID)
	return s.withLock(true, func(slots map[string]json.RawMessage) bool {
		var b Bundle
		if raw, ok := slots[key]; ok {
			// A corrupt bundle is replaced
			_ = json.Unmarshal(raw, &b)
		}
		fn(&b)
		raw, err := json.Marshal(b)
		if err != nil {
			return false
		}
		slots[key] = raw
		return true
	})
}

// SaveActiveBoard remembers the user's active board
func (s *Store) SaveActiveBoard(userID, boardID string) error {
	return s.UpdateBundle(userID, func(b *Bundle) {
		b.ActiveBoard = boardID
	})
}

// ActiveBoard returns the remembered active board, or ""
func (s *Store) ActiveBoard(userID string) string {
	return s.LoadBundle(userID).ActiveBoard
}

// withLock loads the slot map under the file lock and calls fn.
// When write is set and fn reports a change, the map is written back.
func (s *Store) withLock(write bool, fn func(map[string]json.RawMessage) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if write {
		err = s.lock.Lock()
	} else {
		err = s.lock.RLock()
	}
	if err != nil {
		return fmt.Errorf("failed to lock session file: %w", err)
	}
	defer s.lock.Unlock()

	slots, err := s.read()
	if err != nil {
		return err
	}

	if changed := fn(slots); write && changed {
		return s.write(slots)
	}
	return nil
}

func (s *Store) read() (map[string]json.RawMessage, error) {
	slots := map[string]json.RawMessage{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return slots, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := json.Unmarshal(data, &slots); err != nil {
		// Treat an unreadable file like an empty one
		return map[string]json.RawMessage{}, nil
	}
	return slots, nil
}

func (s *Store) write(slots map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
