// Package memory persists a user's assistant state as JSON documents:
// conversation log, task document, and profile. Each document is a
// single file rewritten whole on every mutation; writes go through a
// temp-file-and-rename so a crash never leaves a half-written document.
//
// The store assumes one active session per user. Access within a process
// is serialized by a mutex, but there is no cross-process file locking:
// two processes writing the same user's documents can clobber each other.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind identifies one of the per-user documents.
type Kind string

const (
	KindConversation Kind = "conversation"
	KindTasks        Kind = "tasks"
	KindProfile      Kind = "profile"
)

// DefaultHistoryLimit caps the conversation log; oldest entries are
// evicted first once the cap is reached.
const DefaultHistoryLimit = 100

// Store manages the JSON documents for a single user.
type Store struct {
	mu           sync.Mutex
	userID       string
	dataDir      string
	historyLimit int
	log          *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithHistoryLimit overrides the conversation cap (default 100).
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithLogger sets the store logger (default no-op).
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore creates a store for the given user, creating the data
// directory if needed. Documents themselves are initialized lazily on
// first read.
func NewStore(dataDir, userID string, opts ...Option) (*Store, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id must not be empty")
	}
	s := &Store{
		userID:       userID,
		dataDir:      dataDir,
		historyLimit: DefaultHistoryLimit,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return s, nil
}

// UserID returns the owning user's id.
func (s *Store) UserID() string { return s.userID }

// Path returns the backing file for a document kind.
func (s *Store) Path(kind Kind) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s_%s.json", s.userID, kind))
}

// loadRaw reads a document file. A missing file returns (nil, false, nil).
// An unparsable file is quarantined and reported as missing so the caller
// reinitializes with defaults; the corrupt bytes are kept aside for
// inspection, no merge of partial JSON is attempted.
func (s *Store) loadRaw(kind Kind, v any) (found bool, err error) {
	path := s.Path(kind)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.quarantine(path, err)
		return false, nil
	}
	return true, nil
}

// quarantine renames a corrupt document aside with a timestamp suffix.
func (s *Store) quarantine(path string, cause error) {
	aside := fmt.Sprintf("%s.corrupt.%s", path, time.Now().Format("20060102_150405"))
	if err := os.Rename(path, aside); err != nil {
		s.log.Warn("could not quarantine corrupt document",
			zap.String("path", path), zap.Error(err))
		return
	}
	s.log.Warn("quarantined corrupt document, reinitializing with defaults",
		zap.String("path", path), zap.String("moved_to", aside), zap.Error(cause))
}

// saveAtomic writes a document via temp file + rename in the same directory.
func (s *Store) saveAtomic(kind Kind, v any) error {
	path := s.Path(kind)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	tmp, err := os.CreateTemp(s.dataDir, string(kind)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// touchLastActive bumps the profile's last-active stamp. Called from
// every mutating operation; failures are logged, never surfaced.
func (s *Store) touchLastActive() {
	profile := s.loadProfileLocked()
	profile.LastActive = time.Now().UTC()
	if err := s.saveAtomic(KindProfile, profile); err != nil {
		s.log.Warn("could not update last_active", zap.Error(err))
	}
}
