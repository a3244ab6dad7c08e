package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
)

const (
	// CursorFile holds the last processed matching email.
	CursorFile = "last_processed_email.json"

	// MatchedFile is the append-only log of matched emails.
	MatchedFile = "matched_emails.json"

	// LockFile guards the directory against concurrent pollers.
	LockFile = ".formintake.lock"

	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrLocked is returned by Lock when another process holds the directory.
var ErrLocked = errors.New("state directory is locked by another process")

// Cursor points at the most recently processed matching email.
type Cursor struct {
	ID               string    `json:"id"`
	ReceivedDateTime time.Time `json:"receivedDateTime"`
}

// MatchedEmail is one entry of the matched-email log.
type MatchedEmail struct {
	Subject          string    `json:"subject"`
	From             string    `json:"from"`
	ReceivedDateTime time.Time `json:"receivedDateTime"`
	BodyPreview      string    `json:"bodyPreview"`
}

// Store reads and writes state files under a single directory.
type Store struct {
	dir  string
	lock *flock.Flock
}

// Open returns a store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("state directory is required")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute-or-relative path of name inside the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Lock takes the directory's single-writer lock without blocking.
func (s *Store) Lock() error {
	if s.lock == nil {
		s.lock = flock.New(s.Path(LockFile))
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", s.dir, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", s.dir, ErrLocked)
	}
	return nil
}

// Unlock releases the lock taken by Lock. It is a no-op when unlocked.
func (s *Store) Unlock() error {
	if s.lock == nil {
		return nil
	}
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", s.dir, err)
	}
	return nil
}

// LoadCursor returns the stored cursor, or nil when none has been written yet.
func (s *Store) LoadCursor() (*Cursor, error) {
	data, err := os.ReadFile(s.Path(CursorFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cursor: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse cursor %s: %w", s.Path(CursorFile), err)
	}
	return &c, nil
}

// SaveCursor replaces the stored cursor.
func (s *Store) SaveCursor(c Cursor) error {
	if err := s.writeJSON(CursorFile, c); err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}

// LoadMatched returns every entry of the matched-email log.
func (s *Store) LoadMatched() ([]MatchedEmail, error) {
	data, err := os.ReadFile(s.Path(MatchedFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read matched emails: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var entries []MatchedEmail
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse matched emails %s: %w", s.Path(MatchedFile), err)
	}
	return entries, nil
}

// AppendMatched adds an entry to the matched-email log.
func (s *Store) AppendMatched(m MatchedEmail) error {
	entries, err := s.LoadMatched()
	if err != nil {
		return err
	}
	entries = append(entries, m)
	if err := s.writeJSON(MatchedFile, entries); err != nil {
		return fmt.Errorf("failed to append matched email: %w", err)
	}
	return nil
}

// WriteAttachment stores data under name and returns the full path.
func (s *Store) WriteAttachment(name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid attachment file name %q", name)
	}
	path := s.Path(name)
	if err := renameio.WriteFile(path, data, filePerm); err != nil {
		return "", fmt.Errorf("failed to write attachment %s: %w", name, err)
	}
	return path, nil
}

func (s *Store) writeJSON(name string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return renameio.WriteFile(s.Path(name), buf.Bytes(), filePerm)
}
