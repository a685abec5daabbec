package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/nutrisync/internal/errs"
)

type tokenFile struct {
	UserID      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// FileStore keeps the session in a JSON file.
type FileStore struct{ Path string }

var _ Storage = FileStore{}

// NewFileStore stores the token as token.json under dir.
func NewFileStore(dir string) FileStore {
	return FileStore{Path: filepath.Join(dir, "token.json")}
}

// Save writes s with owner-only permissions.
func (f FileStore) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tokenFile{UserID: s.UserID, AccessToken: s.AccessToken, ExpiresAt: s.ExpiresAt}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}

// Load returns the stored session or errs.ErrNoSession.
func (f FileStore) Load() (Session, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, errs.ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return Session{}, err
	}
	if tf.AccessToken == "" || tf.UserID == uuid.Nil {
		return Session{}, errs.ErrNoSession
	}
	return Session{UserID: tf.UserID, AccessToken: tf.AccessToken, ExpiresAt: tf.ExpiresAt}, nil
}

// Delete removes the file; a missing file is not an error.
func (f FileStore) Delete() error {
	err := os.Remove(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
