// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/danielhkuo/pollpocket/models"
)

// FileStore persists the current session between process runs, the way the
// mobile app keeps it in device storage. A missing or unreadable file means
// "no persisted session", never an error the caller must handle.
type FileStore struct {
	path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, "session.json")}
}

// Load returns the persisted session, or nil when there is none.
func (s *FileStore) Load() *models.Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to read persisted session", "path", s.path, "error", err)
		}
		return nil
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		slog.Warn("persisted session is corrupt, discarding", "path", s.path, "error", err)
		return nil
	}
	if session.AccessToken == "" || session.User.ID == "" {
		return nil
	}
	return &session
}

// Save writes the session with owner-only permissions.
func (s *FileStore) Save(session *models.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	// Write-then-rename so a crash never leaves a half-written file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Clear removes the persisted session.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
