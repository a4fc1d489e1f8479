package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"insight-chat-backend/internal/types"
)

// FileStore persists each session's transcript as a JSON array of messages
// in its own file under dir.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) Append(sessionID string, msg types.ChatMessage) error {
	msgs, err := f.Load(sessionID)
	if err != nil {
		return err
	}
	return f.write(sessionID, append(msgs, msg))
}

func (f *FileStore) Load(sessionID string) ([]types.ChatMessage, error) {
	path, err := f.path(sessionID)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var msgs []types.ChatMessage
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, fmt.Errorf("corrupt transcript file %s: %w", path, err)
	}
	return msgs, nil
}

func (f *FileStore) Clear(sessionID string) error {
	path, err := f.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileStore) write(sessionID string, msgs []types.ChatMessage) error {
	path, err := f.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return err
	}
	// Atomic replace so a crash mid-write cannot corrupt the transcript
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *FileStore) path(sessionID string) (string, error) {
	if !validSessionID(sessionID) {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(f.dir, sessionID+".json"), nil
}

// validSessionID rejects anything that could escape the transcript directory.
func validSessionID(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	for _, r := range sessionID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return !strings.HasPrefix(sessionID, "-")
}
