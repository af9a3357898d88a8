package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/track-editor/game/service"
	"github.com/wricardo/track-editor/pkg/compress"
)

const (
	jsonExt       = ".json"
	compressedExt = jsonExt + compress.Ext
)

// FilePersistence implements SessionPersistence using one file per session.
// With compression enabled sessions are written as <id>.json.zst; both forms are readable.
type FilePersistence struct {
	sessionsDir   string
	configManager service.ConfigManager
	compress      bool
}

// FileOption configures a FilePersistence
type FileOption func(*FilePersistence)

// WithCompression enables zstd compression of session files
func WithCompression(enabled bool) FileOption {
	return func(fp *FilePersistence) {
		fp.compress = enabled
	}
}

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager, opts ...FileOption) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	fp := &FilePersistence{
		sessionsDir:   sessionsDir,
		configManager: configManager,
	}
	for _, opt := range opts {
		opt(fp)
	}
	return fp, nil
}

// Dir returns the directory holding session files
func (fp *FilePersistence) Dir() string {
	return fp.sessionsDir
}

// Save persists a session to a file
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	data := newPersistedData(session)
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	target, stale := fp.plainPath(session.ID), fp.compressedPath(session.ID)
	if fp.compress {
		target, stale = stale, target
		if jsonData, err = compress.Compress(jsonData); err != nil {
			return fmt.Errorf("failed to compress session data: %w", err)
		}
	}

	if err := os.WriteFile(target, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	// drop the other encoding so a session never exists twice
	if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale session file: %w", err)
	}
	return nil
}

// Load retrieves a session from its file
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	filePath, ok := fp.existingPath(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if raw, err = compress.Decompress(raw); err != nil {
		return nil, fmt.Errorf("failed to decompress session file: %w", err)
	}

	data, err := decodePersistedData(raw)
	if err != nil {
		return nil, err
	}
	return restoreSession(data, fp.configManager)
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	for _, p := range []string{fp.plainPath(id), fp.compressedPath(id)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
	}
	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	seen := make(map[string]bool)
	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := SessionIDFromFile(entry.Name())
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		sessionIDs = append(sessionIDs, id)
	}

	sort.Strings(sessionIDs)
	return sessionIDs, nil
}

// Exists checks if a session file exists in either encoding
func (fp *FilePersistence) Exists(id string) bool {
	_, ok := fp.existingPath(id)
	return ok
}

// SessionIDFromFile extracts the session ID from a session file name
func SessionIDFromFile(name string) (string, bool) {
	name = filepath.Base(name)
	switch {
	case strings.HasSuffix(name, compressedExt):
		return strings.TrimSuffix(name, compressedExt), true
	case strings.HasSuffix(name, jsonExt):
		return strings.TrimSuffix(name, jsonExt), true
	default:
		return "", false
	}
}

func (fp *FilePersistence) existingPath(id string) (string, bool) {
	for _, p := range []string{fp.compressedPath(id), fp.plainPath(id)} {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func (fp *FilePersistence) plainPath(id string) string {
	return filepath.Join(fp.sessionsDir, filepath.Base(id)+jsonExt)
}

func (fp *FilePersistence) compressedPath(id string) string {
	return filepath.Join(fp.sessionsDir, filepath.Base(id)+compressedExt)
}
