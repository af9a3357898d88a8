package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/track-editor/game/editor"
	"github.com/wricardo/track-editor/game/track"
)

var (
	ErrInvalidCommand = errors.New("invalid command")
	ErrConfigNotFound = errors.New("configuration not found")
)

// MaxBatchCommands caps how many commands one ExecuteBatch call may carry
const MaxBatchCommands = 500

// EditorService defines all track editing operations
type EditorService interface {
	// Session Management
	CreateSession(ctx context.Context, configName, trackName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Editing
	Execute(ctx context.Context, sessionID string, cmd editor.Command) (*CommandResult, error)
	ExecuteBatch(ctx context.Context, sessionID string, cmds []editor.Command) (*BatchResult, error)

	// Track
	GetTrack(ctx context.Context, sessionID string) (*TrackInfo, error)
	LoadTrack(ctx context.Context, sessionID string, doc track.Document) (*TrackInfo, error)
	SaveTrack(ctx context.Context, sessionID string) (*TrackInfo, error)
	GetTile(ctx context.Context, sessionID string, x, y int) (*TileInfo, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*editor.EditorConfig, error)
	SaveConfig(ctx context.Context, configName string, config *editor.EditorConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *editor.EditorConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configID string, config *editor.EditorConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles editor profile loading
type ConfigManager interface {
	LoadConfig(name string) (*editor.EditorConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *editor.EditorConfig
	SaveConfig(name string, config *editor.EditorConfig) error
}

// Session represents an open editing session
type Session struct {
	ID             string
	Editor         *editor.TrackEditor
	Config         *editor.EditorConfig
	ConfigID       string
	TrackName      string
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// NewSession builds a session around a fresh editor
func NewSession(id, configID string, config *editor.EditorConfig) (*Session, error) {
	ed, err := editor.NewEditor(config)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:             id,
		Editor:         ed,
		Config:         config,
		ConfigID:       configID,
		CreatedAt:      now,
		LastAccessedAt: now,
	}, nil
}

// Do runs fn with exclusive access to the session's editor
func (s *Session) Do(fn func(ed *editor.TrackEditor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.Editor)
}
