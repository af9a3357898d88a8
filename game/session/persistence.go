package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/track-editor/game/editor"
	"github.com/wricardo/track-editor/game/service"
	"github.com/wricardo/track-editor/game/track"
	"github.com/wricardo/track-editor/pkg/logger"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the stored form of a session
type PersistedSessionData struct {
	ID             string         `json:"id"`
	ConfigName     string         `json:"config_name"`
	TrackName      string         `json:"track_name,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
	Camera         editor.Camera  `json:"camera"`
	Track          track.Document `json:"track"`
}

// newPersistedData captures a session under its lock
func newPersistedData(session *service.Session) PersistedSessionData {
	data := PersistedSessionData{
		ID:             session.ID,
		ConfigName:     session.ConfigID,
		TrackName:      session.TrackName,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
	}
	session.Do(func(ed *editor.TrackEditor) error {
		data.Camera = ed.GetCamera()
		data.Track = ed.Document()
		return nil
	})
	if data.Track.Tiles == nil {
		data.Track.Tiles = []track.DocumentEntry{}
	}
	return data
}

// restoreSession rebuilds a session from stored data. A profile that no
// longer exists is replaced by the default profile.
func restoreSession(data PersistedSessionData, configs service.ConfigManager) (*service.Session, error) {
	config, err := configs.LoadConfig(data.ConfigName)
	if err != nil {
		logger.WithComponent("session").WithError(err).WithField("session_id", data.ID).
			Warnf("profile %q unavailable, using default", data.ConfigName)
		config = configs.GetDefault()
	}

	session, err := service.NewSession(data.ID, data.ConfigName, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create editor: %w", err)
	}
	if err := session.Editor.LoadDocument(data.Track); err != nil {
		return nil, fmt.Errorf("failed to restore track: %w", err)
	}
	session.Editor.SetCamera(data.Camera)
	session.TrackName = data.TrackName
	session.CreatedAt = data.CreatedAt
	session.LastAccessedAt = data.LastAccessedAt
	return session, nil
}

// decodePersistedData parses a stored session; the track is checked against
// the document schema before it is accepted
func decodePersistedData(raw []byte) (PersistedSessionData, error) {
	var envelope struct {
		PersistedSessionData
		Track json.RawMessage `json:"track"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return PersistedSessionData{}, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	data := envelope.PersistedSessionData
	if len(envelope.Track) == 0 {
		data.Track = track.Document{Tiles: []track.DocumentEntry{}}
		return data, nil
	}
	doc, err := track.DecodeDocument(envelope.Track)
	if err != nil {
		return PersistedSessionData{}, err
	}
	data.Track = *doc
	return data, nil
}
