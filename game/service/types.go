package service

import (
	"time"

	"github.com/wricardo/track-editor/game/editor"
	"github.com/wricardo/track-editor/game/track"
)

// SessionInfo provides information about an editing session
type SessionInfo struct {
	ID             string               `json:"id"`
	ConfigName     string               `json:"config_name"`
	TrackName      string               `json:"track_name,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	Snapshot       *editor.Snapshot     `json:"snapshot"`
	Config         *editor.EditorConfig `json:"config"`
}

// CommandResult contains the outcome of one editor command
type CommandResult struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Result   *editor.Result   `json:"result"`
	Snapshot *editor.Snapshot `json:"snapshot"`
}

// BatchResult contains the outcome of a command batch
type BatchResult struct {
	Executed      int              `json:"executed"`
	Requested     int              `json:"requested"`
	Success       bool             `json:"success"`
	Added         int              `json:"added"`
	Removed       int              `json:"removed"`
	StoppedReason string           `json:"stopped_reason,omitempty"`
	StoppedOn     int              `json:"stopped_on,omitempty"` // 1-based index of the failing command
	Truncated     bool             `json:"truncated,omitempty"`
	Limit         int              `json:"limit,omitempty"`
	Results       []*editor.Result `json:"results"`
	Snapshot      *editor.Snapshot `json:"snapshot"`
}

// TrackInfo carries the persisted document of a session
type TrackInfo struct {
	SessionID string         `json:"session_id"`
	TrackName string         `json:"track_name,omitempty"`
	TileCount int            `json:"tile_count"`
	Document  track.Document `json:"document"`
	Render    []string       `json:"render"`
	Saved     bool           `json:"saved,omitempty"`
}

// TileInfo describes one cell of the track
type TileInfo struct {
	X         int                            `json:"x"`
	Y         int                            `json:"y"`
	Present   bool                           `json:"present"`
	Tile      *track.Tile                    `json:"tile,omitempty"`
	Start     bool                           `json:"start"`
	Glyph     string                         `json:"glyph,omitempty"`
	Neighbors map[track.Direction]track.Tile `json:"neighbors"`
}

// ConfigInfo provides information about an editor profile
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Format      string `json:"format"` // "json" or "yaml"
	Interval    int    `json:"interval"`
	MaxFillArea int    `json:"max_fill_area"`
}
