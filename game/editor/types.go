package editor

import (
	"errors"

	"github.com/wricardo/track-editor/game/track"
)

const (
	// Defaults mirror the browser editor: 80px cells, zoom 0.5x..2x in 0.1 steps
	DefaultInterval    = 80
	DefaultZoom        = 1.0
	DefaultZoomMin     = 0.5
	DefaultZoomMax     = 2.0
	DefaultZoomStep    = 0.1
	DefaultMaxFillArea = 2500

	// Validation limits
	MinInterval    = 4
	MaxInterval    = 512
	MaxFillAreaCap = 1 << 16
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrFillTooLarge   = errors.New("fill area too large")
)

// CommandKind identifies an editor input command
type CommandKind string

const (
	CmdPlace  CommandKind = "place"
	CmdRemove CommandKind = "remove"
	CmdToggle CommandKind = "toggle"
	CmdFill   CommandKind = "fill"
	CmdClick  CommandKind = "click"
	CmdPan    CommandKind = "pan"
	CmdZoom   CommandKind = "zoom"
)

// Command is a discrete input sent to the editor.
// X/Y are cell coordinates, PX/PY screen pixels (click), DX/DY pan offsets and Delta a wheel delta.
type Command struct {
	Kind  CommandKind `json:"kind"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	PX    float64     `json:"px,omitempty"`
	PY    float64     `json:"py,omitempty"`
	Shift bool        `json:"shift,omitempty"`
	DX    float64     `json:"dx,omitempty"`
	DY    float64     `json:"dy,omitempty"`
	Delta float64     `json:"delta,omitempty"`
}

// Result reports what a command changed
type Result struct {
	Kind    CommandKind       `json:"kind"`
	Added   []track.Placement `json:"added,omitempty"`
	Removed []track.Coord     `json:"removed,omitempty"`
	Camera  Camera            `json:"camera"`
}

// Changed reports whether the track was modified
func (r *Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// ZoomConfig bounds the camera zoom
type ZoomConfig struct {
	Initial float64 `json:"initial" yaml:"initial"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Step    float64 `json:"step" yaml:"step"`
}

// ColorConfig holds CSS color names used by renderers
type ColorConfig struct {
	GridBorder string `json:"grid_border" yaml:"grid_border"`
	Selected   string `json:"selected" yaml:"selected"`
	Tile       string `json:"tile" yaml:"tile"`
	Start      string `json:"start" yaml:"start"`
}

// EditorConfig is an editor profile loaded from JSON or YAML
type EditorConfig struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Interval    int         `json:"interval" yaml:"interval"`
	Zoom        ZoomConfig  `json:"zoom" yaml:"zoom"`
	Colors      ColorConfig `json:"colors" yaml:"colors"`
	MaxFillArea int         `json:"max_fill_area" yaml:"max_fill_area"`
}

// Snapshot is a read-only view of the editor for transports
type Snapshot struct {
	ConfigName  string       `json:"config_name"`
	Tiles       []track.Tile `json:"tiles"`
	TileCount   int          `json:"tile_count"`
	Start       *track.Coord `json:"start"`
	LastAdded   *track.Coord `json:"last_added,omitempty"`
	LastRemoved *track.Coord `json:"last_removed,omitempty"`
	Camera      Camera       `json:"camera"`
	Render      []string     `json:"render,omitempty"`
}
