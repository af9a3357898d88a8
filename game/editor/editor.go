package editor

import (
	"fmt"

	"github.com/wricardo/track-editor/game/track"
)

// Editor provides the command surface of a track editing session
type Editor interface {
	// Track edits
	Place(x, y int) *Result
	Remove(x, y int) *Result
	Toggle(x, y int) *Result
	FillTo(x, y int) (*Result, error)
	Click(px, py float64, shift bool) (*Result, error)

	// View
	Pan(dx, dy float64) *Result
	Zoom(delta float64) *Result
	GetCamera() Camera

	// Dispatch
	Apply(cmd Command) (*Result, error)

	// Document
	Document() track.Document
	LoadDocument(doc track.Document) error
	Clear()
	Snapshot() *Snapshot
	GetTile(x, y int) (track.Tile, bool)

	// Configuration
	GetConfig() *EditorConfig
	SetConfig(config *EditorConfig) error
}

var _ Editor = (*TrackEditor)(nil)

// TrackEditor implements Editor over a track.Grid
type TrackEditor struct {
	grid   *track.Grid
	camera Camera
	config *EditorConfig
}

// NewEditor creates an editor with an empty track
func NewEditor(config *EditorConfig) (*TrackEditor, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return &TrackEditor{
		grid:   track.NewGrid(),
		camera: Camera{Zoom: config.Zoom.Initial},
		config: config,
	}, nil
}

// NewEditorWithDefaults creates an editor using DefaultConfig
func NewEditorWithDefaults() *TrackEditor {
	config := DefaultConfig()
	return &TrackEditor{
		grid:   track.NewGrid(),
		camera: Camera{Zoom: config.Zoom.Initial},
		config: config,
	}
}

// Grid exposes the underlying grid for read access by renderers
func (e *TrackEditor) Grid() *track.Grid {
	return e.grid
}

// Place adds a tile at (x, y) if the cell is empty
func (e *TrackEditor) Place(x, y int) *Result {
	result := e.newResult(CmdPlace)
	if p, ok := e.grid.Place(track.Coord{X: x, Y: y}); ok {
		result.Added = append(result.Added, p)
	}
	return result
}

// Remove deletes the tile at (x, y) if present
func (e *TrackEditor) Remove(x, y int) *Result {
	result := e.newResult(CmdRemove)
	c := track.Coord{X: x, Y: y}
	if e.grid.Remove(c) {
		result.Removed = append(result.Removed, c)
	}
	return result
}

// Toggle flips the presence of the tile at (x, y), like a plain click
func (e *TrackEditor) Toggle(x, y int) *Result {
	var result *Result
	if e.grid.Has(track.Coord{X: x, Y: y}) {
		result = e.Remove(x, y)
	} else {
		result = e.Place(x, y)
	}
	result.Kind = CmdToggle
	return result
}

// FillTo repeats the last edit over the rectangle between the anchor and (x, y).
// The anchor is the last added cell, or else the last removed one; without an
// anchor nothing happens. Cells are visited column by column, left to right,
// and the target becomes the next add anchor.
func (e *TrackEditor) FillTo(x, y int) (*Result, error) {
	result := e.newResult(CmdFill)

	anchor, adding := e.grid.LastAdded()
	if !adding {
		var ok bool
		anchor, ok = e.grid.LastRemoved()
		if !ok {
			return result, nil
		}
	}

	minX, maxX := minMax(x, anchor.X)
	minY, maxY := minMax(y, anchor.Y)
	area := (maxX - minX + 1) * (maxY - minY + 1)
	if area > e.config.MaxFillArea {
		return nil, fmt.Errorf("%w: %d cells exceeds limit %d", ErrFillTooLarge, area, e.config.MaxFillArea)
	}

	for i := minX; i <= maxX; i++ {
		for j := minY; j <= maxY; j++ {
			c := track.Coord{X: i, Y: j}
			if adding {
				if p, ok := e.grid.Place(c); ok {
					result.Added = append(result.Added, p)
				}
			} else if e.grid.Remove(c) {
				result.Removed = append(result.Removed, c)
			}
		}
	}

	// the target always becomes an add anchor, so a fill after a removing fill adds
	e.grid.SetLastAdded(track.Coord{X: x, Y: y})
	return result, nil
}

// Click handles a pointer click at screen pixel (px, py)
func (e *TrackEditor) Click(px, py float64, shift bool) (*Result, error) {
	cell := e.camera.ScreenToCell(px, py, e.config.Interval)
	if shift {
		result, err := e.FillTo(cell.X, cell.Y)
		if result != nil {
			result.Kind = CmdClick
		}
		return result, err
	}
	result := e.Toggle(cell.X, cell.Y)
	result.Kind = CmdClick
	return result, nil
}

// Pan moves the camera
func (e *TrackEditor) Pan(dx, dy float64) *Result {
	e.camera.Pan(dx, dy)
	return e.newResult(CmdPan)
}

// Zoom applies a wheel delta to the camera
func (e *TrackEditor) Zoom(delta float64) *Result {
	e.camera.ZoomBy(delta, e.config.Zoom)
	return e.newResult(CmdZoom)
}

// GetCamera returns the current camera
func (e *TrackEditor) GetCamera() Camera {
	return e.camera
}

// SetCamera restores a persisted camera, clamping zoom to the profile limits
func (e *TrackEditor) SetCamera(c Camera) {
	if c.Zoom < e.config.Zoom.Min || c.Zoom > e.config.Zoom.Max {
		c.Zoom = e.config.Zoom.Initial
	}
	e.camera = c
}

// Apply dispatches a command
func (e *TrackEditor) Apply(cmd Command) (*Result, error) {
	switch cmd.Kind {
	case CmdPlace:
		return e.Place(cmd.X, cmd.Y), nil
	case CmdRemove:
		return e.Remove(cmd.X, cmd.Y), nil
	case CmdToggle:
		return e.Toggle(cmd.X, cmd.Y), nil
	case CmdFill:
		return e.FillTo(cmd.X, cmd.Y)
	case CmdClick:
		return e.Click(cmd.PX, cmd.PY, cmd.Shift)
	case CmdPan:
		return e.Pan(cmd.DX, cmd.DY), nil
	case CmdZoom:
		return e.Zoom(cmd.Delta), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, string(cmd.Kind))
	}
}

// Document exports the track for persistence
func (e *TrackEditor) Document() track.Document {
	return e.grid.Save()
}

// LoadDocument replaces the track; the current track is kept if doc is rejected
func (e *TrackEditor) LoadDocument(doc track.Document) error {
	return e.grid.Load(doc)
}

// Clear removes every tile
func (e *TrackEditor) Clear() {
	e.grid.Clear()
}

// GetTile returns the tile at (x, y)
func (e *TrackEditor) GetTile(x, y int) (track.Tile, bool) {
	return e.grid.Tile(x, y)
}

// Snapshot returns a copy of the editor state including a text rendering
func (e *TrackEditor) Snapshot() *Snapshot {
	s := &Snapshot{
		ConfigName: e.config.Name,
		Tiles:      e.grid.Tiles(),
		TileCount:  e.grid.Len(),
		Camera:     e.camera,
		Render:     track.Render(e.grid),
	}
	if c, ok := e.grid.Start(); ok {
		s.Start = &c
	}
	if c, ok := e.grid.LastAdded(); ok {
		s.LastAdded = &c
	}
	if c, ok := e.grid.LastRemoved(); ok {
		s.LastRemoved = &c
	}
	return s
}

// GetConfig returns the editor profile
func (e *TrackEditor) GetConfig() *EditorConfig {
	return e.config
}

// SetConfig switches profiles, keeping the track and re-clamping the camera
func (e *TrackEditor) SetConfig(config *EditorConfig) error {
	if err := ValidateConfig(config); err != nil {
		return err
	}
	e.config = config
	e.SetCamera(e.camera)
	return nil
}

func (e *TrackEditor) newResult(kind CommandKind) *Result {
	return &Result{Kind: kind, Camera: e.camera}
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}
