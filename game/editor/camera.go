package editor

import (
	"math"

	"github.com/wricardo/track-editor/game/track"
)

// Camera maps screen pixels onto grid cells
type Camera struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Zoom    float64 `json:"zoom"`
}

// CellSize returns the on-screen size of one cell in pixels
func (c Camera) CellSize(interval int) float64 {
	return float64(interval) * c.Zoom
}

// ScreenToCell returns the cell under the screen point (px, py)
func (c Camera) ScreenToCell(px, py float64, interval int) track.Coord {
	size := c.CellSize(interval)
	if size <= 0 {
		return track.Coord{}
	}
	return track.Coord{
		X: int(math.Floor((px - c.OffsetX) / size)),
		Y: int(math.Floor((py - c.OffsetY) / size)),
	}
}

// CellToScreen returns the top-left screen pixel of a cell
func (c Camera) CellToScreen(cell track.Coord, interval int) (float64, float64) {
	size := c.CellSize(interval)
	return float64(cell.X)*size + c.OffsetX, float64(cell.Y)*size + c.OffsetY
}

// Pan shifts the view by (dx, dy) pixels
func (c *Camera) Pan(dx, dy float64) {
	c.OffsetX += dx
	c.OffsetY += dy
}

// ZoomBy applies one wheel notch: a positive delta zooms out, a negative delta zooms in
func (c *Camera) ZoomBy(delta float64, zc ZoomConfig) {
	if delta == 0 {
		return
	}
	if delta > 0 {
		c.Zoom -= zc.Step
	} else {
		c.Zoom += zc.Step
	}
	// keep zoom on the step grid so repeated notches do not drift
	c.Zoom = math.Round(c.Zoom*1000) / 1000
	c.Zoom = math.Max(zc.Min, math.Min(zc.Max, c.Zoom))
}
