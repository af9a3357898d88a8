package track

import "fmt"

// Placement describes a committed SetTile call that added a tile
type Placement struct {
	Tile    Tile    `json:"tile"`
	Patches []Patch `json:"patches,omitempty"`
}

// Grid owns every placed tile of a track. It is not safe for concurrent use.
type Grid struct {
	tiles map[Coord]*Tile
	order []Coord

	start       *Coord
	lastAdded   *Coord
	lastRemoved *Coord
}

// NewGrid creates an empty grid
func NewGrid() *Grid {
	return &Grid{
		tiles: make(map[Coord]*Tile),
	}
}

// SetTile places (present=true) or removes (present=false) the tile at (x, y).
// Placing onto an occupied cell and removing an empty cell are no-ops.
func (g *Grid) SetTile(x, y int, present bool) {
	c := Coord{X: x, Y: y}
	if present {
		g.Place(c)
		return
	}
	g.Remove(c)
}

// Place adds a tile at c, inferring its directions from the current neighbors.
// It reports false when c was already occupied.
func (g *Grid) Place(c Coord) (Placement, bool) {
	if _, exists := g.tiles[c]; exists {
		return Placement{}, false
	}

	res := Resolve(c, g.lookup)
	tile, patched, err := g.prepare(c, res)
	if err != nil {
		// Resolve only emits the four named directions
		panic(fmt.Sprintf("track: invalid resolution at %s: %v", c, err))
	}

	for at, t := range patched {
		*g.tiles[at] = t
	}
	g.tiles[c] = tile
	g.order = append(g.order, c)
	if g.start == nil {
		g.start = coordPtr(c)
	}
	g.lastAdded = coordPtr(c)
	g.lastRemoved = nil

	return Placement{Tile: *tile, Patches: res.Patches}, true
}

// prepare builds the new tile and the patched neighbors without touching the grid,
// so a bad resolution leaves every tile as it was.
func (g *Grid) prepare(c Coord, res Resolution) (*Tile, map[Coord]Tile, error) {
	tile, err := NewTile(c.X, c.Y, res.From, res.To)
	if err != nil {
		return nil, nil, err
	}

	patched := make(map[Coord]Tile, len(res.Patches))
	for _, p := range res.Patches {
		n, ok := patched[p.At]
		if !ok {
			current, exists := g.tiles[p.At]
			if !exists {
				return nil, nil, fmt.Errorf("patch at %s: no tile", p.At)
			}
			n = *current
		}
		if err := n.UpdateDirections(p.From, p.To); err != nil {
			return nil, nil, fmt.Errorf("patch at %s: %w", p.At, err)
		}
		patched[p.At] = n
	}
	return tile, patched, nil
}

// Remove deletes the tile at c, clearing the start when it was the start tile.
// The cell is recorded as last removed even when it was already empty.
func (g *Grid) Remove(c Coord) bool {
	g.lastRemoved = coordPtr(c)
	g.lastAdded = nil

	if _, exists := g.tiles[c]; !exists {
		return false
	}
	delete(g.tiles, c)
	for i, o := range g.order {
		if o == c {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	if g.start != nil && *g.start == c {
		g.start = nil
	}
	return true
}

// Tile returns a copy of the tile at (x, y)
func (g *Grid) Tile(x, y int) (Tile, bool) {
	return g.lookup(Coord{X: x, Y: y})
}

// Has reports whether a tile is placed at c
func (g *Grid) Has(c Coord) bool {
	_, ok := g.tiles[c]
	return ok
}

// Neighbors returns copies of the placed tiles around c, keyed by the direction from c
func (g *Grid) Neighbors(c Coord) map[Direction]Tile {
	out := make(map[Direction]Tile, len(Directions))
	for _, d := range Directions {
		if t, ok := g.lookup(c.Step(d)); ok {
			out[d] = t
		}
	}
	return out
}

// Each calls fn for every tile in placement order until fn returns false.
// fn receives a copy; the grid must not be modified during iteration.
func (g *Grid) Each(fn func(c Coord, t Tile) bool) {
	for _, c := range g.order {
		if !fn(c, *g.tiles[c]) {
			return
		}
	}
}

// Tiles returns copies of all tiles in placement order
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, 0, len(g.order))
	for _, c := range g.order {
		out = append(out, *g.tiles[c])
	}
	return out
}

// Len returns the number of placed tiles
func (g *Grid) Len() int {
	return len(g.tiles)
}

// Start returns the start tile coordinate, if one is set
func (g *Grid) Start() (Coord, bool) {
	return derefCoord(g.start)
}

// LastAdded returns the most recently placed coordinate, cleared by any removal
func (g *Grid) LastAdded() (Coord, bool) {
	return derefCoord(g.lastAdded)
}

// LastRemoved returns the most recently removed coordinate, cleared by any placement
func (g *Grid) LastRemoved() (Coord, bool) {
	return derefCoord(g.lastRemoved)
}

// SetLastAdded moves the add anchor to c and clears the remove anchor
func (g *Grid) SetLastAdded(c Coord) {
	g.lastAdded = coordPtr(c)
	g.lastRemoved = nil
}

// Bounds returns the smallest rectangle holding every tile
func (g *Grid) Bounds() (min, max Coord, ok bool) {
	for i, c := range g.order {
		if i == 0 {
			min, max = c, c
			continue
		}
		if c.X < min.X {
			min.X = c.X
		}
		if c.Y < min.Y {
			min.Y = c.Y
		}
		if c.X > max.X {
			max.X = c.X
		}
		if c.Y > max.Y {
			max.Y = c.Y
		}
	}
	return min, max, len(g.order) > 0
}

// Clear removes every tile and resets start and anchors
func (g *Grid) Clear() {
	g.tiles = make(map[Coord]*Tile)
	g.order = nil
	g.start = nil
	g.lastAdded = nil
	g.lastRemoved = nil
}

func (g *Grid) lookup(c Coord) (Tile, bool) {
	t, ok := g.tiles[c]
	if !ok {
		return Tile{}, false
	}
	return *t, true
}

func coordPtr(c Coord) *Coord {
	return &c
}

func derefCoord(c *Coord) (Coord, bool) {
	if c == nil {
		return Coord{}, false
	}
	return *c, true
}
