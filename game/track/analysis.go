package track

// OpenEnd is a tile side whose road leads nowhere: the neighboring cell is empty
// or its tile does not connect back.
type OpenEnd struct {
	At   Coord     `json:"at"`
	Side Direction `json:"side"`
}

// Analysis summarises how well a track is connected
type Analysis struct {
	Tiles      int       `json:"tiles"`
	Start      *Coord    `json:"start,omitempty"`
	Min        *Coord    `json:"min,omitempty"`
	Max        *Coord    `json:"max,omitempty"`
	Components int       `json:"components"`
	OpenEnds   []OpenEnd `json:"open_ends"`
	Closed     bool      `json:"closed"`
}

// linked reports whether the tiles at c and c.Step(d) join through their shared edge
func (g *Grid) linked(c Coord, d Direction) bool {
	t, ok := g.lookup(c)
	if !ok || !t.Connects(d) {
		return false
	}
	n, ok := g.lookup(c.Step(d))
	return ok && n.Connects(d.opposite())
}

// Analyze reports open ends and connected components. A track is closed when it
// forms one component without open ends, which makes it a single loop.
func Analyze(g *Grid) Analysis {
	a := Analysis{Tiles: g.Len(), OpenEnds: []OpenEnd{}}
	if start, ok := g.Start(); ok {
		a.Start = coordPtr(start)
	}
	if min, max, ok := g.Bounds(); ok {
		a.Min, a.Max = coordPtr(min), coordPtr(max)
	}

	seen := make(map[Coord]bool, a.Tiles)
	g.Each(func(c Coord, t Tile) bool {
		for _, side := range []Direction{t.From, t.To} {
			if !g.linked(c, side) {
				a.OpenEnds = append(a.OpenEnds, OpenEnd{At: c, Side: side})
			}
		}

		if seen[c] {
			return true
		}
		a.Components++
		stack := []Coord{c}
		seen[c] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, d := range Directions {
				next := cur.Step(d)
				if !seen[next] && g.linked(cur, d) {
					seen[next] = true
					stack = append(stack, next)
				}
			}
		}
		return true
	})

	a.Closed = a.Tiles > 0 && a.Components == 1 && len(a.OpenEnds) == 0
	return a
}
