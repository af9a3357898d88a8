package track

// Lookup returns a copy of the tile at c, if one is placed there
type Lookup func(c Coord) (Tile, bool)

// Patch is an update to an existing neighbor, applied with UpdateDirections.
// Exactly one of From and To is set.
type Patch struct {
	At   Coord     `json:"at"`
	From Direction `json:"from,omitempty"`
	To   Direction `json:"to,omitempty"`
}

// Resolution is the outcome of direction inference for one placement.
// From and To may be NoDirection; NewTile fills them with defaults.
type Resolution struct {
	From    Direction `json:"from"`
	To      Direction `json:"to"`
	Patches []Patch   `json:"patches,omitempty"`
}

func (r *Resolution) full() bool {
	return r.From != NoDirection && r.To != NoDirection
}

func (r *Resolution) accept(d Direction) {
	if r.From == NoDirection {
		r.From = d
		return
	}
	r.To = d
}

// Resolve infers the sides of a tile about to be placed at `at`.
//
// Neighbors are scanned in the order UP, DOWN, LEFT, RIGHT. The first pass accepts
// every neighbor that already has a side pointing back at `at`. The second pass
// visits the remaining neighbors and bends one of their sides toward `at`, but only
// a side with no tile beyond it, so committed road is never rerouted. The scan
// stops as soon as both sides are filled; further neighbors are ignored.
//
// Resolve only reads through lookup. Patches are returned for the caller to apply
// together with the new tile.
func Resolve(at Coord, lookup Lookup) Resolution {
	var res Resolution
	var accepted [len(Directions)]bool

	for i, d := range Directions {
		n, ok := lookup(at.Step(d))
		if !ok {
			continue
		}
		if n.Connects(d.opposite()) {
			accepted[i] = true
			res.accept(d)
			if res.full() {
				return res
			}
		}
	}

	for i, d := range Directions {
		if accepted[i] {
			continue
		}
		pos := at.Step(d)
		n, ok := lookup(pos)
		if !ok {
			continue
		}
		patch, ok := bendToward(pos, n, d.opposite(), lookup)
		if !ok {
			continue
		}
		res.Patches = append(res.Patches, patch)
		res.accept(d)
		if res.full() {
			return res
		}
	}

	return res
}

// bendToward checks the neighbor n at pos along its own To and then From axis and
// returns a patch pointing the first free side at back.
func bendToward(pos Coord, n Tile, back Direction, lookup Lookup) (Patch, bool) {
	if freeSide(pos, n.To, back, lookup) {
		return Patch{At: pos, To: back}, true
	}
	if freeSide(pos, n.From, back, lookup) {
		return Patch{At: pos, From: back}, true
	}
	return Patch{}, false
}

func freeSide(pos Coord, side, back Direction, lookup Lookup) bool {
	if side == back {
		return false
	}
	_, taken := lookup(pos.Step(side))
	return !taken
}
