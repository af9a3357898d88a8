package track

import "testing"

func mapLookup(tiles map[Coord]Tile) Lookup {
	return func(c Coord) (Tile, bool) {
		t, ok := tiles[c]
		return t, ok
	}
}

func TestResolve_NoNeighbors(t *testing.T) {
	res := Resolve(Coord{X: 0, Y: 0}, mapLookup(nil))
	if res.From != NoDirection || res.To != NoDirection {
		t.Errorf("Expected empty resolution, got %+v", res)
	}
	if len(res.Patches) != 0 {
		t.Errorf("Expected no patches, got %+v", res.Patches)
	}
}

func TestResolve_DoesNotMutateNeighbors(t *testing.T) {
	tiles := map[Coord]Tile{
		{0, -1}: {X: 0, Y: -1, From: Left, To: Right},
		{0, 1}:  {X: 0, Y: 1, From: Left, To: Right},
	}
	res := Resolve(Coord{X: 0, Y: 0}, mapLookup(tiles))

	if res.From != Up || res.To != Down {
		t.Errorf("Expected UP/DOWN, got %s/%s", res.From, res.To)
	}
	if len(res.Patches) != 2 {
		t.Fatalf("Expected 2 patches, got %d", len(res.Patches))
	}
	if tiles[Coord{0, -1}].To != Right || tiles[Coord{0, 1}].To != Right {
		t.Error("Resolve modified neighbor tiles")
	}

	want := []Patch{
		{At: Coord{0, -1}, To: Down},
		{At: Coord{0, 1}, To: Up},
	}
	for i := range want {
		if res.Patches[i] != want[i] {
			t.Errorf("Patch %d: expected %+v, got %+v", i, want[i], res.Patches[i])
		}
	}
}

func TestResolve_ScanOrder(t *testing.T) {
	// RIGHT and DOWN both point back; DOWN scans first and takes the from slot.
	tiles := map[Coord]Tile{
		{1, 0}: {X: 1, Y: 0, From: Left, To: Down},
		{0, 1}: {X: 0, Y: 1, From: Up, To: Right},
	}
	res := Resolve(Coord{X: 0, Y: 0}, mapLookup(tiles))

	if res.From != Down || res.To != Right {
		t.Errorf("Expected DOWN/RIGHT, got %s/%s", res.From, res.To)
	}
}

func TestResolve_StopsAfterPassOneFillsBothSlots(t *testing.T) {
	tiles := map[Coord]Tile{
		{0, -1}: {X: 0, Y: -1, From: Up, To: Down},
		{0, 1}:  {X: 0, Y: 1, From: Up, To: Down},
		// A free neighbor that would otherwise be bent in the second pass.
		{-1, 0}: {X: -1, Y: 0, From: Up, To: Down},
	}
	res := Resolve(Coord{X: 0, Y: 0}, mapLookup(tiles))

	if res.From != Up || res.To != Down {
		t.Errorf("Expected UP/DOWN, got %s/%s", res.From, res.To)
	}
	if len(res.Patches) != 0 {
		t.Errorf("Expected the second pass to be skipped, got patches %+v", res.Patches)
	}
}

func TestResolve_NeighborWithBothSidesTaken(t *testing.T) {
	tiles := map[Coord]Tile{
		{0, -1}:  {X: 0, Y: -1, From: Left, To: Right},
		{-1, -1}: {X: -1, Y: -1, From: Right, To: Left},
		{1, -1}:  {X: 1, Y: -1, From: Left, To: Right},
	}
	res := Resolve(Coord{X: 0, Y: 0}, mapLookup(tiles))

	if res.From != NoDirection || res.To != NoDirection || len(res.Patches) != 0 {
		t.Errorf("Expected nothing to join, got %+v", res)
	}
}
