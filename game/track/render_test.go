package track

import "testing"

func TestRender_Corner(t *testing.T) {
	g := NewGrid()
	g.SetTile(0, 0, true)
	g.SetTile(1, 0, true)
	g.SetTile(1, 1, true)

	rows := Render(g)
	expected := []string{"━┐", "·└"}
	if len(rows) != len(expected) {
		t.Fatalf("Expected %d rows, got %d: %q", len(expected), len(rows), rows)
	}
	for i := range expected {
		if rows[i] != expected[i] {
			t.Errorf("Row %d: expected %q, got %q", i, expected[i], rows[i])
		}
	}
}

func TestRender_Empty(t *testing.T) {
	if rows := Render(NewGrid()); len(rows) != 0 {
		t.Errorf("Expected no rows, got %q", rows)
	}
}

func TestGlyph(t *testing.T) {
	tests := []struct {
		tile     Tile
		start    bool
		expected rune
	}{
		{Tile{From: Up, To: Down}, false, '│'},
		{Tile{From: Down, To: Up}, false, '│'},
		{Tile{From: Right, To: Left}, true, '━'},
		{Tile{From: Right, To: Up}, false, '└'},
		{Tile{From: Left, To: Down}, false, '┐'},
		{Tile{From: Down, To: Right}, true, '┏'},
	}

	for _, test := range tests {
		if got := Glyph(test.tile, test.start); got != test.expected {
			t.Errorf("Glyph(%s/%s, %v): expected %q, got %q", test.tile.From, test.tile.To, test.start, test.expected, got)
		}
	}
}
