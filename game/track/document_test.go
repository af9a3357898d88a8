package track

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestDocument_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := NewGrid()
	for i := 0; i < 300; i++ {
		g.SetTile(rng.Intn(10)-5, rng.Intn(10)-5, rng.Intn(4) != 0)
	}

	doc := g.Save()
	data, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("DecodeDocument failed: %v", err)
	}
	restored, err := LoadDocument(*decoded)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	if restored.Len() != g.Len() {
		t.Fatalf("Expected %d tiles, got %d", g.Len(), restored.Len())
	}
	g.Each(func(c Coord, want Tile) bool {
		got, ok := restored.Tile(c.X, c.Y)
		if !ok {
			t.Errorf("Missing tile %s after round trip", c)
			return true
		}
		if got != want {
			t.Errorf("Tile %s: expected %+v, got %+v", c, want, got)
		}
		return true
	})

	wantStart, wantOK := g.Start()
	gotStart, gotOK := restored.Start()
	if wantOK != gotOK || wantStart != gotStart {
		t.Errorf("Start: expected %v %v, got %v %v", wantStart, wantOK, gotStart, gotOK)
	}
	if !documentsEqual(doc, restored.Save()) {
		t.Error("Saving the restored grid produced a different document")
	}
}

func TestDocument_EmptyGrid(t *testing.T) {
	doc := NewGrid().Save()
	data, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(string(data), `"start": null`) {
		t.Errorf("Expected null start in %s", data)
	}
	if !strings.Contains(string(data), `"tiles": []`) {
		t.Errorf("Expected empty tiles array in %s", data)
	}

	decoded, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("DecodeDocument failed: %v", err)
	}
	if decoded.Start != nil || len(decoded.Tiles) != 0 {
		t.Errorf("Unexpected decoded document: %+v", decoded)
	}
}

func TestDocument_PersistedShape(t *testing.T) {
	g := NewGrid()
	g.SetTile(-1, 2, true)

	data, err := g.Save().Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for _, want := range []string{`"start": "-1,2"`, `"key": "-1,2"`, `"x": -1`, `"y": 2`, `"from": "LEFT"`, `"to": "RIGHT"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected %s in %s", want, data)
		}
	}
}

func TestDocument_EncodeEmpty(t *testing.T) {
	var doc Document

	data, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(string(data), `"tiles": []`) || !strings.Contains(string(data), `"start": null`) {
		t.Errorf("Expected empty tile list and null start, got %s", data)
	}
	if doc.Tiles != nil {
		t.Error("Expected Encode to leave the document unchanged")
	}

	decoded, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("Expected encoded empty document to decode, got %v", err)
	}
	if len(decoded.Tiles) != 0 || decoded.Start != nil {
		t.Errorf("Unexpected decoded document: %+v", decoded)
	}
}

func TestDecodeDocument_Malformed(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{"start":`},
		{"missing tiles", `{"start": null}`},
		{"missing start", `{"tiles": []}`},
		{"unknown direction", `{"start": null, "tiles": [{"key": "0,0", "tile": {"x": 0, "y": 0, "from": "NORTH", "to": "DOWN"}}]}`},
		{"lowercase direction", `{"start": null, "tiles": [{"key": "0,0", "tile": {"x": 0, "y": 0, "from": "up", "to": "DOWN"}}]}`},
		{"missing x", `{"start": null, "tiles": [{"key": "0,0", "tile": {"y": 0, "from": "UP", "to": "DOWN"}}]}`},
		{"missing tile", `{"start": null, "tiles": [{"key": "0,0"}]}`},
		{"bad key", `{"start": null, "tiles": [{"key": "0;0", "tile": {"x": 0, "y": 0, "from": "UP", "to": "DOWN"}}]}`},
		{"fractional x", `{"start": null, "tiles": [{"key": "0,0", "tile": {"x": 0.5, "y": 0, "from": "UP", "to": "DOWN"}}]}`},
		{"bad start", `{"start": "zero", "tiles": []}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeDocument([]byte(test.json))
			if !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("Expected ErrMalformedDocument, got %v", err)
			}
		})
	}
}

func TestGridLoad_RejectsInconsistentDocuments(t *testing.T) {
	start := func(s string) *string { return &s }

	tests := []struct {
		name string
		doc  Document
	}{
		{
			name: "key mismatch",
			doc: Document{Tiles: []DocumentEntry{
				{Key: "1,1", Tile: Tile{X: 0, Y: 1, From: Up, To: Down}},
			}},
		},
		{
			name: "duplicate key",
			doc: Document{Tiles: []DocumentEntry{
				{Key: "0,0", Tile: Tile{X: 0, Y: 0, From: Up, To: Down}},
				{Key: "0,0", Tile: Tile{X: 0, Y: 0, From: Left, To: Right}},
			}},
		},
		{
			name: "equal sides",
			doc: Document{Tiles: []DocumentEntry{
				{Key: "0,0", Tile: Tile{X: 0, Y: 0, From: Up, To: Up}},
			}},
		},
		{
			name: "invalid direction",
			doc: Document{Tiles: []DocumentEntry{
				{Key: "0,0", Tile: Tile{X: 0, Y: 0, From: "SIDEWAYS", To: Up}},
			}},
		},
		{
			name: "start without tile",
			doc: Document{Start: start("3,3"), Tiles: []DocumentEntry{
				{Key: "0,0", Tile: Tile{X: 0, Y: 0, From: Up, To: Down}},
			}},
		},
		{
			name: "unparsable start",
			doc:  Document{Start: start("x"), Tiles: []DocumentEntry{}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := NewGrid()
			g.SetTile(7, 7, true)
			before := g.Save()

			err := g.Load(test.doc)
			if !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("Expected ErrMalformedDocument, got %v", err)
			}
			if !documentsEqual(before, g.Save()) {
				t.Error("Grid changed after a rejected load")
			}
		})
	}
}

func TestGridLoad_RestoresVerbatim(t *testing.T) {
	start := "0,0"
	doc := Document{
		Start: &start,
		Tiles: []DocumentEntry{
			// Directions that inference would never produce are kept as stored.
			{Key: "0,0", Tile: Tile{X: 0, Y: 0, From: Up, To: Left}},
			{Key: "1,0", Tile: Tile{X: 1, Y: 0, From: Down, To: Up}},
		},
	}

	g, err := LoadDocument(doc)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	assertTile(t, g, 0, 0, Up, Left)
	assertTile(t, g, 1, 0, Down, Up)

	if _, ok := g.LastAdded(); ok {
		t.Error("Expected no anchor after load")
	}
}
