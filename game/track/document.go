package track

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Document is the persisted form of a track
type Document struct {
	Start *string         `json:"start"`
	Tiles []DocumentEntry `json:"tiles"`
}

// DocumentEntry pairs a coordinate key with its tile
type DocumentEntry struct {
	Key  string `json:"key"`
	Tile Tile   `json:"tile"`
}

const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["start", "tiles"],
  "properties": {
    "start": {
      "anyOf": [
        {"type": "null"},
        {"type": "string", "pattern": "^[+-]?[0-9]+,[+-]?[0-9]+$"}
      ]
    },
    "tiles": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["key", "tile"],
        "properties": {
          "key": {"type": "string", "pattern": "^[+-]?[0-9]+,[+-]?[0-9]+$"},
          "tile": {
            "type": "object",
            "required": ["x", "y", "from", "to"],
            "properties": {
              "x": {"type": "integer"},
              "y": {"type": "integer"},
              "from": {"enum": ["UP", "DOWN", "LEFT", "RIGHT"]},
              "to": {"enum": ["UP", "DOWN", "LEFT", "RIGHT"]}
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("track.schema.json", documentSchema)
	})
	return compiledSchema, schemaErr
}

// DecodeDocument parses and validates a persisted track. Structural problems such as
// missing fields or unknown direction names are reported as ErrMalformedDocument.
func DecodeDocument(data []byte) (*Document, error) {
	s, err := schema()
	if err != nil {
		return nil, fmt.Errorf("compile track schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := s.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return &doc, nil
}

// Encode renders the document as indented JSON
func (d Document) Encode() ([]byte, error) {
	if d.Tiles == nil {
		d.Tiles = []DocumentEntry{}
	}
	return json.MarshalIndent(d, "", "  ")
}

// Save exports the grid in placement order
func (g *Grid) Save() Document {
	doc := Document{Tiles: make([]DocumentEntry, 0, len(g.order))}
	if g.start != nil {
		key := g.start.Key()
		doc.Start = &key
	}
	for _, c := range g.order {
		doc.Tiles = append(doc.Tiles, DocumentEntry{Key: c.Key(), Tile: *g.tiles[c]})
	}
	return doc
}

// Load replaces the grid contents with doc. Directions are restored as stored,
// without inference. On error the grid is left unchanged.
func (g *Grid) Load(doc Document) error {
	tiles := make(map[Coord]*Tile, len(doc.Tiles))
	order := make([]Coord, 0, len(doc.Tiles))

	for i, e := range doc.Tiles {
		c, err := ParseCoord(e.Key)
		if err != nil {
			return fmt.Errorf("%w: tiles[%d]: %v", ErrMalformedDocument, i, err)
		}
		if e.Tile.X != c.X || e.Tile.Y != c.Y {
			return fmt.Errorf("%w: tiles[%d]: key %s does not match tile %d,%d", ErrMalformedDocument, i, e.Key, e.Tile.X, e.Tile.Y)
		}
		if _, dup := tiles[c]; dup {
			return fmt.Errorf("%w: tiles[%d]: duplicate key %s", ErrMalformedDocument, i, e.Key)
		}
		if !e.Tile.From.Valid() || !e.Tile.To.Valid() {
			return fmt.Errorf("%w: tiles[%d]: %v: from=%q to=%q", ErrMalformedDocument, i, ErrInvalidDirection, string(e.Tile.From), string(e.Tile.To))
		}
		if e.Tile.From == e.Tile.To {
			return fmt.Errorf("%w: tiles[%d]: from and to are both %s", ErrMalformedDocument, i, e.Tile.From)
		}
		t := e.Tile
		tiles[c] = &t
		order = append(order, c)
	}

	var start *Coord
	if doc.Start != nil {
		c, err := ParseCoord(*doc.Start)
		if err != nil {
			return fmt.Errorf("%w: start: %v", ErrMalformedDocument, err)
		}
		if _, ok := tiles[c]; !ok {
			return fmt.Errorf("%w: start %s has no tile", ErrMalformedDocument, *doc.Start)
		}
		start = &c
	}

	g.tiles = tiles
	g.order = order
	g.start = start
	g.lastAdded = nil
	g.lastRemoved = nil
	return nil
}

// LoadDocument builds a new grid from doc
func LoadDocument(doc Document) (*Grid, error) {
	g := NewGrid()
	if err := g.Load(doc); err != nil {
		return nil, err
	}
	return g, nil
}
