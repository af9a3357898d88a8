// Package track provides the road tile model and connectivity inference for the track editor.
//
// The track package implements:
//   - Direction and Coord value types with exact integer keys ("x,y")
//   - Tile, a placed road cell holding two distinct connection sides
//   - Grid, the sparse owner of every placed tile, the start tile and the edit anchors
//   - Resolve, the direction inference run on every placement
//   - Document, the persisted JSON shape, with schema-checked decoding
//
// Direction Inference:
//
// When a tile is placed, Resolve looks at the up to four placed neighbors in the
// order UP, DOWN, LEFT, RIGHT. Neighbors that already point at the new cell are
// joined first. Remaining neighbors with a free road end are bent toward the new
// cell. The new tile takes at most two connections; extra qualifying neighbors are
// left as they are. A tile with nothing to join keeps LEFT/RIGHT.
//
// Usage:
//
//	grid := track.NewGrid()
//	grid.SetTile(0, 0, true)
//	grid.SetTile(1, 0, true)
//	grid.SetTile(1, 1, true) // (1,0) becomes a LEFT/DOWN corner
//
//	doc := grid.Save()
//	data, _ := doc.Encode()
//
//	restored, err := track.DecodeDocument(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//	other, err := track.LoadDocument(*restored)
//
// A Grid is owned by a single editor and is not safe for concurrent use.
package track
