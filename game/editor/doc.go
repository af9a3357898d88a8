// Package editor provides the editing session for a race track.
//
// The editor package implements:
//   - An explicit command surface (place, remove, toggle, fill, click, pan, zoom)
//   - Shift-click rectangle fills anchored on the last added or removed cell
//   - A camera translating screen pixels to grid cells with clamped zoom
//   - Editor profiles (cell interval, zoom limits, colors, fill limit) and their validation
//
// Core Types:
//
// The Editor interface defines the contract used by the service layer and is
// implemented by TrackEditor, which owns a track.Grid. Commands arrive as
// Command values so transports never touch the grid directly.
//
// Usage:
//
//	ed, err := editor.NewEditor(editor.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ed.Place(0, 0)
//	ed.Place(1, 0)
//	ed.Apply(editor.Command{Kind: editor.CmdFill, X: 5, Y: 0})
//
//	doc := ed.Document()
package editor
