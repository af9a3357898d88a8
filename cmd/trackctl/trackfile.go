package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/wricardo/track-editor/game/track"
	"github.com/wricardo/track-editor/pkg/compress"
)

// readTrackFile loads a track document from a plain or zstd-compressed file.
// Session files are accepted too; their embedded track is used.
func readTrackFile(path string) (*track.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := compress.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var envelope struct {
		Track json.RawMessage `json:"track"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Track) > 0 {
		data = envelope.Track
	}

	doc, err := track.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// loadTrackFile reads and restores a grid
func loadTrackFile(path string) (*track.Grid, error) {
	doc, err := readTrackFile(path)
	if err != nil {
		return nil, err
	}
	g, err := track.LoadDocument(*doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// writeTrackFile writes doc as indented JSON, compressed when path ends in .zst
func writeTrackFile(path string, doc track.Document) error {
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if strings.HasSuffix(path, compress.Ext) {
		data, err = compress.Compress(data)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
