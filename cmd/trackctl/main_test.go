package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/track-editor/game/track"
	"github.com/wricardo/track-editor/pkg/compress"
)

// run executes trackctl with args and returns what it printed
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(context.Background(), append([]string{"trackctl"}, args...))
	return out.String(), err
}

func writeSquare(t *testing.T, name string) string {
	t.Helper()
	g := track.NewGrid()
	for _, c := range []track.Coord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}} {
		g.SetTile(c.X, c.Y, true)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := writeTrackFile(path, g.Save()); err != nil {
		t.Fatalf("Failed to write track: %v", err)
	}
	return path
}

func TestTrackFiles(t *testing.T) {
	t.Run("compressed round trip", func(t *testing.T) {
		path := writeSquare(t, "square.json"+compress.Ext)

		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !compress.IsCompressed(raw) {
			t.Error("Expected .zst file to be compressed")
		}

		g, err := loadTrackFile(path)
		if err != nil {
			t.Fatalf("Failed to load track: %v", err)
		}
		if g.Len() != 4 {
			t.Errorf("Expected 4 tiles, got %d", g.Len())
		}
	})

	t.Run("session file embeds the track", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ab12.json")
		data := `{"id":"ab12","config_id":"default","track":{"start":"0,0","tiles":[{"key":"0,0","tile":{"x":0,"y":0,"from":"LEFT","to":"RIGHT"}}]}}`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}

		doc, err := readTrackFile(path)
		if err != nil {
			t.Fatalf("Failed to read session file: %v", err)
		}
		if len(doc.Tiles) != 1 || doc.Start == nil || *doc.Start != "0,0" {
			t.Errorf("Unexpected document %+v", doc)
		}
	})

	t.Run("malformed document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte(`{"tiles":"nope"}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := readTrackFile(path); !errors.Is(err, track.ErrMalformedDocument) {
			t.Errorf("Expected ErrMalformedDocument, got %v", err)
		}
	})

	t.Run("start without tile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "start.json")
		if err := os.WriteFile(path, []byte(`{"start":"3,3","tiles":[]}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := loadTrackFile(path); err == nil {
			t.Error("Expected error for start without tile")
		}
	})
}

func TestValidateCommand(t *testing.T) {
	t.Run("shipped profiles", func(t *testing.T) {
		out, err := run(t, "validate", "--config-dir", "../../configs")
		if err != nil {
			t.Fatalf("Expected shipped profiles to validate, got %v\n%s", err, out)
		}
		for _, name := range []string{"default.json", "compact.json", "touch.yaml"} {
			if !strings.Contains(out, name) {
				t.Errorf("Expected %s in output:\n%s", name, out)
			}
		}
		if !strings.Contains(out, "All files are valid") {
			t.Errorf("Expected success summary, got:\n%s", out)
		}
	})

	t.Run("invalid profile", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"name":"broken","interval":-5}`), 0644); err != nil {
			t.Fatal(err)
		}

		out, err := run(t, "validate", "--config-dir", dir)
		if !errors.Is(err, errInvalid) {
			t.Errorf("Expected errInvalid, got %v", err)
		}
		if !strings.Contains(out, "❌ INVALID") {
			t.Errorf("Expected INVALID marker, got:\n%s", out)
		}
	})

	t.Run("track files are checked", func(t *testing.T) {
		path := writeSquare(t, "square.json")
		out, err := run(t, "validate", "--config-dir", t.TempDir(), path)
		if err != nil {
			t.Fatalf("Unexpected error: %v\n%s", err, out)
		}
		if !strings.Contains(out, "✓ 4 tiles") {
			t.Errorf("Expected tile count, got:\n%s", out)
		}
	})
}

func TestAnalyzeCommand(t *testing.T) {
	path := writeSquare(t, "square.json")

	out, err := run(t, "analyze", path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, want := range []string{"Tiles: 4 | Start: 0,0", "Components: 1", "Open ends: none", "Closed loop"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	out, err = run(t, "analyze", "--json", path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var reports map[string]track.Analysis
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("Expected JSON output, got %v:\n%s", err, out)
	}
	if !reports[path].Closed {
		t.Errorf("Expected closed loop in JSON report, got %+v", reports[path])
	}

	if _, err := run(t, "analyze"); err == nil {
		t.Error("Expected error without files")
	}
}

func TestRenderCommand(t *testing.T) {
	path := writeSquare(t, "square.json")

	out, err := run(t, "render", path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != "┏┐\n└┘\n" {
		t.Errorf("Expected square render, got %q", out)
	}
}

func TestImportExport(t *testing.T) {
	for _, store := range []string{"file", "sqlite"} {
		t.Run(store, func(t *testing.T) {
			dir := t.TempDir()
			storeArgs := []string{
				"--config-dir", "../../configs",
				"--store", store,
				"--sessions-dir", filepath.Join(dir, "sessions"),
				"--db-path", filepath.Join(dir, "sessions.db"),
			}
			src := writeSquare(t, "square.json")

			args := append([]string{"import"}, storeArgs...)
			args = append(args, "--id", "ab12", "--name", "Square", src)
			out, err := run(t, args...)
			if err != nil {
				t.Fatalf("Import failed: %v", err)
			}
			if !strings.Contains(out, "Imported 4 tiles into session ab12") {
				t.Errorf("Unexpected import output %q", out)
			}

			dst := filepath.Join(dir, "export.json"+compress.Ext)
			args = append([]string{"export"}, storeArgs...)
			args = append(args, "--out", dst, "ab12")
			if _, err := run(t, args...); err != nil {
				t.Fatalf("Export failed: %v", err)
			}

			g, err := loadTrackFile(dst)
			if err != nil {
				t.Fatalf("Failed to load export: %v", err)
			}
			if a := track.Analyze(g); !a.Closed || a.Tiles != 4 {
				t.Errorf("Expected exported closed loop of 4 tiles, got %+v", a)
			}

			args = append([]string{"export"}, storeArgs...)
			args = append(args, "missing")
			if _, err := run(t, args...); err == nil {
				t.Error("Expected error exporting unknown session")
			}
		})
	}

	t.Run("unknown store", func(t *testing.T) {
		src := writeSquare(t, "square.json")
		if _, err := run(t, "import", "--config-dir", "../../configs", "--store", "redis", src); err == nil {
			t.Error("Expected error for unknown store")
		}
	})
}
