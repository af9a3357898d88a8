package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/track-editor/game/config"
	"github.com/wricardo/track-editor/game/service"
	"github.com/wricardo/track-editor/game/track"
	"github.com/wricardo/track-editor/pkg/compress"
)

func newTestConfigManager(t *testing.T) *config.Manager {
	t.Helper()
	configManager, err := config.NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	return configManager
}

// newEditedSession builds a session holding an L-shaped three tile track
func newEditedSession(t *testing.T, id string) *service.Session {
	t.Helper()
	sess, err := service.NewSession(id, "default", createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	sess.TrackName = "Test Track"
	sess.Editor.Place(0, 0)
	sess.Editor.Place(1, 0)
	sess.Editor.Place(1, 1)
	sess.Editor.Pan(12, -4)
	return sess
}

func assertSameTrack(t *testing.T, want, got *service.Session) {
	t.Helper()
	wantDoc, _ := json.Marshal(want.Editor.Document())
	gotDoc, _ := json.Marshal(got.Editor.Document())
	if string(wantDoc) != string(gotDoc) {
		t.Errorf("Track mismatch:\nwant %s\ngot  %s", wantDoc, gotDoc)
	}
	if want.Editor.GetCamera() != got.Editor.GetCamera() {
		t.Errorf("Expected camera %+v, got %+v", want.Editor.GetCamera(), got.Editor.GetCamera())
	}
	if got.TrackName != want.TrackName {
		t.Errorf("Expected track name %q, got %q", want.TrackName, got.TrackName)
	}
}

func TestFilePersistence(t *testing.T) {
	tempDir := t.TempDir()
	persistence, err := NewFilePersistence(tempDir, newTestConfigManager(t))
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	original := newEditedSession(t, "ab12")

	t.Run("Save and Load", func(t *testing.T) {
		if err := persistence.Save(original); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
		if !persistence.Exists("ab12") {
			t.Fatal("Expected session to exist after save")
		}

		loaded, err := persistence.Load("ab12")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if loaded.ID != original.ID || loaded.ConfigID != "default" {
			t.Errorf("Unexpected identity %s/%s", loaded.ID, loaded.ConfigID)
		}
		if !loaded.CreatedAt.Equal(original.CreatedAt) {
			t.Errorf("Expected created_at %v, got %v", original.CreatedAt, loaded.CreatedAt)
		}
		assertSameTrack(t, original, loaded)
	})

	t.Run("Loaded tracks keep inferring", func(t *testing.T) {
		loaded, err := persistence.Load("ab12")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		placement, ok := loaded.Editor.Grid().Place(track.Coord{X: 1, Y: 2})
		if !ok {
			t.Fatal("Expected placement below the restored track")
		}
		if placement.Tile.From != track.Up {
			t.Errorf("Expected new tile to connect UP, got %s", placement.Tile.From)
		}
	})

	t.Run("Load non-existent session", func(t *testing.T) {
		if _, err := persistence.Load("nope"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("ListAll", func(t *testing.T) {
		other := newEditedSession(t, "cd34")
		if err := persistence.Save(other); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
		ids, err := persistence.ListAll()
		if err != nil {
			t.Fatalf("Failed to list sessions: %v", err)
		}
		if strings.Join(ids, ",") != "ab12,cd34" {
			t.Errorf("Expected [ab12 cd34], got %v", ids)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := persistence.Delete("cd34"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if persistence.Exists("cd34") {
			t.Error("Expected session to be gone after delete")
		}
		if err := persistence.Delete("cd34"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
		}
	})

	t.Run("Corrupt track is rejected", func(t *testing.T) {
		bad := `{"id":"bad1","config_name":"default","track":{"start":"9,9","tiles":[{"key":"0,0","tile":{"x":0,"y":0,"from":"NORTH","to":"RIGHT"}}]}}`
		if err := os.WriteFile(filepath.Join(tempDir, "bad1.json"), []byte(bad), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := persistence.Load("bad1"); !errors.Is(err, track.ErrMalformedDocument) {
			t.Errorf("Expected ErrMalformedDocument, got %v", err)
		}
	})

	t.Run("Unknown profile falls back to default", func(t *testing.T) {
		orphan := newEditedSession(t, "ef56")
		orphan.ConfigID = "deleted-profile"
		if err := persistence.Save(orphan); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
		loaded, err := persistence.Load("ef56")
		if err != nil {
			t.Fatalf("Expected load with default profile, got %v", err)
		}
		if loaded.Config == nil || loaded.Editor.Grid().Len() != 3 {
			t.Error("Expected restored session with default profile")
		}
	})
}

func TestFilePersistenceCompression(t *testing.T) {
	tempDir := t.TempDir()
	configManager := newTestConfigManager(t)

	plain, err := NewFilePersistence(tempDir, configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	packed, err := NewFilePersistence(tempDir, configManager, WithCompression(true))
	if err != nil {
		t.Fatalf("Failed to create compressed persistence: %v", err)
	}

	original := newEditedSession(t, "9f9f")
	if err := plain.Save(original); err != nil {
		t.Fatalf("Failed to save plain session: %v", err)
	}
	if err := packed.Save(original); err != nil {
		t.Fatalf("Failed to save compressed session: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, "9f9f.json")); !os.IsNotExist(err) {
		t.Error("Expected the plain file to be replaced by the compressed one")
	}
	raw, err := os.ReadFile(filepath.Join(tempDir, "9f9f.json.zst"))
	if err != nil {
		t.Fatalf("Expected compressed file: %v", err)
	}
	if !compress.IsCompressed(raw) {
		t.Error("Expected zstd content")
	}

	// the plain reader understands compressed files too
	loaded, err := plain.Load("9f9f")
	if err != nil {
		t.Fatalf("Failed to load compressed session: %v", err)
	}
	assertSameTrack(t, original, loaded)

	ids, _ := plain.ListAll()
	if len(ids) != 1 || ids[0] != "9f9f" {
		t.Errorf("Expected single id 9f9f, got %v", ids)
	}

	if err := plain.Delete("9f9f"); err != nil {
		t.Fatalf("Failed to delete compressed session: %v", err)
	}
	if plain.Exists("9f9f") {
		t.Error("Expected session to be deleted")
	}
}

func TestFilePersistenceFileStructure(t *testing.T) {
	tempDir := t.TempDir()
	persistence, err := NewFilePersistence(tempDir, newTestConfigManager(t))
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	if err := persistence.Save(newEditedSession(t, "1a2b")); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(tempDir, "1a2b.json"))
	if err != nil {
		t.Fatalf("Failed to read session file: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("Session file is not JSON: %v", err)
	}
	for _, key := range []string{"id", "config_name", "track_name", "created_at", "last_accessed_at", "camera", "track"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("Expected key %q in session file", key)
		}
	}

	doc, err := track.DecodeDocument(fields["track"])
	if err != nil {
		t.Fatalf("Embedded track does not decode: %v", err)
	}
	if doc.Start == nil || *doc.Start != "0,0" {
		t.Errorf("Expected start 0,0, got %v", doc.Start)
	}
	if len(doc.Tiles) != 3 || doc.Tiles[2].Key != "1,1" {
		t.Errorf("Expected tiles in placement order, got %+v", doc.Tiles)
	}
}

func TestSessionIDFromFile(t *testing.T) {
	tests := []struct {
		name   string
		wantID string
		wantOK bool
	}{
		{"ab12.json", "ab12", true},
		{"ab12.json.zst", "ab12", true},
		{"/tmp/sessions/ab12.json", "ab12", true},
		{"ab12.tmp", "", false},
		{"notes.txt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := SessionIDFromFile(tt.name)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.wantID, tt.wantOK, id, ok)
			}
		})
	}
}
