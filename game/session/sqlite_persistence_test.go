package session

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLitePersistence(t *testing.T) {
	persistence, err := NewSQLitePersistence(filepath.Join(t.TempDir(), "nested", "sessions.db"), newTestConfigManager(t))
	if err != nil {
		t.Fatalf("Failed to open sqlite persistence: %v", err)
	}
	defer persistence.Close()

	original := newEditedSession(t, "AB12")

	t.Run("Save and Load", func(t *testing.T) {
		if err := persistence.Save(original); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
		loaded, err := persistence.Load("ab12")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		assertSameTrack(t, original, loaded)
	})

	t.Run("Save twice upserts", func(t *testing.T) {
		original.Editor.Place(2, 0)
		if err := persistence.Save(original); err != nil {
			t.Fatalf("Failed to re-save session: %v", err)
		}
		ids, err := persistence.ListAll()
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(ids) != 1 || ids[0] != "ab12" {
			t.Errorf("Expected single lower-cased id, got %v", ids)
		}
		loaded, _ := persistence.Load("AB12")
		if loaded.Editor.Grid().Len() != 4 {
			t.Errorf("Expected 4 tiles after upsert, got %d", loaded.Editor.Grid().Len())
		}
	})

	t.Run("Exists and Delete", func(t *testing.T) {
		if !persistence.Exists("Ab12") {
			t.Error("Expected case-insensitive Exists")
		}
		if err := persistence.Delete("ab12"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if persistence.Exists("ab12") {
			t.Error("Expected session to be deleted")
		}
		if err := persistence.Delete("ab12"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
		if _, err := persistence.Load("ab12"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound on load, got %v", err)
		}
	})

	t.Run("Empty path", func(t *testing.T) {
		if _, err := NewSQLitePersistence("", nil); err == nil {
			t.Error("Expected error for empty path")
		}
	})
}
