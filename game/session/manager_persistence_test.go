package session

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerWithPersistence(t *testing.T) {
	configManager := newTestConfigManager(t)
	persistence, err := NewFilePersistence(t.TempDir(), configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	manager := NewManagerWithPersistence(persistence)

	t.Run("Create Session Auto-Saves", func(t *testing.T) {
		session, err := manager.Create("auto1", "default", configManager.GetDefault())
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if !persistence.Exists(session.ID) {
			t.Error("Session should be auto-saved on creation")
		}
	})

	t.Run("Edits Persist Only On Save", func(t *testing.T) {
		session, _ := manager.Get("auto1")
		session.Editor.Place(0, 0)
		session.Editor.Place(0, 1)
		if err := manager.UpdateLastAccessed("auto1"); err != nil {
			t.Fatalf("UpdateLastAccessed failed: %v", err)
		}

		stored, err := persistence.Load("auto1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if stored.Editor.Grid().Len() != 0 {
			t.Errorf("Expected unsaved edits to stay in memory, got %d persisted tiles", stored.Editor.Grid().Len())
		}

		if err := manager.Save("auto1"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		loaded, err := persistence.Load("auto1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if loaded.Editor.Grid().Len() != 2 {
			t.Errorf("Expected 2 persisted tiles, got %d", loaded.Editor.Grid().Len())
		}
	})

	t.Run("Get Session Loads from Persistence", func(t *testing.T) {
		manager2 := NewManagerWithPersistence(persistence)
		session, err := manager2.Get("AUTO1")
		if err != nil {
			t.Fatalf("Failed to load session from persistence: %v", err)
		}
		if session.Editor.Grid().Len() != 2 {
			t.Errorf("Expected 2 tiles, got %d", session.Editor.Grid().Len())
		}
		if manager2.Count() != 1 {
			t.Errorf("Expected loaded session cached in memory, got %d", manager2.Count())
		}
	})

	t.Run("LoadPersistedSessions", func(t *testing.T) {
		manager.Create("auto2", "default", configManager.GetDefault())

		manager3 := NewManagerWithPersistence(persistence)
		if err := manager3.LoadPersistedSessions(); err != nil {
			t.Fatalf("LoadPersistedSessions failed: %v", err)
		}
		if manager3.Count() != 2 {
			t.Errorf("Expected 2 sessions, got %d", manager3.Count())
		}
	})

	t.Run("SaveAllSessions", func(t *testing.T) {
		session, _ := manager.Get("auto2")
		session.Editor.Place(5, 5)
		if err := manager.SaveAllSessions(); err != nil {
			t.Fatalf("SaveAllSessions failed: %v", err)
		}
		loaded, _ := persistence.Load("auto2")
		if loaded.Editor.Grid().Len() != 1 {
			t.Errorf("Expected 1 persisted tile, got %d", loaded.Editor.Grid().Len())
		}
	})

	t.Run("Delete Removes From Persistence", func(t *testing.T) {
		if err := manager.Delete("auto2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if persistence.Exists("auto2") {
			t.Error("Expected persisted session to be deleted")
		}
		if _, err := manager.Get("auto2"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("PruneOrphans", func(t *testing.T) {
		manager.Create("auto3", "default", configManager.GetDefault())
		if err := persistence.Delete("auto3"); err != nil {
			t.Fatalf("Failed to delete persisted session: %v", err)
		}
		if pruned := PruneOrphans(manager, persistence); pruned != 1 {
			t.Errorf("Expected 1 pruned session, got %d", pruned)
		}
		if _, err := manager.Get("auto3"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected pruned session to be gone, got %v", err)
		}
	})
}

func TestManagerWithSQLitePersistence(t *testing.T) {
	configManager := newTestConfigManager(t)
	persistence, err := NewSQLitePersistence(filepath.Join(t.TempDir(), "sessions.db"), configManager)
	if err != nil {
		t.Fatalf("Failed to open sqlite persistence: %v", err)
	}
	defer persistence.Close()

	manager := NewManagerWithPersistence(persistence)
	session, err := manager.Create("Sq01", "default", configManager.GetDefault())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	session.Editor.Place(0, 0)
	session.Editor.Place(1, 0)
	if err := manager.Save("sq01"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	fresh := NewManagerWithPersistence(persistence)
	loaded, err := fresh.Get("SQ01")
	if err != nil {
		t.Fatalf("Failed to load from sqlite: %v", err)
	}
	if loaded.Editor.Grid().Len() != 2 {
		t.Errorf("Expected 2 tiles, got %d", loaded.Editor.Grid().Len())
	}
}

func TestWatcherPrunesDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	configManager := newTestConfigManager(t)
	persistence, err := NewFilePersistence(dir, configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	manager := NewManagerWithPersistence(persistence)
	manager.Create("w001", "default", configManager.GetDefault())
	manager.Create("w002", "default", configManager.GetDefault())

	watcher, err := NewWatcher(dir, manager, persistence)
	if err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer watcher.Close()

	if err := persistence.Delete("w001"); err != nil {
		t.Fatalf("Failed to delete session file: %v", err)
	}

	select {
	case id := <-watcher.Pruned:
		if id != "w001" {
			t.Errorf("Expected w001 to be pruned, got %s", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for watcher to prune the session")
	}

	if manager.Count() != 1 {
		t.Errorf("Expected 1 session left in memory, got %d", manager.Count())
	}
}
