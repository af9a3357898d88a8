// Package session provides session management for the track editor.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session persistence to JSON files (optionally zstd compressed) or SQLite
//   - A filesystem watcher that drops sessions whose files are deleted
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Sessions are service.Session values, each owning its own editor and track.
// SessionPersistence abstracts the store; FilePersistence and SQLitePersistence
// implement it.
//
// Session Identifiers:
//
// Sessions use 4-character hexadecimal IDs for easy reference. Lookups are
// case-insensitive.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("tracks", configManager, session.WithCompression(true))
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "default", configManager.GetDefault())
package session
