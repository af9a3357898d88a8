// Package websocket pushes editor state to browser and desktop clients.
//
// A central Hub owns every connection. Clients join a session with
// /ws?session=<id> and receive a JSON Message whenever that session's
// track or camera changes:
//
//	{"session_id": "ab12", "event": "track_update", "snapshot": {...}, "result": {...}}
//
// Edits are sent over the REST API; frames received from clients only keep
// the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.BroadcastTrackUpdate(sessionID, snapshot, result)
package websocket
