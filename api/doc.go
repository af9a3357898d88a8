// Package api exposes the track editor over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "...", "track_name": "..."})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Session details with an editor snapshot
//   - DELETE /api/sessions/{id} - Delete a session
//
// Editing:
//   - POST /api/sessions/{id}/commands - One editor command, or {"commands": [...]} as a batch
//   - GET /api/sessions/{id}/track - Current track document
//   - PUT /api/sessions/{id}/track - Replace the track with a document
//   - POST /api/sessions/{id}/save - Persist the session
//   - GET /api/sessions/{id}/tiles/{x}/{y} - Describe one cell
//   - GET /api/sessions/{id}/render - Box-drawing view (text, or JSON with ?format=json)
//
// Configuration:
//   - GET /api/configs - List editor profiles
//   - POST /api/configs - Save a profile ({"name": "...", "config": {...}})
//   - GET /api/configs/{name} - Get one profile
//
// Other:
//   - GET /ws?session={id} - Track updates over WebSocket
//   - GET /healthz - Liveness probe
//
// Errors are returned as {"error": "message"}. Unknown sessions and profiles map
// to 404, rejected commands, documents and profiles to 400.
package api
