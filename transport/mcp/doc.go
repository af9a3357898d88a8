// Package mcp exposes the track editor to AI agents through the Model Context Protocol.
//
// The Client is a thin proxy: every tool call is translated into a REST request
// against the api package, so agents and browsers share the same sessions and
// websocket updates.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - place_tile, remove_tile, toggle_tile, fill_range, run_commands
//   - describe_tile, get_track, load_track, save_track
//   - list_configs, editor_instructions
//
// The server binary serves these tools over stdio (stdio-mcp mode) and as a
// POST /mcp endpoint next to the REST API.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
