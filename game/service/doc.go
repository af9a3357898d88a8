// Package service provides the business logic layer for the track editor.
//
// The service package implements:
//   - Multi-session track editing
//   - Command dispatch (single commands and batches)
//   - Track document load, save and inspection
//   - Editor profile access
//
// Core Interfaces:
//
// EditorService is the main service interface providing high-level editing operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages editor profile loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the editor, providing session isolation and configuration management. Each
// session owns its own editor and grid; Session.Do serialises access to them.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	editorService := service.NewEditorService(sessionMgr, configMgr)
//
//	info, err := editorService.CreateSession(ctx, "default", "Monza")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := editorService.Execute(ctx, info.ID, editor.Command{Kind: editor.CmdPlace, X: 0, Y: 0})
package service
