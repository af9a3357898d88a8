package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/track-editor/game/editor"
	"github.com/wricardo/track-editor/game/service"
	"github.com/wricardo/track-editor/game/track"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Race Track Editor",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Race Track Editor - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Build a closed race track on an infinite grid. Every placed tile is a road
segment joining two of its four sides (UP, DOWN, LEFT, RIGHT). The editor infers
those sides from the tiles around it and bends neighbors into corners so the
road stays connected.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage editing sessions
- place_tile / remove_tile / toggle_tile: edit one cell
- fill_range: repeat the last place or remove over a rectangle
- run_commands: send several editor commands at once
- describe_tile: inspect a cell and its neighbors
- get_track / load_track / save_track: read, replace or persist the track document
- list_configs: list editor profiles
- editor_instructions: full rules and tips`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func cellTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Cell column (grows to the right, may be negative)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Cell row (grows downward, may be negative)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new editing session with an empty track",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Editor profile to use (optional)",
				},
				"track_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the track (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all editing sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get a session with its rendered track",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Editing
	c.mcpServer.AddTool(cellTool("place_tile", "Place a road tile; its sides are inferred from the neighbors"), c.handlePlaceTile)
	c.mcpServer.AddTool(cellTool("remove_tile", "Remove the road tile at a cell"), c.handleRemoveTile)
	c.mcpServer.AddTool(cellTool("toggle_tile", "Place a tile on an empty cell or remove an existing one, like a click"), c.handleToggleTile)
	c.mcpServer.AddTool(cellTool("describe_tile", "Describe a cell, its road sides and its neighbors"), c.handleDescribeTile)

	c.mcpServer.AddTool(cellTool("fill_range", "Repeat the last edit over the rectangle between the last edited cell and a cell"), c.handleFillRange)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_commands",
		Description: "Run editor commands in order, stopping at the first failure",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"commands": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"kind": map[string]interface{}{
								"type": "string",
								"enum": []string{"place", "remove", "toggle", "fill", "click", "pan", "zoom"},
							},
							"x":     map[string]interface{}{"type": "integer"},
							"y":     map[string]interface{}{"type": "integer"},
							"px":    map[string]interface{}{"type": "number"},
							"py":    map[string]interface{}{"type": "number"},
							"shift": map[string]interface{}{"type": "boolean"},
							"dx":    map[string]interface{}{"type": "number"},
							"dy":    map[string]interface{}{"type": "number"},
							"delta": map[string]interface{}{"type": "number"},
						},
						"required": []string{"kind"},
					},
					"description": "Editor commands",
				},
			},
			Required: []string{"session_id", "commands"},
		},
	}, c.handleRunCommands)

	// Track
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_track",
		Description: "Get the track document and a box-drawing render of it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetTrack)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "load_track",
		Description: "Replace the session's track with a track document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"document": map[string]interface{}{
					"type":        "string",
					"description": `Track document JSON: {"start": "x,y", "tiles": [{"key": "x,y", "tile": {"x": 0, "y": 0, "from": "LEFT", "to": "RIGHT"}}]}`,
				},
			},
			Required: []string{"session_id", "document"},
		},
	}, c.handleLoadTrack)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_track",
		Description: "Persist the session's track",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleSaveTrack)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available editor profiles",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "editor_instructions",
		Description: "Get the editor rules and tips for building a closed track",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleEditorInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func cellArgs(request mcp.CallToolRequest) (string, int, int, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if sessionID == "" {
		return "", 0, 0, fmt.Errorf("session_id is required")
	}
	if !okX || !okY {
		return "", 0, 0, fmt.Errorf("x and y must be integers")
	}
	return sessionID, x, y, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)
	trackName, _ := args["track_name"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}
	if trackName != "" {
		body["track_name"] = trackName
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.TrackName != "" {
		result += fmt.Sprintf("Track: %s\n", session.TrackName)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Total    int                   `json:"total"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Sessions (%d):\n\n", response.Total)
	for _, s := range response.Sessions {
		tiles := 0
		if s.Snapshot != nil {
			tiles = s.Snapshot.TileCount
		}
		name := s.TrackName
		if name == "" {
			name = "untitled"
		}
		result += fmt.Sprintf("- %s %q (Config: %s, Tiles: %d, Last used: %s)\n",
			s.ID, name, s.ConfigName, tiles, s.LastAccessedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) runCommand(sessionID string, cmd editor.Command) (*mcp.CallToolResult, error) {
	var result service.CommandResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/commands", sessionID), cmd, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatCommandResult(&result)), nil
}

func (c *Client) handlePlaceTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, x, y, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.runCommand(sessionID, editor.Command{Kind: editor.CmdPlace, X: x, Y: y})
}

func (c *Client) handleRemoveTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, x, y, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.runCommand(sessionID, editor.Command{Kind: editor.CmdRemove, X: x, Y: y})
}

func (c *Client) handleToggleTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, x, y, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.runCommand(sessionID, editor.Command{Kind: editor.CmdToggle, X: x, Y: y})
}

func (c *Client) handleFillRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, x, y, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.runCommand(sessionID, editor.Command{Kind: editor.CmdFill, X: x, Y: y})
}

func (c *Client) handleRunCommands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	raw, ok := args["commands"]
	if !ok {
		return mcp.NewToolResultError("commands is required"), nil
	}

	// round-trip through JSON so the command fields decode with their tags
	data, err := json.Marshal(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var cmds []editor.Command
	if err := json.Unmarshal(data, &cmds); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid commands: %v", err)), nil
	}

	var result service.BatchResult
	body := map[string]interface{}{"commands": cmds}
	if err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/commands", sessionID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBatchResult(&result)), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, x, y, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var tile service.TileInfo
	if err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/tiles/%d/%d", sessionID, x, y), nil, &tile); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTileInfo(&tile)), nil
}

func (c *Client) handleGetTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var info service.TrackInfo
	if err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/track", sessionID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := json.MarshalIndent(info.Document, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatTrackInfo(&info) + "\nDocument:\n" + string(doc)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleLoadTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	var raw []byte
	switch doc := args["document"].(type) {
	case string:
		raw = []byte(doc)
	case map[string]interface{}:
		raw, _ = json.Marshal(doc)
	default:
		return mcp.NewToolResultError("document is required"), nil
	}

	// validate locally so obvious mistakes are reported before the round trip
	doc, err := track.DecodeDocument(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.TrackInfo
	if err := c.apiCall("PUT", fmt.Sprintf("/api/sessions/%s/track", sessionID), doc, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Track loaded\n\n" + formatTrackInfo(&info)), nil
}

func (c *Client) handleSaveTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var info service.TrackInfo
	if err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/save", sessionID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved %d tiles for session %s", info.TileCount, info.SessionID)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	err := c.apiCall("GET", "/api/configs", nil, &configs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Configurations:\n\n"
	for _, config := range configs {
		result += fmt.Sprintf("• %s (%s)\n  %s\n  Cell: %dpx, Max fill: %d cells\n\n",
			config.ConfigID, config.Name, config.Description, config.Interval, config.MaxFillArea)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleEditorInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Race Track Editor - Instructions

GRID:
- Cells are addressed by integer (x, y); x grows right, y grows down. The grid is unbounded.
- Each tile is a road segment joining two different sides: UP, DOWN, LEFT or RIGHT.

PLACING TILES:
- The first tile of a track becomes the start line and runs LEFT -> RIGHT.
- A new tile connects toward neighboring tiles that still have a free side, and continues
  straight through the opposite side when only one neighbor links to it.
- A neighbor with a free side is re-bent into a corner so that it points at the new tile.
- Placing on an occupied cell changes nothing.

REMOVING TILES:
- Removing a tile leaves its neighbors untouched.
- Removing the start tile clears the start line.

FILL:
- fill_range works on the rectangle between the last edited cell and the target cell.
- After a placement every empty cell in the rectangle is filled, column by column; after a
  removal every tile in it is removed. The target then becomes a placement anchor, so the
  next fill_range places tiles even after a removing fill.
- Rectangles larger than the profile's max fill area are rejected.

RENDER LEGEND:
- ─ │ straight roads, ┌ ┐ └ ┘ corners, heavy glyphs (━ ┃ ┏ ┓ ┗ ┛) mark the start tile, · empty.

TIPS:
- Lay a closed loop by walking around its border in order; each tile then links to the previous one.
- Use describe_tile to check the sides of a tile before editing around it.
- Call save_track when the track is finished.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	name := session.TrackName
	if name == "" {
		name = "untitled"
	}
	return fmt.Sprintf("Session: %s\nTrack: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, name, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatSnapshot(session.Snapshot))
}

func formatSnapshot(snap *editor.Snapshot) string {
	if snap == nil {
		return "No editor state available"
	}

	var result strings.Builder
	start := "none"
	if snap.Start != nil {
		start = snap.Start.String()
	}
	result.WriteString(fmt.Sprintf("Tiles: %d | Start: %s | Zoom: %gx\n", snap.TileCount, start, snap.Camera.Zoom))
	if snap.LastAdded != nil {
		result.WriteString(fmt.Sprintf("Last placed: %s\n", snap.LastAdded))
	}
	if len(snap.Render) > 0 {
		result.WriteString("\n")
		for _, row := range snap.Render {
			result.WriteString(row + "\n")
		}
	}
	return result.String()
}

func formatCommandResult(result *service.CommandResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ " + result.Message + "\n")
	} else {
		b.WriteString("✗ " + result.Message + "\n")
	}
	if result.Result != nil {
		for _, p := range result.Result.Added {
			for _, patch := range p.Patches {
				side := patch.To
				if patch.From != track.NoDirection {
					side = patch.From
				}
				b.WriteString(fmt.Sprintf("  bent %s toward %s\n", patch.At, side))
			}
		}
	}
	b.WriteString("\n" + formatSnapshot(result.Snapshot))
	return b.String()
}

func formatBatchResult(result *service.BatchResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Executed %d/%d commands: +%d tiles, -%d tiles\n",
		result.Executed, result.Requested, result.Added, result.Removed))
	if result.Truncated {
		b.WriteString(fmt.Sprintf("Batch truncated to %d commands\n", result.Limit))
	}
	if !result.Success {
		b.WriteString(fmt.Sprintf("Stopped on command %d: %s\n", result.StoppedOn, result.StoppedReason))
	}
	b.WriteString("\n" + formatSnapshot(result.Snapshot))
	return b.String()
}

func formatTileInfo(tile *service.TileInfo) string {
	var b strings.Builder
	if !tile.Present || tile.Tile == nil {
		b.WriteString(fmt.Sprintf("Cell %d,%d is empty\n", tile.X, tile.Y))
	} else {
		b.WriteString(fmt.Sprintf("Cell %d,%d: %s road %s -> %s", tile.X, tile.Y, tile.Glyph, tile.Tile.From, tile.Tile.To))
		if tile.Start {
			b.WriteString(" (start)")
		}
		b.WriteString("\n")
	}

	b.WriteString("Neighbors:\n")
	for _, d := range track.Directions {
		n, ok := tile.Neighbors[d]
		if !ok {
			b.WriteString(fmt.Sprintf("  %-5s empty\n", d))
			continue
		}
		b.WriteString(fmt.Sprintf("  %-5s %d,%d %s -> %s\n", d, n.X, n.Y, n.From, n.To))
	}
	return b.String()
}

func formatTrackInfo(info *service.TrackInfo) string {
	var b strings.Builder
	name := info.TrackName
	if name == "" {
		name = "untitled"
	}
	b.WriteString(fmt.Sprintf("Track %q in session %s: %d tiles\n", name, info.SessionID, info.TileCount))
	for _, row := range info.Render {
		b.WriteString(row + "\n")
	}
	return b.String()
}
