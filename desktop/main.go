package main

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	headerHeight = 40
	screenWidth  = 960
	screenHeight = 720
	pollInterval = 500 * time.Millisecond
)

var baseURL = "http://localhost:8080"

// Tile is one road piece
type Tile struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Coord is a grid cell
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Camera mirrors the server-side view transform
type Camera struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Zoom    float64 `json:"zoom"`
}

// Snapshot is the editor state pushed by the server
type Snapshot struct {
	ConfigName  string   `json:"config_name"`
	Tiles       []Tile   `json:"tiles"`
	TileCount   int      `json:"tile_count"`
	Start       *Coord   `json:"start"`
	LastAdded   *Coord   `json:"last_added,omitempty"`
	LastRemoved *Coord   `json:"last_removed,omitempty"`
	Camera      Camera   `json:"camera"`
	Render      []string `json:"render,omitempty"`
}

// EditorConfig holds the profile fields the client draws with
type EditorConfig struct {
	Name     string `json:"name"`
	Interval int    `json:"interval"`
	Colors   struct {
		GridBorder string `json:"grid_border"`
		Selected   string `json:"selected"`
		Tile       string `json:"tile"`
		Start      string `json:"start"`
	} `json:"colors"`
}

// SessionInfo is the response of session create/get
type SessionInfo struct {
	ID        string        `json:"id"`
	TrackName string        `json:"track_name,omitempty"`
	Snapshot  *Snapshot     `json:"snapshot"`
	Config    *EditorConfig `json:"config"`
}

// WSMessage represents WebSocket message wrapper
type WSMessage struct {
	SessionID string    `json:"session_id"`
	Event     string    `json:"event"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
}

// Command is an editor command sent to the server
type Command struct {
	Kind  string  `json:"kind"`
	PX    float64 `json:"px,omitempty"`
	PY    float64 `json:"py,omitempty"`
	Shift bool    `json:"shift,omitempty"`
	DX    float64 `json:"dx,omitempty"`
	DY    float64 `json:"dy,omitempty"`
	Delta float64 `json:"delta,omitempty"`
}

// Editor is the desktop track editor client
type Editor struct {
	sessionID  string
	config     *EditorConfig
	state      *Snapshot
	wsConn     *websocket.Conn
	lastUpdate time.Time
	status     string
	closed     bool
	stateMutex sync.RWMutex

	// pending pan not yet sent to the server
	panning    bool
	panX, panY float64
	lastMouseX int
	lastMouseY int
}

// NewEditor opens sessionID, or creates a session with configID when it is empty
func NewEditor(sessionID, configID string) (*Editor, error) {
	e := &Editor{}

	var info *SessionInfo
	var err error
	if sessionID == "" {
		info, err = createSession(configID)
	} else {
		info, err = getSession(sessionID)
	}
	if err != nil {
		return nil, err
	}

	e.sessionID = info.ID
	e.config = info.Config
	e.state = info.Snapshot
	e.lastUpdate = time.Now()
	e.status = fmt.Sprintf("Editing session %s", e.sessionID)

	if err := e.connectWebSocket(); err != nil {
		log.Printf("Failed to connect WebSocket for %s: %v (falling back to polling)", e.sessionID, err)
	} else {
		go e.listenWebSocket()
	}
	return e, nil
}

func createSession(configID string) (*SessionInfo, error) {
	payload := "{}"
	if configID != "" {
		payload = fmt.Sprintf(`{"config_id":%q}`, configID)
	}

	resp, err := http.Post(baseURL+"/api/sessions", "application/json", strings.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info SessionInfo
	if err := decodeResponse(resp, http.StatusCreated, &info); err != nil {
		return nil, err
	}
	log.Printf("Created new session: %s (config: %s)", info.ID, configID)
	return &info, nil
}

func getSession(sessionID string) (*SessionInfo, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/sessions/%s", baseURL, sessionID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info SessionInfo
	if err := decodeResponse(resp, http.StatusOK, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func decodeResponse(resp *http.Response, want int, v interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %v (body: %s)", err, string(body))
	}
	return nil
}

// connectWebSocket subscribes to track updates for the session
func (e *Editor) connectWebSocket() error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}

	wsURL := url.URL{Scheme: scheme, Host: u.Host, Path: "/ws"}
	q := wsURL.Query()
	q.Set("session", e.sessionID)
	wsURL.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return err
	}

	e.wsConn = conn
	log.Printf("WebSocket connected for session %s", e.sessionID)
	return nil
}

// listenWebSocket applies snapshots pushed by the server
func (e *Editor) listenWebSocket() {
	defer func() {
		e.stateMutex.Lock()
		e.wsConn.Close()
		e.wsConn = nil
		e.stateMutex.Unlock()
	}()

	for {
		_, message, err := e.wsConn.ReadMessage()
		if err != nil {
			log.Printf("WebSocket read error for %s: %v", e.sessionID, err)
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("WebSocket JSON parse error: %v", err)
			continue
		}

		if msg.Event == "session_closed" {
			e.stateMutex.Lock()
			e.closed = true
			e.status = "Session was deleted on the server"
			e.stateMutex.Unlock()
			return
		}
		if msg.Snapshot == nil {
			continue
		}
		e.setState(msg.Snapshot)
	}
}

func (e *Editor) setState(snap *Snapshot) {
	e.stateMutex.Lock()
	e.state = snap
	e.lastUpdate = time.Now()
	e.stateMutex.Unlock()
}

// fetchState polls the session when no WebSocket is available
func (e *Editor) fetchState() error {
	info, err := getSession(e.sessionID)
	if err != nil {
		return err
	}
	e.setState(info.Snapshot)
	return nil
}

// sendCommand posts one editor command and applies the returned snapshot
func (e *Editor) sendCommand(cmd Command) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return
	}

	go func() {
		resp, err := http.Post(fmt.Sprintf("%s/api/sessions/%s/commands", baseURL, e.sessionID), "application/json", strings.NewReader(string(data)))
		if err != nil {
			e.setStatus(fmt.Sprintf("Command failed: %v", err))
			return
		}
		defer resp.Body.Close()

		var result struct {
			Success  bool      `json:"success"`
			Message  string    `json:"message"`
			Snapshot *Snapshot `json:"snapshot"`
		}
		if err := decodeResponse(resp, http.StatusOK, &result); err != nil {
			e.setStatus(err.Error())
			return
		}
		if result.Snapshot != nil {
			e.setState(result.Snapshot)
		}
		if cmd.Kind == "click" {
			e.setStatus(result.Message)
		}
	}()
}

func (e *Editor) saveTrack() {
	go func() {
		resp, err := http.Post(fmt.Sprintf("%s/api/sessions/%s/save", baseURL, e.sessionID), "application/json", nil)
		if err != nil {
			e.setStatus(fmt.Sprintf("Save failed: %v", err))
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			e.setStatus(fmt.Sprintf("Save failed: server returned %d", resp.StatusCode))
			return
		}
		e.setStatus("Track saved")
	}()
}

func (e *Editor) setStatus(msg string) {
	e.stateMutex.Lock()
	e.status = msg
	e.stateMutex.Unlock()
}

// Update handles mouse and keyboard input
func (e *Editor) Update() error {
	e.stateMutex.RLock()
	polling := e.wsConn == nil && !e.closed
	stale := time.Since(e.lastUpdate) > pollInterval
	e.stateMutex.RUnlock()

	if polling && stale {
		if err := e.fetchState(); err != nil {
			log.Printf("Error fetching state for %s: %v", e.sessionID, err)
			e.stateMutex.Lock()
			e.lastUpdate = time.Now()
			e.stateMutex.Unlock()
		}
	}

	mx, my := ebiten.CursorPosition()

	// left click edits, shift+click fills from the last edit
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && my >= headerHeight {
		e.sendCommand(Command{
			Kind:  "click",
			PX:    float64(mx),
			PY:    float64(my - headerHeight),
			Shift: ebiten.IsKeyPressed(ebiten.KeyShift),
		})
	}

	// right drag pans; the server sees one pan per drag
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		if e.panning {
			dx, dy := float64(mx-e.lastMouseX), float64(my-e.lastMouseY)
			e.panX += dx
			e.panY += dy
		}
		e.panning = true
		e.lastMouseX, e.lastMouseY = mx, my
	} else if e.panning {
		e.panning = false
		if e.panX != 0 || e.panY != 0 {
			e.sendCommand(Command{Kind: "pan", DX: e.panX, DY: e.panY})
		}
		e.panX, e.panY = 0, 0
	}

	// wheel up zooms in, matching the browser's negative deltaY
	if _, wy := ebiten.Wheel(); wy != 0 {
		e.sendCommand(Command{Kind: "zoom", Delta: -wy})
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyS) && ebiten.IsKeyPressed(ebiten.KeyControl) {
		e.saveTrack()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if err := e.fetchState(); err != nil {
			e.setStatus(err.Error())
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	return nil
}

// view returns the camera with any in-progress drag applied
func (e *Editor) view(snap *Snapshot) (Camera, float64) {
	cam := snap.Camera
	if e.panning {
		cam.OffsetX += e.panX
		cam.OffsetY += e.panY
	}
	interval := 80
	if e.config != nil && e.config.Interval > 0 {
		interval = e.config.Interval
	}
	return cam, float64(interval) * cam.Zoom
}

// Draw renders the grid, the roads and the status header
func (e *Editor) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{255, 255, 255, 255})

	e.stateMutex.RLock()
	snap := e.state
	status := e.status
	connStatus := "POLL"
	if e.wsConn != nil {
		connStatus = "WS"
	}
	e.stateMutex.RUnlock()

	if snap == nil {
		ebitenutil.DebugPrint(screen, "Loading...")
		return
	}

	colors := e.palette()
	cam, size := e.view(snap)
	if size >= 2 {
		e.drawGrid(screen, cam, size, colors.border)
	}

	start := snap.Start
	for _, t := range snap.Tiles {
		x := float32(float64(t.X)*size + cam.OffsetX)
		y := float32(float64(t.Y)*size+cam.OffsetY) + headerHeight
		fill, road := colors.tile, colors.road
		if start != nil && start.X == t.X && start.Y == t.Y {
			fill, road = colors.start, colors.startRoad
		}
		vector.DrawFilledRect(screen, x+1, y+1, float32(size)-2, float32(size)-2, fill, false)
		drawRoad(screen, x, y, float32(size), t, road)
	}

	if snap.LastAdded != nil {
		x := float32(float64(snap.LastAdded.X)*size + cam.OffsetX)
		y := float32(float64(snap.LastAdded.Y)*size+cam.OffsetY) + headerHeight
		vector.StrokeRect(screen, x, y, float32(size), float32(size), 2, colors.selected, false)
	}

	// header
	vector.DrawFilledRect(screen, 0, 0, screenWidth, headerHeight, color.RGBA{30, 30, 40, 255}, false)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Session %s [%s] | %s | Tiles: %d | Zoom: %gx",
		e.sessionID, connStatus, snap.ConfigName, snap.TileCount, cam.Zoom), 8, 4)
	ebitenutil.DebugPrintAt(screen, status, 8, 20)
	ebitenutil.DebugPrintAt(screen, "Click: Toggle | Shift+Click: Fill | Right Drag: Pan | Wheel: Zoom | Ctrl+S: Save | ESC: Quit", 10, screenHeight-20)
}

// drawGrid draws the cell borders that fall inside the canvas
func (e *Editor) drawGrid(screen *ebiten.Image, cam Camera, size float64, border color.Color) {
	for x := mod(cam.OffsetX, size); x < screenWidth; x += size {
		vector.StrokeLine(screen, float32(x), headerHeight, float32(x), screenHeight, 1, border, false)
	}
	for y := mod(cam.OffsetY, size); y < screenHeight-headerHeight; y += size {
		vector.StrokeLine(screen, 0, float32(y)+headerHeight, screenWidth, float32(y)+headerHeight, 1, border, false)
	}
}

// drawRoad strokes the two half-roads from the cell center to its From and To sides
func drawRoad(screen *ebiten.Image, x, y, size float32, t Tile, clr color.Color) {
	cx, cy := x+size/2, y+size/2
	width := size / 5
	if width < 1 {
		width = 1
	}
	for _, side := range []string{t.From, t.To} {
		dx, dy := sideDelta(side)
		ex, ey := cx+dx*size/2, cy+dy*size/2
		vector.StrokeLine(screen, cx, cy, ex, ey, width, clr, true)
	}
	vector.DrawFilledCircle(screen, cx, cy, width/2, clr, true)
}

func sideDelta(side string) (float32, float32) {
	switch side {
	case "UP":
		return 0, -1
	case "DOWN":
		return 0, 1
	case "LEFT":
		return -1, 0
	case "RIGHT":
		return 1, 0
	}
	return 0, 0
}

func mod(v, m float64) float64 {
	r := v - m*float64(int(v/m))
	if r < 0 {
		r += m
	}
	return r
}

type palette struct {
	border, selected, tile, start color.Color
	road, startRoad               color.Color
}

func (e *Editor) palette() palette {
	p := palette{
		border:    color.RGBA{211, 211, 211, 255},
		selected:  color.RGBA{128, 128, 128, 255},
		tile:      color.RGBA{211, 211, 211, 255},
		start:     color.RGBA{0, 0, 0, 255},
		road:      color.RGBA{60, 60, 60, 255},
		startRoad: color.RGBA{255, 255, 255, 255},
	}
	if e.config == nil {
		return p
	}
	c := e.config.Colors
	p.border = parseColor(c.GridBorder, p.border)
	p.selected = parseColor(c.Selected, p.selected)
	p.tile = parseColor(c.Tile, p.tile)
	p.start = parseColor(c.Start, p.start)
	return p
}

var namedColors = map[string]color.RGBA{
	"black":     {0, 0, 0, 255},
	"white":     {255, 255, 255, 255},
	"grey":      {128, 128, 128, 255},
	"gray":      {128, 128, 128, 255},
	"lightgrey": {211, 211, 211, 255},
	"lightgray": {211, 211, 211, 255},
	"darkgrey":  {169, 169, 169, 255},
	"darkgray":  {169, 169, 169, 255},
	"gainsboro": {220, 220, 220, 255},
	"slategray": {112, 128, 144, 255},
	"slategrey": {112, 128, 144, 255},
	"red":       {255, 0, 0, 255},
	"green":     {0, 128, 0, 255},
	"blue":      {0, 0, 255, 255},
	"orange":    {255, 165, 0, 255},
}

// parseColor understands CSS color names and #rrggbb
func parseColor(s string, fallback color.Color) color.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c
	}
	if len(s) == 7 && s[0] == '#' {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
		}
	}
	return fallback
}

// Layout returns the editor screen size
func (e *Editor) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	// usage: desktop [session-id] [config-id]
	if env := os.Getenv("EDITOR_API_URL"); env != "" {
		baseURL = strings.TrimRight(env, "/")
	}

	sessionID, configID := "", ""
	if len(os.Args) > 1 {
		sessionID = os.Args[1]
	}
	if len(os.Args) > 2 {
		configID = os.Args[2]
	}

	ed, err := NewEditor(sessionID, configID)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Race Track Editor - " + ed.sessionID)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(ed); err != nil && err != ebiten.Termination {
		log.Fatal(err)
	}
}
