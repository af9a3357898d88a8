package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/track-editor/game/config"
	"github.com/wricardo/track-editor/game/editor"
	"github.com/wricardo/track-editor/game/service"
	"github.com/wricardo/track-editor/game/session"
	"github.com/wricardo/track-editor/game/track"
	"github.com/wricardo/track-editor/pkg/logger"
	"github.com/wricardo/track-editor/transport/websocket"
)

// maxBodyBytes bounds request bodies; a full track document fits comfortably
const maxBodyBytes = 8 << 20

// Server represents the REST API server
type Server struct {
	service service.EditorService
	hub     *websocket.Hub
	router  *mux.Router
	log     *logrus.Entry
}

// NewServer creates a new API server. hub may be nil when no websocket clients are served.
func NewServer(editorService service.EditorService, hub *websocket.Hub) *Server {
	s := &Server{
		service: editorService,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     logger.WithComponent("api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Editing
	api.HandleFunc("/sessions/{id}/commands", s.handleCommands).Methods("POST")
	api.HandleFunc("/sessions/{id}/track", s.handleGetTrack).Methods("GET")
	api.HandleFunc("/sessions/{id}/track", s.handleLoadTrack).Methods("PUT")
	api.HandleFunc("/sessions/{id}/save", s.handleSaveTrack).Methods("POST")
	api.HandleFunc("/sessions/{id}/tiles/{x}/{y}", s.handleGetTile).Methods("GET")
	api.HandleFunc("/sessions/{id}/render", s.handleRender).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the websocket upgrade needs the raw writer for hijacking
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCommand),
		errors.Is(err, track.ErrMalformedDocument),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	respondError(w, status, err.Error())
}

func (s *Server) broadcast(sessionID string, snap *editor.Snapshot, result *editor.Result) {
	if s.hub == nil || snap == nil {
		return
	}
	s.hub.BroadcastTrackUpdate(sessionID, snap, result)
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
		TrackName  string `json:"track_name,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), configID, req.TrackName)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if ti.Equal(tj) {
			return sessions[i].ID < sessions[j].ID
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	limit := len(sessions)
	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit < limit {
			limit = parsedLimit
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions[:limit],
		"total":    len(sessions),
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventSessionClosed, nil)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Session deleted successfully",
	})
}

// Editing Handlers

// handleCommands accepts either a single command or {"commands": [...]}
func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var batch struct {
		Commands []editor.Command `json:"commands"`
	}
	if err := json.Unmarshal(body, &batch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if batch.Commands != nil {
		result, err := s.service.ExecuteBatch(r.Context(), sessionID, batch.Commands)
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		var last *editor.Result
		if n := len(result.Results); n > 0 {
			last = result.Results[n-1]
		}
		s.broadcast(sessionID, result.Snapshot, last)
		respondJSON(w, http.StatusOK, result)
		return
	}

	var cmd editor.Command
	if err := json.Unmarshal(body, &cmd); err != nil || cmd.Kind == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Execute(r.Context(), sessionID, cmd)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.broadcast(sessionID, result.Snapshot, result.Result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetTrack(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleLoadTrack(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := track.DecodeDocument(body)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	info, err := s.service.LoadTrack(r.Context(), sessionID, *doc)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if sessionInfo, err := s.service.GetSession(r.Context(), sessionID); err == nil {
		s.broadcast(sessionID, sessionInfo.Snapshot, nil)
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleSaveTrack(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.SaveTrack(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	x, errX := strconv.Atoi(vars["x"])
	y, errY := strconv.Atoi(vars["y"])
	if errX != nil || errY != nil {
		respondError(w, http.StatusBadRequest, "Tile coordinates must be integers")
		return
	}

	info, err := s.service.GetTile(r.Context(), vars["id"], x, y)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// handleRender returns the box-drawing view of the track, as text unless JSON is asked for
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetTrack(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"session_id": info.SessionID,
			"tile_count": info.TileCount,
			"rows":       info.Render,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, row := range info.Render {
		fmt.Fprintln(w, row)
	}
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := mux.Vars(r)["name"]

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string               `json:"name"`
		Config *editor.EditorConfig `json:"config"`
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}
	if req.Config == nil {
		respondError(w, http.StatusBadRequest, "Config body is required")
		return
	}

	if req.Config.Name == "" {
		req.Config.Name = req.Name
	}
	editor.ApplyDefaults(req.Config)
	if err := s.service.SaveConfig(r.Context(), req.Name, req.Config); err != nil {
		s.respondServiceError(w, r, fmt.Errorf("failed to save config: %w", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Config saved successfully",
		"name":    req.Name,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session query parameter is required")
		return
	}
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket updates are disabled")
		return
	}
	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}
