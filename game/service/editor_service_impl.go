package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/track-editor/game/editor"
	"github.com/wricardo/track-editor/game/track"
	"github.com/wricardo/track-editor/pkg/logger"
)

// editorServiceImpl implements the EditorService interface
type editorServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	log      *logrus.Entry
}

// NewEditorService creates a new editor service instance
func NewEditorService(sessions SessionManager, configs ConfigManager) EditorService {
	return &editorServiceImpl{
		sessions: sessions,
		configs:  configs,
		log:      logger.WithComponent("service"),
	}
}

// getConfigID returns the config_id for a given profile display name
func (s *editorServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession opens a new editing session with an empty track
func (s *editorServiceImpl) CreateSession(ctx context.Context, configName, trackName string) (*SessionInfo, error) {
	var config *editor.EditorConfig
	configID := configName
	if configName != "" {
		var err error
		config, err = s.LoadConfig(ctx, configName)
		if err != nil {
			return nil, err
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if trackName != "" {
		sess.TrackName = trackName
		if err := s.sessions.Save(sess.ID); err != nil {
			s.log.WithError(err).WithField("session_id", sess.ID).Warn("failed to persist track name")
		}
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"config":     configID,
		"track_name": trackName,
	}).Info("session created")

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *editorServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.touch(sessionID)
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *editorServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *editorServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.log.WithField("session_id", sessionID).Info("session deleted")
	return nil
}

// Execute applies a single command to a session's editor
func (s *editorServiceImpl) Execute(ctx context.Context, sessionID string, cmd editor.Command) (*CommandResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var result *editor.Result
	var snap *editor.Snapshot
	err = sess.Do(func(ed *editor.TrackEditor) error {
		r, err := ed.Apply(cmd)
		if err != nil {
			return err
		}
		result = r
		snap = ed.Snapshot()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	s.touch(sessionID)

	return &CommandResult{
		Success:  true,
		Message:  describeResult(result),
		Result:   result,
		Snapshot: snap,
	}, nil
}

// ExecuteBatch applies commands in order, stopping at the first failure
func (s *editorServiceImpl) ExecuteBatch(ctx context.Context, sessionID string, cmds []editor.Command) (*BatchResult, error) {
	if len(cmds) == 0 {
		return nil, fmt.Errorf("%w: no commands provided", ErrInvalidCommand)
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{
		Requested: len(cmds),
		Success:   true,
		Results:   make([]*editor.Result, 0, len(cmds)),
	}
	if len(cmds) > MaxBatchCommands {
		cmds = cmds[:MaxBatchCommands]
		batch.Truncated = true
		batch.Limit = MaxBatchCommands
	}

	sess.Do(func(ed *editor.TrackEditor) error {
		for i, cmd := range cmds {
			if err := ctx.Err(); err != nil {
				batch.Success = false
				batch.StoppedReason = err.Error()
				batch.StoppedOn = i + 1
				break
			}
			r, err := ed.Apply(cmd)
			if err != nil {
				batch.Success = false
				batch.StoppedReason = err.Error()
				batch.StoppedOn = i + 1
				break
			}
			batch.Executed++
			batch.Added += len(r.Added)
			batch.Removed += len(r.Removed)
			batch.Results = append(batch.Results, r)
		}
		batch.Snapshot = ed.Snapshot()
		return nil
	})

	s.touch(sessionID)
	return batch, nil
}

// GetTrack returns the session's track document
func (s *editorServiceImpl) GetTrack(ctx context.Context, sessionID string) (*TrackInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.trackInfo(sess), nil
}

// LoadTrack replaces the session's track; the old track is kept when doc is rejected
func (s *editorServiceImpl) LoadTrack(ctx context.Context, sessionID string, doc track.Document) (*TrackInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.Do(func(ed *editor.TrackEditor) error {
		return ed.LoadDocument(doc)
	}); err != nil {
		return nil, err
	}

	s.touch(sessionID)
	info := s.trackInfo(sess)
	s.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"tiles":      info.TileCount,
	}).Info("track loaded")
	return info, nil
}

// SaveTrack persists the session, as switching to race mode does
func (s *editorServiceImpl) SaveTrack(ctx context.Context, sessionID string) (*TrackInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(sess.ID); err != nil {
		return nil, fmt.Errorf("failed to save track: %w", err)
	}

	info := s.trackInfo(sess)
	info.Saved = true
	s.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"tiles":      info.TileCount,
	}).Info("track saved")
	return info, nil
}

// GetTile describes one cell and its neighbors
func (s *editorServiceImpl) GetTile(ctx context.Context, sessionID string, x, y int) (*TileInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	info := &TileInfo{X: x, Y: y}
	sess.Do(func(ed *editor.TrackEditor) error {
		grid := ed.Grid()
		c := track.Coord{X: x, Y: y}
		info.Neighbors = grid.Neighbors(c)
		tile, ok := grid.Tile(x, y)
		if !ok {
			return nil
		}
		start, hasStart := grid.Start()
		info.Present = true
		info.Tile = &tile
		info.Start = hasStart && start == c
		info.Glyph = string(track.Glyph(tile, info.Start))
		return nil
	})

	s.touch(sessionID)
	return info, nil
}

// ListConfigs returns all available editor profiles
func (s *editorServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a profile by name, listing the alternatives when it is missing
func (s *editorServiceImpl) LoadConfig(ctx context.Context, configName string) (*editor.EditorConfig, error) {
	config, err := s.configs.LoadConfig(configName)
	if err == nil {
		return config, nil
	}
	if errors.Is(err, ErrConfigNotFound) {
		availableConfigs, listErr := s.configs.ListConfigs()
		if listErr == nil && len(availableConfigs) > 0 {
			var configIDs []string
			for _, cfg := range availableConfigs {
				configIDs = append(configIDs, cfg.ConfigID)
			}
			return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
		}
		return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
	}
	return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
}

// SaveConfig stores an editor profile
func (s *editorServiceImpl) SaveConfig(ctx context.Context, configName string, config *editor.EditorConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *editorServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	return sess, nil
}

// touch refreshes the access time; the track is only stored by SaveTrack
func (s *editorServiceImpl) touch(sessionID string) {
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Debug("failed to update last access")
	}
}

func (s *editorServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		TrackName:      sess.TrackName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Config:         sess.Config,
	}
	sess.Do(func(ed *editor.TrackEditor) error {
		info.Snapshot = ed.Snapshot()
		return nil
	})
	if info.ConfigName == "" {
		info.ConfigName = s.getConfigID(sess.Config.Name)
	}
	return info
}

func (s *editorServiceImpl) trackInfo(sess *Session) *TrackInfo {
	info := &TrackInfo{
		SessionID: sess.ID,
		TrackName: sess.TrackName,
	}
	sess.Do(func(ed *editor.TrackEditor) error {
		info.Document = ed.Document()
		info.TileCount = ed.Grid().Len()
		info.Render = track.Render(ed.Grid())
		return nil
	})
	return info
}

func describeResult(r *editor.Result) string {
	switch r.Kind {
	case editor.CmdPan:
		return fmt.Sprintf("Camera moved to (%g, %g)", r.Camera.OffsetX, r.Camera.OffsetY)
	case editor.CmdZoom:
		return fmt.Sprintf("Zoom is now %gx", r.Camera.Zoom)
	}
	if !r.Changed() {
		return "No change"
	}
	switch {
	case len(r.Added) == 1 && len(r.Removed) == 0:
		p := r.Added[0]
		return fmt.Sprintf("Placed tile at %s (%s -> %s)", p.Tile.Coord(), p.Tile.From, p.Tile.To)
	case len(r.Removed) == 1 && len(r.Added) == 0:
		return fmt.Sprintf("Removed tile at %s", r.Removed[0])
	default:
		return fmt.Sprintf("Placed %d tiles, removed %d tiles", len(r.Added), len(r.Removed))
	}
}
