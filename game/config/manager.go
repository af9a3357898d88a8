package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/track-editor/game/editor"
	"github.com/wricardo/track-editor/game/service"
	"github.com/wricardo/track-editor/pkg/logger"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigName is the profile used when none is requested
const DefaultConfigName = "default"

// extensions lists the recognised profile file extensions in lookup order
var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles editor profile loading and caching
type Manager struct {
	configDir     string
	defaultConfig *editor.EditorConfig
	configs       map[string]*editor.EditorConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*editor.EditorConfig),
	}

	m.defaultConfig = m.findDefaultConfig()
	return m, nil
}

// LoadConfig loads a profile by name. The name may carry a .json, .yaml or .yml extension.
func (m *Manager) LoadConfig(name string) (*editor.EditorConfig, error) {
	id := configID(name)

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	config, err := m.readConfig(name)
	if err != nil {
		return nil, err
	}

	m.configs[id] = config
	return config, nil
}

// ListConfigs returns information about all available profiles, sorted by id
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || formatOf(entry.Name()) == "" {
			continue
		}

		id := configID(entry.Name())
		if seen[id] {
			continue
		}

		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			logger.WithComponent("config").WithError(err).WithField("file", entry.Name()).Warn("skipping invalid profile")
			continue
		}
		seen[id] = true

		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			Format:      formatOf(entry.Name()),
			Interval:    config.Interval,
			MaxFillArea: config.MaxFillArea,
		})
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].ConfigID < configs[j].ConfigID
	})
	return configs, nil
}

// GetDefault returns the default profile
func (m *Manager) GetDefault() *editor.EditorConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default profile by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops cached profiles so the next load reads them from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*editor.EditorConfig)
	m.mu.Unlock()

	def := m.findDefaultConfig()

	m.mu.Lock()
	m.defaultConfig = def
	m.mu.Unlock()
}

// SaveConfig writes a profile to disk. A .yaml or .yml name selects YAML, anything else JSON.
func (m *Manager) SaveConfig(name string, config *editor.EditorConfig) error {
	if err := editor.ValidateConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	filename := name
	format := formatOf(name)
	if format == "" {
		filename = name + ".json"
		format = "json"
	}

	var data []byte
	var err error
	if format == "yaml" {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, filepath.Base(filename))
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[configID(name)] = config
	m.mu.Unlock()

	logger.WithComponent("config").WithField("file", filepath.Base(filename)).Info("profile saved")
	return nil
}

// findDefaultConfig picks "default", else the first valid profile, else the built-in profile
func (m *Manager) findDefaultConfig() *editor.EditorConfig {
	if config, err := m.LoadConfig(DefaultConfigName); err == nil {
		return config
	}

	configs, err := m.ListConfigs()
	if err == nil && len(configs) > 0 {
		if config, err := m.LoadConfig(configs[0].Filename); err == nil {
			return config
		}
	}

	return editor.DefaultConfig()
}

// readConfig locates, decodes and validates a profile file
func (m *Manager) readConfig(name string) (*editor.EditorConfig, error) {
	candidates := []string{name}
	if formatOf(name) == "" {
		candidates = candidates[:0]
		for _, ext := range extensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, filename := range candidates {
		configPath := filepath.Join(m.configDir, filepath.Base(filename))
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return Decode(data, formatOf(filename))
	}

	return nil, ErrConfigNotFound
}

// Decode parses a profile in the given format ("json" or "yaml"), fills
// defaults and validates it
func Decode(data []byte, format string) (*editor.EditorConfig, error) {
	var config editor.EditorConfig
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &config)
	case "json":
		err = json.Unmarshal(data, &config)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidConfig, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	editor.ApplyDefaults(&config)
	if err := editor.ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &config, nil
}

// configID strips a known extension from a profile name
func configID(name string) string {
	name = filepath.Base(name)
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// formatOf returns "json" or "yaml" for a profile filename, or "" when unrecognised
func formatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}
