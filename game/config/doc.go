// Package config provides editor profile management for the track editor.
//
// The config package handles:
//   - Loading editor profiles from JSON or YAML files
//   - Profile validation and default filling
//   - Default profile selection
//   - Profile discovery and listing
//
// Profile Format:
//
// Profiles are stored as .json, .yaml or .yml files in the configs directory.
// Each profile defines:
//   - The cell interval in screen pixels
//   - Zoom limits (initial, min, max, step)
//   - Renderer colors for the grid, selection, tiles and start tile
//   - The largest rectangle a shift-click fill may cover
//
// Missing fields are filled from editor.DefaultConfig before validation.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := manager.LoadConfig("touch")
//	defaultProfile := manager.GetDefault()
//	profiles, err := manager.ListConfigs()
package config
