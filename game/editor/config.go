package editor

import "fmt"

// DefaultConfig returns the built-in editor profile
func DefaultConfig() *EditorConfig {
	return &EditorConfig{
		Name:        "default",
		Description: "Browser editor defaults: 80px cells, zoom 0.5x to 2x",
		Interval:    DefaultInterval,
		Zoom: ZoomConfig{
			Initial: DefaultZoom,
			Min:     DefaultZoomMin,
			Max:     DefaultZoomMax,
			Step:    DefaultZoomStep,
		},
		Colors: ColorConfig{
			GridBorder: "lightgrey",
			Selected:   "grey",
			Tile:       "lightgrey",
			Start:      "black",
		},
		MaxFillArea: DefaultMaxFillArea,
	}
}

// ApplyDefaults fills zero-valued fields from DefaultConfig
func ApplyDefaults(config *EditorConfig) {
	def := DefaultConfig()
	if config.Interval == 0 {
		config.Interval = def.Interval
	}
	if config.Zoom == (ZoomConfig{}) {
		config.Zoom = def.Zoom
	}
	if config.Zoom.Initial == 0 {
		config.Zoom.Initial = def.Zoom.Initial
	}
	if config.Colors.GridBorder == "" {
		config.Colors.GridBorder = def.Colors.GridBorder
	}
	if config.Colors.Selected == "" {
		config.Colors.Selected = def.Colors.Selected
	}
	if config.Colors.Tile == "" {
		config.Colors.Tile = def.Colors.Tile
	}
	if config.Colors.Start == "" {
		config.Colors.Start = def.Colors.Start
	}
	if config.MaxFillArea == 0 {
		config.MaxFillArea = def.MaxFillArea
	}
}

// ValidateConfig checks an editor profile for usable camera and fill limits
func ValidateConfig(config *EditorConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Interval < MinInterval || config.Interval > MaxInterval {
		return fmt.Errorf("config validation: interval must be between %d and %d, got %d", MinInterval, MaxInterval, config.Interval)
	}

	z := config.Zoom
	if z.Min <= 0 {
		return fmt.Errorf("config validation: zoom.min must be positive, got %g", z.Min)
	}
	if z.Max < z.Min {
		return fmt.Errorf("config validation: zoom.max (%g) must not be below zoom.min (%g)", z.Max, z.Min)
	}
	if z.Initial < z.Min || z.Initial > z.Max {
		return fmt.Errorf("config validation: zoom.initial must be between %g and %g, got %g", z.Min, z.Max, z.Initial)
	}
	if z.Step <= 0 {
		return fmt.Errorf("config validation: zoom.step must be positive, got %g", z.Step)
	}

	if config.MaxFillArea < 1 || config.MaxFillArea > MaxFillAreaCap {
		return fmt.Errorf("config validation: max_fill_area must be between 1 and %d, got %d", MaxFillAreaCap, config.MaxFillArea)
	}
	return nil
}
